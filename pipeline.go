package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"log"
	"path/filepath"
	"strings"

	"github.com/golang/freetype/truetype"
	"golang.org/x/sync/errgroup"
)

// MissingTrackError reports a document whose track log does not exist.
type MissingTrackError struct {
	Track string
	Err   error
}

func (e *MissingTrackError) Error() string {
	return fmt.Sprintf("track %s not found: %v", e.Track, e.Err)
}

func (e *MissingTrackError) Unwrap() error { return e.Err }

// --- Structs ---

type PipelineConfig struct {
	Canvas     Canvas
	RouteColor string
	// PreviewFont enables PNG previews when set.
	PreviewFont *truetype.Font
}

type Pipeline struct {
	store      AssetStore
	fetcher    TileFetcher
	canvas     Canvas
	routeColor string
	pathColor  color.Color
	font       *truetype.Font
}

type metaField struct {
	key   string
	value any
}

type mapResult struct {
	viewport Viewport
	tiles    []TileImage
	svg      []byte
}

func newPipeline(store AssetStore, fetcher TileFetcher, cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Canvas.Width <= 0 || cfg.Canvas.Height <= 0 {
		cfg.Canvas = defaultCanvas
	}
	pathColor, err := parseHexColor(cfg.RouteColor)
	if err != nil {
		return nil, fmt.Errorf("invalid route color %q: %w", cfg.RouteColor, err)
	}
	return &Pipeline{
		store:      store,
		fetcher:    fetcher,
		canvas:     cfg.Canvas,
		routeColor: cfg.RouteColor,
		pathColor:  pathColor,
		font:       cfg.PreviewFont,
	}, nil
}

// --- Processing ---

// Process enriches doc with the statistics of trackName and a reference to its
// rendered map. A track without points leaves doc unchanged.
func (p *Pipeline) Process(ctx context.Context, trackName string, doc []byte) ([]byte, error) {
	data, err := p.store.ReadTrack(ctx, trackName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &MissingTrackError{Track: trackName, Err: err}
		}
		return nil, fmt.Errorf("failed to read track %s: %w", trackName, err)
	}

	points, err := parseGpx(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse track %s: %w", trackName, err)
	}
	if len(points) == 0 {
		log.Printf("Warning: no track points found in %s", trackName)
		return doc, nil
	}

	parsed, err := parseDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document for %s: %w", trackName, err)
	}

	var stats TrackStats
	var rendered mapResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = calculateStats(points)
		return err
	})
	g.Go(func() error {
		var err error
		rendered, err = p.renderMap(gctx, points)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to process track %s: %w", trackName, err)
	}

	stem := strings.TrimSuffix(filepath.Base(trackName), filepath.Ext(trackName))
	mapRef, err := p.store.WriteAsset(ctx, stem+".svg", rendered.svg)
	if err != nil {
		return nil, err
	}

	fields := []metaField{
		{"distance", stats.Distance},
		{"gain", stats.Gain},
		{"loss", stats.Loss},
		{"maxEle", stats.MaxEle},
		{"minEle", stats.MinEle},
		{"type", stats.Shape.String()},
		{"movingTime", formatDuration(stats.MovingTime)},
		{"totalTime", formatDuration(stats.TotalTime)},
		{"map", mapRef},
	}

	if p.font != nil {
		preview, err := renderPreview(rendered.viewport, rendered.tiles, points, stats, p.canvas, p.pathColor, p.font)
		if err != nil {
			return nil, err
		}
		previewRef, err := p.store.WriteAsset(ctx, stem+".png", preview)
		if err != nil {
			return nil, err
		}
		fields = append(fields, metaField{"mapPreview", previewRef})
	}

	for _, f := range fields {
		if err := parsed.Set(f.key, f.value); err != nil {
			return nil, err
		}
	}
	return parsed.Bytes()
}

func (p *Pipeline) renderMap(ctx context.Context, points []Point) (mapResult, error) {
	vp, err := computeViewport(points, p.canvas)
	if err != nil {
		return mapResult{}, err
	}
	tiles := fetchViewportTiles(ctx, p.fetcher, vp)
	return mapResult{
		viewport: vp,
		tiles:    tiles,
		svg:      renderSVG(vp, tiles, points, p.canvas, p.routeColor),
	}, nil
}
