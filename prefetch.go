package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	maxTilesPerMap       = 50
	tileFetchConcurrency = 8
	tileFetchTimeout     = 10 * time.Second
	defaultUserAgent     = "GpxTripMaps/1.0 (+https://www.openstreetmap.org/copyright)"
)

var errTileBudgetExceeded = errors.New("tile budget exceeded")

// --- Structs ---

type MapStyle struct {
	Name    string
	URL     string
	Headers map[string]string
}

type Tile struct {
	X, Y, Z int
}

func (t Tile) String() string { return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y) }

// TileImage is a tile placed in the map. Nil Data means the tile is absent.
type TileImage struct {
	Tile
	Data []byte
}

type TileFetcher interface {
	Fetch(ctx context.Context, t Tile) ([]byte, error)
}

var mapStyles = map[string]MapStyle{
	"default":     {Name: "default", URL: "https://tile.openstreetmap.org/{z}/{x}/{y}.png"},
	"cyclosm":     {Name: "cyclosm", URL: "https://c.tile-cyclosm.openstreetmap.fr/cyclosm/{z}/{x}/{y}.png"},
	"opentopomap": {Name: "opentopomap", URL: "https://a.tile.opentopomap.org/{z}/{x}/{y}.png"},
	"positron":    {Name: "positron", URL: "https://d.basemaps.cartocdn.com/light_all/{z}/{x}/{y}.png"},
}

// --- Tile Cache ---

// tileCache memoizes tiles for one batch run. Concurrent requests for the same
// tile share a single load.
type tileCache struct {
	tiles    sync.Map // Tile -> []byte
	inflight singleflight.Group
}

func newTileCache() *tileCache {
	return &tileCache{}
}

func (c *tileCache) Get(t Tile, load func() ([]byte, error)) ([]byte, error) {
	if data, ok := c.tiles.Load(t); ok {
		return data.([]byte), nil
	}
	v, err, _ := c.inflight.Do(t.String(), func() (any, error) {
		if data, ok := c.tiles.Load(t); ok {
			return data, nil
		}
		data, err := load()
		if err != nil {
			return nil, err
		}
		c.tiles.Store(t, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// --- Tile Downloading ---

type httpTileFetcher struct {
	style     MapStyle
	userAgent string
	cacheDir  string
	client    *http.Client
	cache     *tileCache
}

func newHTTPTileFetcher(style, userAgent, cacheDir string) (*httpTileFetcher, error) {
	styleInfo, ok := mapStyles[style]
	if !ok {
		return nil, fmt.Errorf("invalid map style: %s", style)
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &httpTileFetcher{
		style:     styleInfo,
		userAgent: userAgent,
		cacheDir:  cacheDir,
		client:    &http.Client{Timeout: tileFetchTimeout},
		cache:     newTileCache(),
	}, nil
}

// Fetch returns the tile image. The load is shared by every caller waiting on
// the same tile and is bounded by the client timeout, not by any caller's context.
func (f *httpTileFetcher) Fetch(ctx context.Context, t Tile) ([]byte, error) {
	shared := context.WithoutCancel(ctx)
	return f.cache.Get(t, func() ([]byte, error) {
		return f.load(shared, t)
	})
}

func (f *httpTileFetcher) tileURL(t Tile) string {
	r := strings.NewReplacer("{z}", strconv.Itoa(t.Z), "{x}", strconv.Itoa(t.X), "{y}", strconv.Itoa(t.Y))
	return r.Replace(f.style.URL)
}

func (f *httpTileFetcher) tilePath(t Tile) string {
	ext := filepath.Ext(strings.SplitN(f.style.URL, "?", 2)[0])
	if ext == "" {
		ext = ".img"
	}
	return filepath.Join(f.cacheDir, f.style.Name, strconv.Itoa(t.Z), strconv.Itoa(t.X), strconv.Itoa(t.Y)+ext)
}

func (f *httpTileFetcher) load(ctx context.Context, t Tile) ([]byte, error) {
	if f.cacheDir != "" {
		if data, err := os.ReadFile(f.tilePath(t)); err == nil {
			return data, nil
		}
	}

	data, err := f.download(ctx, t)
	if err != nil {
		return nil, err
	}

	if f.cacheDir != "" {
		tilePath := f.tilePath(t)
		if err := os.MkdirAll(filepath.Dir(tilePath), 0o755); err != nil {
			log.Printf("Warning: could not create tile cache dir: %v", err)
		} else if err := os.WriteFile(tilePath, data, 0o644); err != nil {
			log.Printf("Warning: could not cache tile %s: %v", t, err)
		}
	}
	return data, nil
}

func (f *httpTileFetcher) download(ctx context.Context, t Tile) ([]byte, error) {
	url := f.tileURL(t)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	for k, v := range f.style.Headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download tile %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download tile %s: status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read tile %s: %w", url, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty tile %s", url)
	}
	return data, nil
}

// --- Viewport Fetching ---

// fetchViewportTiles fetches every tile under the viewport. It never fails: a
// viewport over the tile budget gets no imagery at all, and tiles that cannot be
// fetched are returned without data.
func fetchViewportTiles(ctx context.Context, fetcher TileFetcher, vp Viewport) []TileImage {
	tiles := vp.Tiles()
	if len(tiles) > maxTilesPerMap {
		log.Printf("Warning: %v: viewport needs %d tiles (limit %d), skipping map background", errTileBudgetExceeded, len(tiles), maxTilesPerMap)
		return nil
	}

	images := make([]TileImage, len(tiles))
	n := 1 << vp.Zoom
	var g errgroup.Group
	g.SetLimit(tileFetchConcurrency)

	for i, t := range tiles {
		images[i] = TileImage{Tile: t}
		if fetcher == nil || t.Y < 0 || t.Y >= n {
			continue
		}
		g.Go(func() error {
			// Tiles past the antimeridian repeat the world.
			wrapped := Tile{X: ((t.X % n) + n) % n, Y: t.Y, Z: t.Z}
			data, err := fetcher.Fetch(ctx, wrapped)
			if err != nil {
				log.Printf("Warning: tile %s unavailable: %v", t, err)
				return nil
			}
			images[i].Data = data
			return nil
		})
	}
	_ = g.Wait()
	return images
}
