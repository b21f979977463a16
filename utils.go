package main

import (
	"flag"
	"fmt"
	"image/color"
	"math"
)

// --- Structs ---

type Arguments struct {
	ContentDir      string
	GpxDir          string
	MapsDir         string
	MapRef          string
	MapStyle        string
	TileCacheDir    string
	UserAgent       string
	Workers         int
	Preview         bool
	PathColor       string
	GlobalStatsFile string
}

// --- Argument Parsing ---

// parseArguments reads command-line flags; cfg supplies the defaults.
func parseArguments(cfg Config, argv []string) (*Arguments, error) {
	args := &Arguments{UserAgent: cfg.UserAgent}
	fs := flag.NewFlagSet("gpx_trip_maps", flag.ContinueOnError)

	fs.StringVar(&args.ContentDir, "content", cfg.ContentDir, "Directory of documents with front matter to enrich.")
	fs.StringVar(&args.GpxDir, "gpx-dir", cfg.GpxDir, "Directory holding <document>.gpx track logs.")
	fs.StringVar(&args.MapsDir, "maps-dir", cfg.MapsDir, "Directory the generated maps are written to.")
	fs.StringVar(&args.MapRef, "map-ref", cfg.MapRef, "Prefix used when referencing maps from documents.")
	fs.StringVar(&args.MapStyle, "style", cfg.MapStyle, "Tile style (default, cyclosm, opentopomap, positron).")
	fs.StringVar(&args.TileCacheDir, "tile-cache", cfg.TileCacheDir, "Optional on-disk tile cache directory.")
	fs.IntVar(&args.Workers, "workers", cfg.Workers, "Number of documents processed in parallel.")
	fs.BoolVar(&args.Preview, "preview", cfg.Preview, "Also render a PNG preview next to each map.")
	fs.StringVar(&args.PathColor, "path-color", cfg.PathColor, "Color of the drawn route (hex).")
	fs.StringVar(&args.GlobalStatsFile, "global-stats", cfg.GlobalStatsFile, "Write aggregated hike stats to this JSON file.")

	if err := fs.Parse(argv); err != nil {
		return nil, err
	}
	if args.Workers < 1 {
		args.Workers = 1
	}
	if _, err := parseHexColor(args.PathColor); err != nil {
		return nil, fmt.Errorf("invalid path color %q: %w", args.PathColor, err)
	}
	if _, ok := mapStyles[args.MapStyle]; !ok {
		return nil, fmt.Errorf("invalid map style: %s", args.MapStyle)
	}
	return args, nil
}

func parseHexColor(s string) (color.Color, error) {
	var r, g, b uint8
	_, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b)
	if err != nil {
		return color.Black, err
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// deg2num converts a position to fractional slippy-map tile coordinates.
func deg2num(lat, lon float64, zoom int) (float64, float64) {
	latRad := lat * math.Pi / 180
	n := math.Exp2(float64(zoom))
	xtile := (lon + 180) / 360 * n
	ytile := (1 - math.Asinh(math.Tan(latRad))/math.Pi) / 2 * n
	return xtile, ytile
}
