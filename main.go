package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/golang/freetype/truetype"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/image/font/gofont/goregular"
)

// --- Main Logic ---

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	args, err := parseArguments(cfg, os.Args[1:])
	if err != nil {
		log.Fatalf("Error parsing arguments: %v", err)
	}

	fetcher, err := newHTTPTileFetcher(args.MapStyle, args.UserAgent, args.TileCacheDir)
	if err != nil {
		log.Fatalf("Error creating tile fetcher: %v", err)
	}

	pipelineCfg := PipelineConfig{Canvas: defaultCanvas, RouteColor: args.PathColor}
	if args.Preview {
		font, err := truetype.Parse(goregular.TTF)
		if err != nil {
			log.Fatal(err)
		}
		pipelineCfg.PreviewFont = font
	}

	pipeline, err := newPipeline(newFSStore(args.GpxDir, args.MapsDir, args.MapRef), fetcher, pipelineCfg)
	if err != nil {
		log.Fatalf("Error creating pipeline: %v", err)
	}

	docs, err := findDocuments(args.ContentDir)
	if err != nil {
		log.Fatalf("Error listing documents: %v", err)
	}
	if len(docs) == 0 {
		log.Printf("No documents found in %s", args.ContentDir)
		return
	}

	bar := progressbar.Default(int64(len(docs)), "Processing tracks")
	result := runBatch(context.Background(), pipeline, docs, args.Workers, bar)

	fmt.Printf("\n%d updated, %d unchanged, %d failed, %d missing tracks\n",
		len(result.Updated), len(result.Unchanged), len(result.Failed), len(result.Missing))

	if args.GlobalStatsFile != "" {
		kept := append(append([]string{}, result.Updated...), result.Unchanged...)
		if err := writeGlobalStats(args.GlobalStatsFile, kept); err != nil {
			log.Fatalf("Error writing global stats: %v", err)
		}
	}

	if len(result.Missing) > 0 {
		os.Exit(1)
	}
}
