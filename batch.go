package main

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
)

var documentExts = []string{".md", ".mdx"}

type batchResult struct {
	Updated   []string
	Unchanged []string
	Failed    []string
	Missing   []string // documents whose track log does not exist
}

// findDocuments lists the documents of dir in a stable order.
func findDocuments(dir string) ([]string, error) {
	var docs []string
	for _, ext := range documentExts {
		matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
		if err != nil {
			return nil, err
		}
		docs = append(docs, matches...)
	}
	sort.Strings(docs)
	return docs, nil
}

func trackNameFor(docPath string) string {
	base := filepath.Base(docPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".gpx"
}

// runBatch processes documents with a fixed number of workers. A failing
// document is logged and recorded; it never stops the rest of the batch.
func runBatch(ctx context.Context, pipeline *Pipeline, docs []string, workers int, bar *progressbar.ProgressBar) batchResult {
	var (
		mu     sync.Mutex
		result batchResult
		wg     sync.WaitGroup
	)
	tasks := make(chan string, workers*2)

	go func() {
		for _, doc := range docs {
			tasks <- doc
		}
		close(tasks)
	}()

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for docPath := range tasks {
				outcome := processDocument(ctx, pipeline, docPath)
				mu.Lock()
				switch outcome {
				case outcomeUpdated:
					result.Updated = append(result.Updated, docPath)
				case outcomeUnchanged:
					result.Unchanged = append(result.Unchanged, docPath)
				case outcomeMissing:
					result.Missing = append(result.Missing, docPath)
				default:
					result.Failed = append(result.Failed, docPath)
				}
				mu.Unlock()
				if bar != nil {
					bar.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	sort.Strings(result.Updated)
	sort.Strings(result.Unchanged)
	sort.Strings(result.Failed)
	sort.Strings(result.Missing)
	return result
}

type documentOutcome int

const (
	outcomeFailed documentOutcome = iota
	outcomeUpdated
	outcomeUnchanged
	outcomeMissing
)

func processDocument(ctx context.Context, pipeline *Pipeline, docPath string) documentOutcome {
	original, err := os.ReadFile(docPath)
	if err != nil {
		log.Printf("Error reading %s: %v", docPath, err)
		return outcomeFailed
	}

	updated, err := pipeline.Process(ctx, trackNameFor(docPath), original)
	if err != nil {
		var missing *MissingTrackError
		if errors.As(err, &missing) {
			log.Printf("Error: %s: %v", docPath, err)
			return outcomeMissing
		}
		log.Printf("Error processing %s: %v", docPath, err)
		return outcomeFailed
	}

	if bytes.Equal(updated, original) {
		return outcomeUnchanged
	}
	if err := os.WriteFile(docPath, updated, 0o644); err != nil {
		log.Printf("Error writing %s: %v", docPath, err)
		return outcomeFailed
	}
	return outcomeUpdated
}
