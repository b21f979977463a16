package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AssetStore is where the pipeline reads track logs from and persists the
// generated artifacts to. WriteAsset returns the reference documents should use.
type AssetStore interface {
	ReadTrack(ctx context.Context, name string) ([]byte, error)
	WriteAsset(ctx context.Context, name string, data []byte) (string, error)
}

type fsStore struct {
	trackDir string
	assetDir string
	assetRef string
}

func newFSStore(trackDir, assetDir, assetRef string) *fsStore {
	return &fsStore{trackDir: trackDir, assetDir: assetDir, assetRef: assetRef}
}

func (s *fsStore) ReadTrack(_ context.Context, name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.trackDir, name))
}

func (s *fsStore) WriteAsset(_ context.Context, name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.assetDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create asset dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.assetDir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write asset %s: %w", name, err)
	}
	if s.assetRef == "" {
		return name, nil
	}
	return strings.TrimSuffix(s.assetRef, "/") + "/" + name, nil
}
