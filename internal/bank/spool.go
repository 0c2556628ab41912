package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SpoolGenerator writes batch snapshots as JSON files into a spool
// directory where the bank transfer tooling picks them up.
type SpoolGenerator struct {
	dir string
}

func NewSpoolGenerator(dir string) *SpoolGenerator {
	return &SpoolGenerator{dir: dir}
}

func (g *SpoolGenerator) Generate(ctx context.Context, snapshot Snapshot) (File, error) {
	if err := ctx.Err(); err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	if err := os.MkdirAll(g.dir, os.ModePerm); err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	path := filepath.Join(g.dir, fmt.Sprintf("batch-%s.json", snapshot.BatchID))

	// Write to a temporary file first so that the spool directory never
	// contains partially written files.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	return File{Path: path}, nil
}
