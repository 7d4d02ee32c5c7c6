package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sweetpotato0/docsum/document"
)

// DefaultDir is where FileStore writes reports when no directory is given.
const DefaultDir = "outputs"

// FileStore writes one indented JSON file per report.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the output directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Save writes report to <dir>/<artifact> and returns the file path.
func (s *FileStore) Save(ctx context.Context, source string, report *document.Report) (string, error) {
	if report == nil {
		return "", errNilReport
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	path := filepath.Join(s.dir, ArtifactName(source))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// Load reads a report by artifact name or path inside the store directory.
func (s *FileStore) Load(ctx context.Context, artifact string) (*document.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(filepath.Join(s.dir, filepath.Base(artifact)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, artifact)
		}
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var report document.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &report, nil
}

// Close is a no-op.
func (s *FileStore) Close() error {
	return nil
}
