package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/sweetpotato0/docsum/document"
	"github.com/sweetpotato0/docsum/orchestrator"
)

// ErrNotFound is returned by Load when no artifact exists under a name.
var ErrNotFound = errors.New("report not found")

// Store persists finished reports under a name derived from the source
// document. Saving the same source twice overwrites the earlier artifact.
type Store interface {
	Save(ctx context.Context, source string, report *document.Report) (string, error)
	Load(ctx context.Context, artifact string) (*document.Report, error)
	Close() error
}

var (
	_ orchestrator.Persister = Store(nil)
	_ Store                  = (*FileStore)(nil)
	_ Store                  = (*RedisStore)(nil)
	_ Store                  = (*PostgresStore)(nil)
	_ Store                  = (*MongoStore)(nil)
)

// ArtifactName returns the artifact name for a source document:
// "<base name without .txt>_summary.json".
func ArtifactName(source string) string {
	base := filepath.Base(filepath.Clean("/" + source))
	return strings.TrimSuffix(base, ".txt") + "_summary.json"
}

var errNilReport = errors.New("report cannot be nil")
