package index

import "context"

// ArtifactIndex defines the interface for artifact indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type ArtifactIndex interface {
	UpsertArtifact(ctx context.Context, r ArtifactRow, text string) error
	DeleteByPath(ctx context.Context, path string) error
	GetArtifact(ctx context.Context, id string) (*ArtifactRow, error)
	ListArtifacts(ctx context.Context, f Filter) ([]ArtifactRow, error)
	CountArtifacts(ctx context.Context, f Filter) (int, error)
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
	AllChecksums(ctx context.Context) (map[string]string, error)
	Close() error
}

// Verify *DB satisfies ArtifactIndex at compile time.
var _ ArtifactIndex = (*DB)(nil)
