package ports

import "context"

// ArtifactStore is durable, backend-agnostic storage for artifact binaries
// and their side-car metadata documents. Keys are date-partitioned
// ({year}/{month}/{day}/{id}); the store derives the concrete binary and
// metadata locations from them. Metadata must only ever be written after the
// corresponding binary write succeeded, so a metadata document is never
// observable without its binary. An orphaned binary is ignorable and
// reclaimable, never surfaced as a usable artifact.
type ArtifactStore interface {
	// Put writes the binary payload under key and returns its location.
	Put(ctx context.Context, key string, payload []byte) (string, error)
	// PutMetadata writes the side-car document for key and returns its location.
	PutMetadata(ctx context.Context, key string, doc []byte) (string, error)
	Get(ctx context.Context, location string) ([]byte, error)
	GetMetadata(ctx context.Context, location string) ([]byte, error)
	Exists(ctx context.Context, location string) (bool, error)
	// ListMetadata streams every stored metadata document through fn.
	// Returning an error from fn stops the walk.
	ListMetadata(ctx context.Context, fn func(doc []byte) error) error
	// Ping reports whether the backend is reachable and writable.
	Ping(ctx context.Context) error
}
