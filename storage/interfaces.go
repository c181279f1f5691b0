package storage

import (
	"context"

	"github.com/poiesic/spelite/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close releases resources held by the repository. The shared backend
	// is closed separately.
	Close() error
}

// TripletRepository stores triplets and serves the indexed lookups used to
// reconstruct and search entities.
type TripletRepository interface {
	Repository

	// BulkLoad inserts all triplets without per-row transactions.
	// IDs are assigned from a sequence in slice order; the input is not modified.
	// Every triplet is validated before anything is written.
	// Returns the number of triplets written.
	BulkLoad(ctx context.Context, triplets []core.Triplet) (int, error)

	// FindBySubject returns all triplets of a subject in insertion order.
	FindBySubject(ctx context.Context, subject string) ([]core.Triplet, error)

	// FindByPredicate returns all triplets with the predicate in insertion order.
	FindByPredicate(ctx context.Context, predicate string) ([]core.Triplet, error)

	// FindByPredicateObject returns triplets whose predicate and object are
	// exactly equal to the arguments. Booleans match their stored 0/1 form.
	FindByPredicateObject(ctx context.Context, predicate string, object core.Object) ([]core.Triplet, error)

	// FindByLanguage returns all triplets tagged with the language.
	FindByLanguage(ctx context.Context, language string) ([]core.Triplet, error)

	// Subjects returns the distinct subjects having at least one triplet
	// with the predicate, in first-insertion order.
	Subjects(ctx context.Context, predicate string) ([]string, error)

	// All returns every triplet in insertion order.
	All(ctx context.Context) ([]core.Triplet, error)

	// Clear removes every triplet and index entry.
	Clear(ctx context.Context) error

	// CountTriplets returns the number of stored triplets.
	CountTriplets(ctx context.Context) (int, error)
}

// EmbeddingRepository is the persistent text to vector cache.
// It is append-only: existing entries are never rewritten.
type EmbeddingRepository interface {
	Repository

	// GetEmbedding returns the vector stored for the exact text.
	// The boolean is false when no entry exists.
	GetEmbedding(ctx context.Context, text string) ([]float32, bool, error)

	// GetEmbeddings returns the stored vectors for the texts that have one.
	// Missing texts are simply absent from the map.
	GetEmbeddings(ctx context.Context, texts []string) (map[string][]float32, error)

	// PutEmbeddings stores entries whose text is not yet present.
	// Entries for already cached text are skipped. Returns the number written.
	PutEmbeddings(ctx context.Context, entries []core.Embedding) (int, error)

	// CountEmbeddings returns the number of cached entries.
	CountEmbeddings(ctx context.Context) (int, error)

	// ClearEmbeddings removes every cached entry.
	ClearEmbeddings(ctx context.Context) error
}

// MetaRepository is a small persistent key-value slot for markers such as
// the loaded ontology version.
type MetaRepository interface {
	// GetMeta returns the value for key. The boolean is false when unset.
	GetMeta(ctx context.Context, key string) (string, bool, error)

	// SetMeta stores value under key, replacing any previous value.
	SetMeta(ctx context.Context, key, value string) error

	// DeleteMeta removes key. Deleting an unset key is not an error.
	DeleteMeta(ctx context.Context, key string) error
}
