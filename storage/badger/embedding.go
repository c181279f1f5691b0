package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/spelite/core"
	"github.com/poiesic/spelite/storage"
)

// EmbeddingRepository implements storage.EmbeddingRepository for BadgerDB.
// Rows are keyed by the content ID of their text and carry the text itself,
// which is compared on every read.
type EmbeddingRepository struct {
	backend *Backend
}

var _ storage.EmbeddingRepository = (*EmbeddingRepository)(nil)

// NewEmbeddingRepository creates a new EmbeddingRepository.
func NewEmbeddingRepository(backend *Backend) (*EmbeddingRepository, error) {
	return &EmbeddingRepository{
		backend: backend,
	}, nil
}

// Close releases resources. EmbeddingRepository has no resources to release.
func (r *EmbeddingRepository) Close() error {
	return nil
}

// GetEmbedding returns the vector cached for text.
func (r *EmbeddingRepository) GetEmbedding(ctx context.Context, text string) ([]float32, bool, error) {
	var vector []float32
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		entry, err := readEmbedding(tx, text)
		if err != nil || entry == nil {
			return err
		}
		vector = entry.Vector
		return nil
	}, false)
	if err != nil {
		return nil, false, err
	}
	return vector, vector != nil, nil
}

// GetEmbeddings returns the cached vectors for the texts that have one.
func (r *EmbeddingRepository) GetEmbeddings(ctx context.Context, texts []string) (map[string][]float32, error) {
	found := make(map[string][]float32, len(texts))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, text := range texts {
			if _, ok := found[text]; ok {
				continue
			}
			entry, err := readEmbedding(tx, text)
			if err != nil {
				return err
			}
			if entry != nil {
				found[text] = entry.Vector
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return found, nil
}

// PutEmbeddings stores entries whose text is not cached yet.
func (r *EmbeddingRepository) PutEmbeddings(ctx context.Context, entries []core.Embedding) (int, error) {
	written := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		pending := make(map[string]bool, len(entries))
		for i := range entries {
			entry := &entries[i]
			if pending[entry.Text] || len(entry.Vector) == 0 {
				continue
			}
			key := makeEmbeddingKey(entry.Text)
			existing, err := readEmbeddingAt(tx, key)
			if err != nil {
				return err
			}
			if existing != nil {
				if existing.Text != entry.Text {
					r.backend.logger.Warn("embedding key collision, entry not cached", "len", len(entry.Text))
				}
				continue
			}
			if err := tx.Set(key, storage.MarshalEmbedding(entry)); err != nil {
				return err
			}
			pending[entry.Text] = true
			written++
		}
		if written == 0 {
			return nil
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}
	return written, nil
}

// CountEmbeddings returns the number of cached entries.
func (r *EmbeddingRepository) CountEmbeddings(ctx context.Context) (int, error) {
	return r.backend.CountPrefix(ctx, embeddingPrefix)
}

// ClearEmbeddings removes every cached entry.
func (r *EmbeddingRepository) ClearEmbeddings(ctx context.Context) error {
	return r.backend.DropPrefix(ctx, embeddingPrefix)
}

// readEmbedding reads the entry for text. Returns nil, nil on a miss or
// when the slot belongs to different text.
func readEmbedding(tx *badger.Txn, text string) (*core.Embedding, error) {
	entry, err := readEmbeddingAt(tx, makeEmbeddingKey(text))
	if err != nil || entry == nil {
		return nil, err
	}
	if entry.Text != text {
		return nil, nil
	}
	return entry, nil
}

func readEmbeddingAt(tx *badger.Txn, key []byte) (*core.Embedding, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var entry *core.Embedding
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		entry, unmarshalErr = storage.UnmarshalEmbedding(val)
		return unmarshalErr
	})
	return entry, err
}
