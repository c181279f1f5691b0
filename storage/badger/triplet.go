package badger

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/spelite/core"
	"github.com/poiesic/spelite/storage"
)

// tripletSequenceBandwidth leases IDs in large blocks since triplets
// arrive in bulk.
const tripletSequenceBandwidth = 1000

// TripletRepository implements storage.TripletRepository for BadgerDB.
//
// Every triplet is written once as a primary row and once per index:
// subject (carrying the full row), (predicate, object), predicate and
// language when tagged. Index keys end with the big-endian row ID so
// prefix scans return rows in insertion order.
type TripletRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.TripletRepository = (*TripletRepository)(nil)

// NewTripletRepository creates a new TripletRepository.
func NewTripletRepository(backend *Backend) (*TripletRepository, error) {
	idSeq, err := backend.GetSequence(tripletIDSeq, tripletSequenceBandwidth)
	if err != nil {
		return nil, err
	}

	return &TripletRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *TripletRepository) Close() error {
	return r.idSeq.Release()
}

// nextID returns the next row ID, skipping the 0 a fresh sequence yields.
func (r *TripletRepository) nextID() (core.ID, error) {
	nextID, err := r.idSeq.Next()
	if err != nil {
		return 0, err
	}
	if nextID == 0 {
		nextID, err = r.idSeq.Next()
		if err != nil {
			return 0, err
		}
	}
	return core.ID(nextID), nil
}

// BulkLoad inserts all triplets through a write batch.
func (r *TripletRepository) BulkLoad(ctx context.Context, triplets []core.Triplet) (int, error) {
	for i := range triplets {
		if err := core.ValidateTriplet(&triplets[i]); err != nil {
			return 0, fmt.Errorf("triplet %d: %w", i, err)
		}
	}
	if r.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}

	wb := r.backend.NewWriteBatch()
	defer wb.Cancel()

	for i := range triplets {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		t := triplets[i]
		id, err := r.nextID()
		if err != nil {
			return 0, err
		}
		t.ID = id
		t.Object = t.Object.Stored()
		row := storage.MarshalTriplet(&t)

		if err := wb.Set(makeTripletKey(id), row); err != nil {
			return 0, fmt.Errorf("%w: %w", storage.ErrBulkLoadFailed, err)
		}
		if err := wb.Set(makeSubjectKey(t.Subject, id), row); err != nil {
			return 0, fmt.Errorf("%w: %w", storage.ErrBulkLoadFailed, err)
		}
		if err := wb.Set(makePredObjKey(t.Predicate, t.Object, id), nil); err != nil {
			return 0, fmt.Errorf("%w: %w", storage.ErrBulkLoadFailed, err)
		}
		if err := wb.Set(makePredicateKey(t.Predicate, id), nil); err != nil {
			return 0, fmt.Errorf("%w: %w", storage.ErrBulkLoadFailed, err)
		}
		if t.Language != "" {
			if err := wb.Set(makeLanguageKey(t.Language, id), nil); err != nil {
				return 0, fmt.Errorf("%w: %w", storage.ErrBulkLoadFailed, err)
			}
		}
	}

	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("%w: %w", storage.ErrBulkLoadFailed, err)
	}
	r.backend.logger.Debug("bulk loaded triplets", "count", len(triplets))
	return len(triplets), nil
}

// FindBySubject returns all triplets of a subject in insertion order.
func (r *TripletRepository) FindBySubject(ctx context.Context, subject string) ([]core.Triplet, error) {
	var result []core.Triplet
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeComponentPrefix(tripletSubjectPrefix, []byte(subject))
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var t *core.Triplet
			err := iter.Item().Value(func(val []byte) error {
				var err error
				t, err = storage.UnmarshalTriplet(val)
				return err
			})
			if err != nil {
				return err
			}
			result = append(result, *t)
		}
		return nil
	}, false)
	return result, err
}

// FindByPredicate returns all triplets with the predicate in insertion order.
func (r *TripletRepository) FindByPredicate(ctx context.Context, predicate string) ([]core.Triplet, error) {
	return r.scanIndex(ctx, makeComponentPrefix(tripletPredicatePrefix, []byte(predicate)), nil)
}

// FindByPredicateObject returns triplets with exactly this predicate and object.
func (r *TripletRepository) FindByPredicateObject(ctx context.Context, predicate string, object core.Object) ([]core.Triplet, error) {
	if object.IsZero() {
		return nil, fmt.Errorf("%w: object is unset", storage.ErrInvalidQuery)
	}
	// the key can be shared by hashed strings or values containing NUL
	return r.scanIndex(ctx, makePredObjPrefix(predicate, object), func(t *core.Triplet) bool {
		return t.Predicate == predicate && t.Object.Equal(object)
	})
}

// FindByLanguage returns all triplets tagged with the language.
func (r *TripletRepository) FindByLanguage(ctx context.Context, language string) ([]core.Triplet, error) {
	if language == "" {
		return nil, fmt.Errorf("%w: language is empty", storage.ErrInvalidQuery)
	}
	return r.scanIndex(ctx, makeComponentPrefix(tripletLanguagePrefix, []byte(language)), nil)
}

// Subjects returns the distinct subjects having the predicate.
func (r *TripletRepository) Subjects(ctx context.Context, predicate string) ([]string, error) {
	triplets, err := r.FindByPredicate(ctx, predicate)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(triplets))
	subjects := make([]string, 0, len(triplets))
	for _, t := range triplets {
		if !seen[t.Subject] {
			seen[t.Subject] = true
			subjects = append(subjects, t.Subject)
		}
	}
	return subjects, nil
}

// All returns every triplet in insertion order.
func (r *TripletRepository) All(ctx context.Context) ([]core.Triplet, error) {
	var result []core.Triplet
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(tripletPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var t *core.Triplet
			err := iter.Item().Value(func(val []byte) error {
				var err error
				t, err = storage.UnmarshalTriplet(val)
				return err
			})
			if err != nil {
				return err
			}
			result = append(result, *t)
		}
		return nil
	}, false)
	return result, err
}

// Clear removes every triplet and index entry.
func (r *TripletRepository) Clear(ctx context.Context) error {
	if err := r.backend.DropPrefix(ctx, tripletPrefixes...); err != nil {
		return err
	}
	r.backend.logger.Debug("cleared triplet store")
	return nil
}

// CountTriplets returns the number of stored triplets.
func (r *TripletRepository) CountTriplets(ctx context.Context) (int, error) {
	return r.backend.CountPrefix(ctx, tripletPrefix)
}

// scanIndex walks an index prefix and loads the primary rows it points to.
// keep, when set, filters the loaded rows.
func (r *TripletRepository) scanIndex(ctx context.Context, prefix []byte, keep func(*core.Triplet) bool) ([]core.Triplet, error) {
	var result []core.Triplet
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			// a longer component sharing our prefix bytes is not a match
			if len(key) != len(prefix)+8 || !bytes.HasPrefix(key, prefix) {
				continue
			}
			id, ok := idFromIndexKey(key)
			if !ok {
				continue
			}
			t, err := readTriplet(tx, makeTripletKey(id))
			if err != nil {
				return err
			}
			if t == nil {
				r.backend.logger.Warn("dangling index entry", "id", id)
				continue
			}
			if keep != nil && !keep(t) {
				continue
			}
			result = append(result, *t)
		}
		return nil
	}, false)
	return result, err
}

// Helper methods

// readTriplet reads a primary triplet row. Returns nil, nil if absent.
func readTriplet(tx *badger.Txn, key []byte) (*core.Triplet, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var t *core.Triplet
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		t, unmarshalErr = storage.UnmarshalTriplet(val)
		return unmarshalErr
	})
	return t, err
}
