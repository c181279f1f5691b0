// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/spelite/storage"
)

// MetaRepository implements storage.MetaRepository for BadgerDB.
type MetaRepository struct {
	backend *Backend
}

var _ storage.MetaRepository = (*MetaRepository)(nil)

// NewMetaRepository creates a new MetaRepository.
func NewMetaRepository(backend *Backend) *MetaRepository {
	return &MetaRepository{
		backend: backend,
	}
}

// SetMeta persists value under key.
func (r *MetaRepository) SetMeta(ctx context.Context, key, value string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeMetaKey(key), storage.MarshalString(value)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteMeta removes key.
func (r *MetaRepository) DeleteMeta(ctx context.Context, key string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeMetaKey(key)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetMeta retrieves the value stored under key.
// Returns "", false, nil if nothing is stored.
func (r *MetaRepository) GetMeta(ctx context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeMetaKey(key))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			value, unmarshalErr = storage.UnmarshalString(val)
			found = unmarshalErr == nil
			return unmarshalErr
		})
	}, false)

	return value, found, err
}
