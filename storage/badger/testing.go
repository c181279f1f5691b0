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

// MemoryRepositories bundles in-memory repositories for tests.
type MemoryRepositories struct {
	Backend    *Backend
	Triplets   *TripletRepository
	Embeddings *EmbeddingRepository
	Meta       *MetaRepository
}

// Close closes the repositories and then the backend.
func (m *MemoryRepositories) Close() error {
	m.Embeddings.Close()
	m.Triplets.Close()
	return m.Backend.Close()
}

// NewMemoryRepositories creates in-memory triplet, embedding and meta
// repositories sharing one backend, for testing.
// Caller must Close the bundle when done.
func NewMemoryRepositories() (*MemoryRepositories, error) {
	backend, err := OpenBackend("", true, nil)
	if err != nil {
		return nil, err
	}

	triplets, err := NewTripletRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	embeddings, err := NewEmbeddingRepository(backend)
	if err != nil {
		triplets.Close()
		backend.Close()
		return nil, err
	}

	return &MemoryRepositories{
		Backend:    backend,
		Triplets:   triplets,
		Embeddings: embeddings,
		Meta:       NewMetaRepository(backend),
	}, nil
}
