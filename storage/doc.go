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

// Package storage provides the storage abstraction layer for spelite.
//
// This package defines repository interfaces that decouple storage implementation
// from the ontology and search logic. The BadgerDB backend lives in storage/badger.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return interface types:
//
//	repo, err := badger.NewTripletRepository(backend)  // returns storage.TripletRepository
//
// Internal constructors may return concrete types since they are only used
// within the implementation package.
//
// # Architecture
//
//   - TripletRepository: subject/predicate/object rows with explicit indexes
//     by subject, by (predicate, object), by predicate and by language
//   - EmbeddingRepository: append-only text to vector cache
//   - MetaRepository: small key-value slot for version markers
//
// # Lifecycle
//
// Triplets are bulk loaded once and then read. Embeddings are added
// incrementally and never rewritten, so concurrent readers need no locking
// beyond the backend's own transactions.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support. Pass context.Background() for operations
// without specific timeout requirements.
package storage
