// Package ingestion prepares the knowledge base for use.
//
// The Initializer loads the ontology documents into the triplet store.
// Loading is gated by a data version kept in the meta store:
//   - a matching version over a non-empty store skips the load
//   - otherwise the store is cleared and every source reloaded
//
// A failed load is reported as ErrInitialization and leaves the version
// unset, so the next start retries.
//
// The Indexer warms the semantic embedding cache with the documents the
// search engine ranks, in every configured language, and tracks its
// progress so callers know when semantic search may be enabled.
package ingestion
