package ingestion

import "errors"

var (
	// ErrTripletRepositoryRequired is returned when a triplet repository is not provided.
	ErrTripletRepositoryRequired = errors.New("triplet repository required")

	// ErrMetaRepositoryRequired is returned when a meta repository is not provided.
	ErrMetaRepositoryRequired = errors.New("meta repository required")

	// ErrNoSources is returned when an initializer has nothing to load.
	ErrNoSources = errors.New("no ontology sources")

	// ErrInitialization wraps every failure of a load attempt. The stored
	// data version is left untouched so the next attempt reloads.
	ErrInitialization = errors.New("knowledge base initialization failed")

	// ErrSpellRepositoryRequired is returned when the indexer has no spells to read.
	ErrSpellRepositoryRequired = errors.New("spell repository required")

	// ErrSemanticIndexRequired is returned when the indexer has nowhere to send documents.
	ErrSemanticIndexRequired = errors.New("semantic index required")
)
