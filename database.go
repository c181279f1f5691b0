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

package spelite

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/spelite/ai"
	"github.com/poiesic/spelite/ai/openai"
	"github.com/poiesic/spelite/ingestion"
	"github.com/poiesic/spelite/ontology"
	"github.com/poiesic/spelite/repository"
	"github.com/poiesic/spelite/search"
	"github.com/poiesic/spelite/semantic"
	"github.com/poiesic/spelite/storage"
	"github.com/poiesic/spelite/storage/badger"
)

// ErrSemanticDisabled is returned by operations that need the embedding
// worker when none was configured.
var ErrSemanticDisabled = errors.New("semantic search is not configured")

type Database struct {
	backend    *badger.Backend
	triplets   *badger.TripletRepository
	embeddings *badger.EmbeddingRepository
	meta       *badger.MetaRepository
	spells     *repository.SpellRepository
	classes    *repository.ClassRepository
	races      *repository.RaceRepository
	provider   ai.AIProvider
	worker     *semantic.Worker
	bridge     *semantic.Bridge
	logger     *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	inMemory      bool
	aiConfig      *ai.Config
	embedder      ai.Embedder
	workerCommand []string
	logger        *slog.Logger
}

// WithInMemory keeps the store in memory. The path is ignored.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithAIConfig enables semantic search with an OpenAI-compatible
// embedding service, computed on a local worker thread.
func WithAIConfig(cfg *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = cfg
	}
}

// WithEmbedder enables semantic search with the given embedder on a
// local worker thread. It takes precedence over WithAIConfig.
func WithEmbedder(embedder ai.Embedder) DatabaseOption {
	return func(o *databaseOptions) {
		o.embedder = embedder
	}
}

// WithWorkerCommand enables semantic search through a child process
// speaking the worker protocol on stdin and stdout, such as
// "spelite worker". The child keeps its own vector cache.
func WithWorkerCommand(name string, args ...string) DatabaseOption {
	return func(o *databaseOptions) {
		o.workerCommand = append([]string{name}, args...)
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	// Apply options
	options := &databaseOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, options.inMemory, options.logger)
	if err != nil {
		return nil, err
	}

	db := &Database{
		backend: backend,
		meta:    badger.NewMetaRepository(backend),
		logger:  options.logger.With("component", "database"),
	}

	if db.triplets, err = badger.NewTripletRepository(backend); err != nil {
		db.Close()
		return nil, err
	}
	if db.embeddings, err = badger.NewEmbeddingRepository(backend); err != nil {
		db.Close()
		return nil, err
	}

	repoOpt := repository.WithLogger(options.logger)
	if db.spells, err = repository.NewSpellRepository(db.triplets, repoOpt); err != nil {
		db.Close()
		return nil, err
	}
	if db.classes, err = repository.NewClassRepository(db.triplets, repoOpt); err != nil {
		db.Close()
		return nil, err
	}
	if db.races, err = repository.NewRaceRepository(db.triplets, repoOpt); err != nil {
		db.Close()
		return nil, err
	}

	if err := db.startSemantic(options); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// startSemantic wires the embedding worker behind a bridge, if configured.
func (db *Database) startSemantic(options *databaseOptions) error {
	var transport semantic.Transport

	switch {
	case len(options.workerCommand) > 0:
		t, err := semantic.NewProcessTransport(context.Background(), options.workerCommand[0], options.workerCommand[1:]...)
		if err != nil {
			return err
		}
		transport = t
	case options.embedder != nil || options.aiConfig != nil:
		embedder := options.embedder
		if embedder == nil {
			provider, err := openai.NewProvider(options.aiConfig)
			if err != nil {
				return err
			}
			db.provider = provider
			embedder = provider.Embedder()
		}
		worker, err := semantic.NewWorker(embedder,
			semantic.WithStore(db.embeddings),
			semantic.WithWorkerLogger(options.logger),
		)
		if err != nil {
			return err
		}
		db.worker = worker
		transport = semantic.NewLocalTransport(worker)
	default:
		return nil
	}

	bridge, err := semantic.NewBridge(transport, semantic.WithBridgeLogger(options.logger))
	if err != nil {
		transport.Close()
		return err
	}
	db.bridge = bridge
	return nil
}

func (db *Database) Close() error {
	// Stop the worker first so pending vectors reach the store
	if db.bridge != nil {
		if err := db.bridge.Close(); err != nil {
			db.logger.Error("error closing semantic bridge", "err", err)
		}
	}
	if db.worker != nil {
		db.worker.Close()
	}
	if db.provider != nil {
		if err := db.provider.Close(); err != nil {
			db.logger.Error("error closing AI provider", "err", err)
		}
	}

	// Close repositories
	if db.embeddings != nil {
		if err := db.embeddings.Close(); err != nil {
			db.logger.Error("error closing embedding repository", "err", err)
			return err
		}
	}
	if db.triplets != nil {
		if err := db.triplets.Close(); err != nil {
			db.logger.Error("error closing triplet repository", "err", err)
			return err
		}
	}

	// Close backend
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Initialize loads the ontology sources unless the current data version
// is already stored.
func (db *Database) Initialize(ctx context.Context, sources []ontology.Source, opts ...ingestion.Option) (ingestion.Report, error) {
	opts = append([]ingestion.Option{ingestion.WithLogger(db.logger)}, opts...)
	initializer, err := ingestion.NewInitializer(db.triplets, db.meta, sources, opts...)
	if err != nil {
		return ingestion.Report{}, err
	}
	return initializer.Initialize(ctx)
}

func (db *Database) TripletRepository() storage.TripletRepository {
	return db.triplets
}

func (db *Database) EmbeddingRepository() storage.EmbeddingRepository {
	return db.embeddings
}

func (db *Database) Spells() *repository.SpellRepository {
	return db.spells
}

func (db *Database) Classes() *repository.ClassRepository {
	return db.classes
}

func (db *Database) Races() *repository.RaceRepository {
	return db.races
}

// Bridge returns the semantic bridge, or nil when semantic search is not configured.
func (db *Database) Bridge() *semantic.Bridge {
	return db.bridge
}

func (db *Database) NewEngine(opts ...search.Option) (*search.Engine, error) {
	var ranker search.SemanticRanker
	if db.bridge != nil {
		ranker = db.bridge
	}
	return search.NewEngine(db.spells, ranker, opts...)
}

func (db *Database) NewIndexer(opts ...ingestion.IndexerOption) (*ingestion.Indexer, error) {
	if db.bridge == nil {
		return nil, ErrSemanticDisabled
	}
	return ingestion.NewIndexer(db.spells, db.bridge, opts...)
}

func (db *Database) Stats(ctx context.Context) (ingestion.Stats, error) {
	return ingestion.ReadStats(ctx, db.triplets, db.embeddings, db.meta)
}

// Export serializes every stored triplet.
func (db *Database) Export(ctx context.Context, format ontology.Format) ([]byte, error) {
	triplets, err := db.triplets.All(ctx)
	if err != nil {
		return nil, err
	}
	return ontology.Export(triplets, format)
}

// ClearEmbeddings drops the persisted vectors and the local worker's
// in-memory cache so the next indexing run recomputes them. The triplets
// are kept. A worker child process keeps its own cache until it restarts.
func (db *Database) ClearEmbeddings(ctx context.Context) error {
	if db.worker != nil {
		db.worker.Wait()
	}
	db.logger.Info("clearing embeddings")
	if err := db.embeddings.ClearEmbeddings(ctx); err != nil {
		return err
	}
	if db.worker != nil {
		db.worker.ResetCache()
	}
	return nil
}
