package ingestion

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/spelite/core"
)

const (
	defaultIndexBatchSize = 16
	defaultIndexPoolSize  = 2
)

// SpellLister lists every spell in a language.
type SpellLister interface {
	GetAll(ctx context.Context, lang string) ([]*core.Spell, error)
}

// SemanticIndex precomputes document vectors. *semantic.Bridge implements it.
type SemanticIndex interface {
	Index(ctx context.Context, documents []string) error
}

// Indexer warms the embedding cache with every spell's semantic document.
type Indexer struct {
	spells    SpellLister
	index     SemanticIndex
	languages []string
	batchSize int
	pool      *ants.Pool
	output    io.Writer
	logger    *slog.Logger

	mu      sync.Mutex
	tracker *ProgressTracker
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer) error

// WithLanguages sets the languages to index. Default is English and French.
func WithLanguages(langs ...string) IndexerOption {
	return func(x *Indexer) error {
		if len(langs) == 0 {
			return fmt.Errorf("at least one language is required")
		}
		for _, lang := range langs {
			if _, err := core.ParseLanguage(lang); err != nil {
				return fmt.Errorf("%w: %q", err, lang)
			}
		}
		x.languages = langs
		return nil
	}
}

// WithBatchSize sets how many documents are sent per Index call. Default is 16.
func WithBatchSize(size int) IndexerOption {
	return func(x *Indexer) error {
		if size < 1 {
			size = 1
		}
		x.batchSize = size
		return nil
	}
}

// WithPoolSize sets how many batches are in flight at once. Default is 2.
func WithPoolSize(size int) IndexerOption {
	return func(x *Indexer) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if x.pool != nil {
			x.pool.Release()
		}
		x.pool = pool
		return nil
	}
}

// WithProgressOutput writes a progress line to w while indexing.
// Default is io.Discard.
func WithProgressOutput(w io.Writer) IndexerOption {
	return func(x *Indexer) error {
		if w == nil {
			w = io.Discard
		}
		x.output = w
		return nil
	}
}

// WithIndexerLogger sets a custom logger.
// Default is slog.Default().
func WithIndexerLogger(logger *slog.Logger) IndexerOption {
	return func(x *Indexer) error {
		if logger == nil {
			logger = slog.Default()
		}
		x.logger = logger
		return nil
	}
}

// NewIndexer creates an indexer. Release it with Close.
func NewIndexer(spells SpellLister, index SemanticIndex, opts ...IndexerOption) (*Indexer, error) {
	if spells == nil {
		return nil, ErrSpellRepositoryRequired
	}
	if index == nil {
		return nil, ErrSemanticIndexRequired
	}

	pool, err := ants.NewPool(defaultIndexPoolSize)
	if err != nil {
		return nil, err
	}

	x := &Indexer{
		spells:    spells,
		index:     index,
		languages: []string{core.LangEN, core.LangFR},
		batchSize: defaultIndexBatchSize,
		pool:      pool,
		output:    io.Discard,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(x); err != nil {
			x.pool.Release()
			return nil, err
		}
	}
	x.logger = x.logger.With("component", "indexer")
	return x, nil
}

// Run indexes every spell document and returns how many distinct
// documents were sent.
func (x *Indexer) Run(ctx context.Context) (int, error) {
	documents, err := x.documents(ctx)
	if err != nil {
		return 0, err
	}

	tracker := NewProgressTracker(x.output, len(documents), x.batchSize)
	x.mu.Lock()
	x.tracker = tracker
	x.mu.Unlock()

	tracker.Start()
	x.logger.Info("indexing semantic documents", "documents", len(documents), "languages", x.languages)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for start := 0; start < len(documents); start += x.batchSize {
		if ctx.Err() != nil {
			break
		}
		batch := documents[start:min(start+x.batchSize, len(documents))]
		wg.Add(1)
		err := x.pool.Submit(func() {
			defer wg.Done()
			if err := x.index.Index(ctx, batch); err != nil {
				fail(err)
				return
			}
			tracker.Increment(len(batch))
		})
		if err != nil {
			wg.Done()
			fail(err)
		}
	}
	wg.Wait()

	if firstErr != nil {
		x.logger.Error("indexing failed", "err", firstErr)
		return 0, fmt.Errorf("index documents: %w", firstErr)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	tracker.Finish()
	x.logger.Info("indexing complete", "documents", len(documents), "elapsed", tracker.Elapsed())
	return len(documents), nil
}

// documents collects the distinct semantic documents of every language.
func (x *Indexer) documents(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, lang := range x.languages {
		spells, err := x.spells.GetAll(ctx, lang)
		if err != nil {
			return nil, fmt.Errorf("list %s spells: %w", lang, err)
		}
		for _, spell := range spells {
			doc := spell.SemanticDocument()
			if !seen[doc] {
				seen[doc] = true
				out = append(out, doc)
			}
		}
	}
	return out, nil
}

// Progress returns the percentage of the current or last run.
func (x *Indexer) Progress() float64 {
	x.mu.Lock()
	tracker := x.tracker
	x.mu.Unlock()
	if tracker == nil {
		return 0
	}
	return tracker.Percent()
}

// Complete reports whether the last run finished successfully.
func (x *Indexer) Complete() bool {
	x.mu.Lock()
	tracker := x.tracker
	x.mu.Unlock()
	return tracker != nil && tracker.Complete()
}

// Close releases the worker pool.
func (x *Indexer) Close() {
	x.pool.Release()
}
