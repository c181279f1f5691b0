package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/poiesic/spelite/core"
	"github.com/poiesic/spelite/ontology"
	"github.com/poiesic/spelite/storage"
)

const (
	// VersionKey is the meta key holding the loaded data version.
	VersionKey = "ontology_version"

	// CurrentVersion identifies the bundled ontology data.
	CurrentVersion = "20260207-v4"
)

// SourceFiles are the documents DirSources looks for, in load order.
var SourceFiles = []string{"spells.json", "classes.json", "races.json"}

// DirSources returns the standard sources found in dir.
func DirSources(dir string) []ontology.Source {
	sources := make([]ontology.Source, len(SourceFiles))
	for i, name := range SourceFiles {
		sources[i] = ontology.FileSource(filepath.Join(dir, name))
	}
	return sources
}

// Report describes one Initialize call.
type Report struct {
	Skipped  bool
	Version  string
	Records  int
	Triplets int
	Duration time.Duration
}

// Initializer loads ontology sources into the triplet store.
type Initializer struct {
	triplets storage.TripletRepository
	meta     storage.MetaRepository
	sources  []ontology.Source
	version  string
	force    bool
	logger   *slog.Logger
}

// Option configures an Initializer.
type Option func(*Initializer) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(i *Initializer) error {
		if logger == nil {
			logger = slog.Default()
		}
		i.logger = logger
		return nil
	}
}

// WithVersion overrides the data version. Default is CurrentVersion.
func WithVersion(version string) Option {
	return func(i *Initializer) error {
		if version == "" {
			return fmt.Errorf("data version must not be empty")
		}
		i.version = version
		return nil
	}
}

// WithForce reloads even when the stored version matches.
func WithForce(force bool) Option {
	return func(i *Initializer) error {
		i.force = force
		return nil
	}
}

// NewInitializer creates an initializer over the given sources.
func NewInitializer(
	triplets storage.TripletRepository,
	meta storage.MetaRepository,
	sources []ontology.Source,
	opts ...Option,
) (*Initializer, error) {
	if triplets == nil {
		return nil, ErrTripletRepositoryRequired
	}
	if meta == nil {
		return nil, ErrMetaRepositoryRequired
	}
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	i := &Initializer{
		triplets: triplets,
		meta:     meta,
		sources:  sources,
		version:  CurrentVersion,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, err
		}
	}
	i.logger = i.logger.With("component", "initializer")
	return i, nil
}

// Initialize makes sure the store holds the current data version.
func (i *Initializer) Initialize(ctx context.Context) (Report, error) {
	start := time.Now()
	report := Report{Version: i.version}

	if !i.force {
		current, err := i.upToDate(ctx)
		if err != nil {
			return report, fmt.Errorf("%w: %w", ErrInitialization, err)
		}
		if current {
			i.logger.Info("knowledge base already initialized", "version", i.version)
			report.Skipped = true
			report.Duration = time.Since(start)
			return report, nil
		}
	}

	i.logger.Info("loading knowledge base", "version", i.version, "sources", len(i.sources))

	// Parse every source before touching the store
	graphs := make([][]ontology.Record, len(i.sources))
	g, gctx := errgroup.WithContext(ctx)
	for n, src := range i.sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records, err := src.Load()
			if err != nil {
				return err
			}
			graphs[n] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		i.logger.Error("failed to read ontology sources", "err", err)
		return report, fmt.Errorf("%w: %w", ErrInitialization, err)
	}

	var triplets []core.Triplet
	for _, records := range graphs {
		report.Records += len(records)
		triplets = append(triplets, ontology.FlattenGraph(records)...)
	}

	// Drop the marker first so an interrupted load is retried
	if err := i.meta.DeleteMeta(ctx, VersionKey); err != nil {
		return report, fmt.Errorf("%w: reset version: %w", ErrInitialization, err)
	}
	if err := i.triplets.Clear(ctx); err != nil {
		return report, fmt.Errorf("%w: clear: %w", ErrInitialization, err)
	}
	written, err := i.triplets.BulkLoad(ctx, triplets)
	if err != nil {
		i.logger.Error("bulk load failed", "triplets", len(triplets), "err", err)
		return report, fmt.Errorf("%w: bulk load: %w", ErrInitialization, err)
	}
	if err := i.meta.SetMeta(ctx, VersionKey, i.version); err != nil {
		return report, fmt.Errorf("%w: record version: %w", ErrInitialization, err)
	}

	report.Triplets = written
	report.Duration = time.Since(start)
	i.logger.Info("knowledge base loaded", "records", report.Records, "triplets", written, "duration", report.Duration)
	return report, nil
}

func (i *Initializer) upToDate(ctx context.Context) (bool, error) {
	stored, ok, err := i.meta.GetMeta(ctx, VersionKey)
	if err != nil {
		return false, err
	}
	if !ok || stored != i.version {
		return false, nil
	}
	count, err := i.triplets.CountTriplets(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
