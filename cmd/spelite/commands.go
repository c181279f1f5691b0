package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/spelite"
	"github.com/poiesic/spelite/ai/openai"
	"github.com/poiesic/spelite/config"
	"github.com/poiesic/spelite/core"
	"github.com/poiesic/spelite/ingestion"
	"github.com/poiesic/spelite/ontology"
	"github.com/poiesic/spelite/repository"
	"github.com/poiesic/spelite/search"
	"github.com/poiesic/spelite/semantic"
	"github.com/poiesic/spelite/storage/badger"
)

// suggestionLimit bounds the "did you mean" list printed for empty results.
const suggestionLimit = 3

func openDatabase(c *cli.Context, cfg *config.Config, withSemantic bool) (*spelite.Database, error) {
	opts := []spelite.DatabaseOption{spelite.WithLogger(slog.Default())}
	if withSemantic {
		if cfg.Worker.Mode == config.WorkerProcess {
			opts = append(opts, spelite.WithWorkerCommand(cfg.Worker.Command[0], cfg.Worker.Command[1:]...))
		} else {
			opts = append(opts, spelite.WithAIConfig(cfg.AIProviderConfig()))
		}
	}

	path := stringOr(c.String("db"), cfg.Database.Path)
	db, err := spelite.NewDatabase(path, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func loadCommand(c *cli.Context) error {
	cfg := configFrom(c)
	db, err := openDatabase(c, cfg, false)
	if err != nil {
		return err
	}
	defer db.Close()

	opts := []ingestion.Option{
		ingestion.WithLogger(slog.Default()),
		ingestion.WithForce(c.Bool("force")),
	}
	if version := c.String("version"); version != "" {
		opts = append(opts, ingestion.WithVersion(version))
	}

	dataDir := stringOr(c.String("data"), cfg.Database.DataDir)
	report, err := db.Initialize(c.Context, ingestion.DirSources(dataDir), opts...)
	if err != nil {
		return err
	}

	w := c.App.Writer
	if report.Skipped {
		fmt.Fprintf(w, "Data version %s is current, nothing to load\n", report.Version)
		return nil
	}
	fmt.Fprintf(w, "Loaded %s records (%s triplets), version %s, in %s\n",
		humanize.Comma(int64(report.Records)),
		humanize.Comma(int64(report.Triplets)),
		report.Version,
		report.Duration.Round(time.Millisecond))
	return nil
}

// searchEnv is what the search commands share: an open database, an engine
// and the semantic state reached while preparing it.
type searchEnv struct {
	db        *spelite.Database
	engine    *search.Engine
	lang      string
	aiEnabled bool
	ready     bool
	indexed   bool
}

func (e *searchEnv) params(term string, filters search.UIFilters) search.Params {
	return search.Params{
		SearchTerm:       term,
		Filters:          filters,
		AISearchEnabled:  e.aiEnabled,
		ModelReady:       e.ready,
		IndexingComplete: e.indexed,
		Language:         e.lang,
	}
}

func openSearch(c *cli.Context, cfg *config.Config) (*searchEnv, error) {
	lang, err := core.ParseLanguage(stringOr(c.String("lang"), cfg.Search.Language))
	if err != nil {
		return nil, fmt.Errorf("invalid language %q: %w", c.String("lang"), err)
	}

	mode := cfg.RankingMode()
	if c.IsSet("ranking") {
		if mode, err = search.ParseRankingMode(c.String("ranking")); err != nil {
			return nil, err
		}
	}

	env := &searchEnv{lang: lang, aiEnabled: cfg.AI.Enabled || c.Bool("ai")}
	if env.db, err = openDatabase(c, cfg, env.aiEnabled); err != nil {
		return nil, err
	}

	env.engine, err = env.db.NewEngine(
		search.WithLogger(slog.Default()),
		search.WithHybridWeights(cfg.Search.LexicalWeight, cfg.Search.SemanticWeight),
		search.WithRankingMode(mode),
		search.WithSemanticTimeout(cfg.Search.SemanticTimeout),
	)
	if err != nil {
		env.db.Close()
		return nil, err
	}

	if env.aiEnabled {
		// Structured search still works without the model
		ready, indexed, err := prepareSemantic(c, cfg, env.db, []string{lang})
		if err != nil {
			slog.Warn("semantic search unavailable", "err", err)
		}
		env.ready, env.indexed = ready, indexed
	}
	return env, nil
}

// prepareSemantic loads the model and indexes every spell in langs.
// It reports whether the model is ready and whether indexing completed.
func prepareSemantic(c *cli.Context, cfg *config.Config, db *spelite.Database, langs []string) (bool, bool, error) {
	bridge := db.Bridge()
	if bridge == nil {
		return false, false, spelite.ErrSemanticDisabled
	}

	errw := c.App.ErrWriter
	bridge.SetProgressCallback(func(p semantic.Progress) {
		if p.Status == semantic.StatusReady {
			fmt.Fprintln(errw, "Model ready")
			return
		}
		fmt.Fprintf(errw, "Loading model: %.0f%%\n", p.Percent)
	})
	if _, err := bridge.InitModel(c.Context); err != nil {
		return false, false, err
	}
	bridge.SetProgressCallback(nil)

	indexer, err := db.NewIndexer(
		ingestion.WithLanguages(langs...),
		ingestion.WithBatchSize(cfg.Worker.BatchSize),
		ingestion.WithProgressOutput(errw),
		ingestion.WithIndexerLogger(slog.Default()),
	)
	if err != nil {
		return true, false, err
	}
	defer indexer.Close()

	if _, err := indexer.Run(c.Context); err != nil {
		return bridge.Ready(), false, err
	}
	return bridge.Ready(), indexer.Complete(), nil
}

func searchCommand(c *cli.Context) error {
	cfg := configFrom(c)
	env, err := openSearch(c, cfg)
	if err != nil {
		return err
	}
	defer env.db.Close()

	term := strings.Join(c.Args().Slice(), " ")
	filters := search.UIFilters{
		Level:       c.String("level"),
		Class:       c.String("class"),
		School:      c.String("school"),
		DamageType:  c.String("damage"),
		SaveAbility: c.String("save"),
		ActionType:  c.String("action"),
	}

	spells, err := env.engine.Search(c.Context, env.params(term, filters))
	if err != nil {
		return err
	}

	if by := c.String("sort"); by != "" {
		order := repository.Ascending
		if c.Bool("desc") {
			order = repository.Descending
		}
		if err := repository.Sort(spells, repository.SortOption(by), order, env.lang); err != nil {
			return err
		}
	}
	if limit := c.Int("limit"); limit > 0 && len(spells) > limit {
		spells = spells[:limit]
	}

	w := c.App.Writer
	if len(spells) == 0 {
		fmt.Fprintln(w, "No spells found")
		return printSuggestions(c.Context, w, env, term)
	}
	printSpells(w, spells)
	return nil
}

func printSuggestions(ctx context.Context, w io.Writer, env *searchEnv, term string) error {
	if strings.TrimSpace(term) == "" {
		return nil
	}
	suggestions, err := env.db.Spells().Suggest(ctx, term, env.lang, suggestionLimit)
	if err != nil {
		return err
	}
	if len(suggestions) == 0 {
		return nil
	}
	names := make([]string, len(suggestions))
	for i, s := range suggestions {
		names[i] = s.Name
	}
	fmt.Fprintf(w, "Did you mean: %s?\n", strings.Join(names, ", "))
	return nil
}

// interactiveCommand feeds each input line to a debounced session. Only the
// result of the newest line is printed once typing pauses.
func interactiveCommand(c *cli.Context) error {
	cfg := configFrom(c)
	env, err := openSearch(c, cfg)
	if err != nil {
		return err
	}
	defer env.db.Close()

	w := c.App.Writer
	var out sync.Mutex
	published := make(chan uint64)
	session := search.NewSession(env.engine,
		search.WithDebounce(cfg.Search.Debounce),
		search.WithSessionLogger(slog.Default()),
		search.OnResult(func(r search.Result) {
			out.Lock()
			if r.Err != nil {
				fmt.Fprintf(w, "[%d] error: %v\n", r.Seq, r.Err)
			} else {
				fmt.Fprintf(w, "[%d] %q: %d spells\n", r.Seq, r.Params.SearchTerm, len(r.Spells))
				printSpells(w, r.Spells)
			}
			out.Unlock()
			published <- r.Seq
		}),
	)

	var last uint64
	scanner := bufio.NewScanner(c.App.Reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if last, err = session.Submit(env.params(line, search.UIFilters{})); err != nil {
			break
		}
	}
	if err == nil {
		err = scanner.Err()
	}

	if err == nil && last > 0 {
		session.Flush()
	wait:
		for {
			select {
			case seq := <-published:
				if seq == last {
					break wait
				}
			case <-c.Context.Done():
				err = c.Context.Err()
				break wait
			}
		}
	}

	// Unblock any callback still sending while the session shuts down
	go func() {
		for range published {
		}
	}()
	session.Close()
	close(published)
	return err
}

func showCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one spell index, got %d", c.NArg())
	}

	cfg := configFrom(c)
	lang, err := core.ParseLanguage(stringOr(c.String("lang"), cfg.Search.Language))
	if err != nil {
		return fmt.Errorf("invalid language %q: %w", c.String("lang"), err)
	}

	db, err := openDatabase(c, cfg, false)
	if err != nil {
		return err
	}
	defer db.Close()

	spell, err := db.Spells().GetByID(c.Context, c.Args().First(), lang)
	if err != nil {
		return err
	}
	printSpell(c.App.Writer, spell)
	return nil
}

func statsCommand(c *cli.Context) error {
	db, err := openDatabase(c, configFrom(c), false)
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := db.Stats(c.Context)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Triplets:     %s\n", humanize.Comma(int64(stats.Triplets)))
	fmt.Fprintf(w, "Embeddings:   %s\n", humanize.Comma(int64(stats.Embeddings)))
	fmt.Fprintf(w, "Data version: %s\n", stats.DataVersion)
	return nil
}

func exportCommand(c *cli.Context) error {
	format := ontology.Format(strings.ToLower(c.String("format")))
	if format != ontology.FormatJSONLD && format != ontology.FormatRDFXML {
		return fmt.Errorf("%w: %q", ontology.ErrUnknownFormat, c.String("format"))
	}

	db, err := openDatabase(c, configFrom(c), false)
	if err != nil {
		return err
	}
	defer db.Close()

	data, err := db.Export(c.Context, format)
	if err != nil {
		return err
	}

	path := c.String("out")
	if path == "" {
		_, err = c.App.Writer.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	slog.Info("export written", "path", path, "format", format, "size", humanize.Bytes(uint64(len(data))))
	return nil
}

func indexCommand(c *cli.Context) error {
	cfg := configFrom(c)
	db, err := openDatabase(c, cfg, true)
	if err != nil {
		return err
	}
	defer db.Close()

	langs := languagesOr(c.StringSlice("lang"), cfg.Worker.Languages)
	ready, indexed, err := prepareSemantic(c, cfg, db, langs)
	if err != nil {
		return err
	}
	if !ready || !indexed {
		return fmt.Errorf("indexing incomplete (model ready: %t)", ready)
	}

	stats, err := db.Stats(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Indexed %s languages, %s embeddings stored\n",
		strings.Join(langs, "+"), humanize.Comma(int64(stats.Embeddings)))
	return nil
}

func clearEmbeddingsCommand(c *cli.Context) error {
	db, err := openDatabase(c, configFrom(c), false)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.ClearEmbeddings(c.Context); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "Embeddings cleared")
	return nil
}

// workerCommand runs the embedding worker as a child process of another
// spelite instance. Logs go to stderr; stdout carries the protocol.
func workerCommand(c *cli.Context) error {
	cfg := configFrom(c)

	provider, err := openai.NewProvider(cfg.AIProviderConfig())
	if err != nil {
		return fmt.Errorf("failed to create AI provider: %w", err)
	}
	defer provider.Close()

	opts := []semantic.WorkerOption{
		semantic.WithWorkerLogger(slog.Default()),
		semantic.WithBatchSize(cfg.Worker.BatchSize),
	}
	if path := c.String("cache"); path != "" {
		backend, err := badger.OpenBackend(path, false, slog.Default())
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		defer backend.Close()

		store, err := badger.NewEmbeddingRepository(backend)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, semantic.WithStore(store))
	}

	worker, err := semantic.NewWorker(provider.Embedder(), opts...)
	if err != nil {
		return err
	}
	defer worker.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("embedding worker started", "model", cfg.AI.EmbeddingModel)
	return semantic.Serve(ctx, worker, c.App.Reader, c.App.Writer)
}
