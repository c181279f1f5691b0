// Package config loads spelite settings from an optional YAML file and
// SPELITE_ environment variables. The environment wins over the file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/poiesic/spelite/ai"
	"github.com/poiesic/spelite/core"
	"github.com/poiesic/spelite/search"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "SPELITE_"

// Worker modes.
const (
	WorkerLocal   = "local"
	WorkerProcess = "process"
)

// LogLevels are the accepted log_level values.
var LogLevels = []string{"debug", "info", "warn", "error"}

// Config is the complete application configuration.
type Config struct {
	LogLevel string         `yaml:"log_level" env:"LOG_LEVEL"`
	Database DatabaseConfig `yaml:"database" envPrefix:"DB_"`
	AI       AIConfig       `yaml:"ai" envPrefix:"AI_"`
	Search   SearchConfig   `yaml:"search" envPrefix:"SEARCH_"`
	Worker   WorkerConfig   `yaml:"worker" envPrefix:"WORKER_"`
}

// DatabaseConfig locates the store and the ontology documents.
type DatabaseConfig struct {
	Path    string `yaml:"path" env:"PATH"`
	DataDir string `yaml:"data_dir" env:"DATA_DIR"`
}

// AIConfig configures the embedding model.
type AIConfig struct {
	Enabled        bool   `yaml:"enabled" env:"ENABLED"`
	EmbeddingHost  string `yaml:"embedding_host" env:"EMBEDDING_HOST"`
	EmbeddingModel string `yaml:"embedding_model" env:"EMBEDDING_MODEL"`
	Dimensions     int    `yaml:"dimensions" env:"DIMENSIONS"`
}

// SearchConfig tunes the search engine.
type SearchConfig struct {
	Language        string        `yaml:"language" env:"LANGUAGE"`
	Ranking         string        `yaml:"ranking" env:"RANKING"`
	LexicalWeight   float64       `yaml:"lexical_weight" env:"LEXICAL_WEIGHT"`
	SemanticWeight  float64       `yaml:"semantic_weight" env:"SEMANTIC_WEIGHT"`
	SemanticTimeout time.Duration `yaml:"semantic_timeout" env:"SEMANTIC_TIMEOUT"`
	Debounce        time.Duration `yaml:"debounce" env:"DEBOUNCE"`
}

// WorkerConfig selects where embeddings are computed.
type WorkerConfig struct {
	// Mode is "local" (a locked OS thread in this process) or "process"
	// (a child running Command).
	Mode      string   `yaml:"mode" env:"MODE"`
	Command   []string `yaml:"command" env:"COMMAND" envSeparator:" "`
	BatchSize int      `yaml:"batch_size" env:"BATCH_SIZE"`
	Languages []string `yaml:"languages" env:"LANGUAGES" envSeparator:","`
}

// Default returns the built-in configuration.
func Default() Config {
	aiDefaults := ai.DefaultConfig()
	return Config{
		LogLevel: "info",
		Database: DatabaseConfig{
			Path:    "spelite.db",
			DataDir: "data",
		},
		AI: AIConfig{
			EmbeddingHost:  aiDefaults.EmbeddingHost,
			EmbeddingModel: aiDefaults.EmbeddingModel,
			Dimensions:     aiDefaults.Dimensions,
		},
		Search: SearchConfig{
			Language:        core.DefaultLanguage,
			Ranking:         search.RankBlend.String(),
			LexicalWeight:   0.7,
			SemanticWeight:  0.3,
			SemanticTimeout: 10 * time.Second,
			Debounce:        300 * time.Millisecond,
		},
		Worker: WorkerConfig{
			Mode:      WorkerLocal,
			BatchSize: 16,
			Languages: []string{core.LangEN, core.LangFR},
		},
	}
}

// Load reads the YAML file at path over the defaults, applies the
// environment and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: open %q: %w", path, err)
		}
		defer f.Close()
		if err := decode(f, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r over the defaults and validates the
// result. The environment is not consulted.
func LoadFromReader(r io.Reader) (Config, error) {
	cfg := Default()
	if err := decode(r, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: decode yaml: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	return nil
}

// Validate checks that c contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func (c Config) Validate() error {
	var errs []error

	if !slices.Contains(LogLevels, c.LogLevel) {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", c.LogLevel))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.AI.Enabled {
		if err := c.AIProviderConfig().Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := core.ParseLanguage(c.Search.Language); err != nil {
		errs = append(errs, fmt.Errorf("search.language %q: %w", c.Search.Language, err))
	}
	if _, err := search.ParseRankingMode(c.Search.Ranking); err != nil {
		errs = append(errs, fmt.Errorf("search.ranking: %w", err))
	}
	if c.Search.LexicalWeight < 0 || c.Search.SemanticWeight < 0 || c.Search.LexicalWeight+c.Search.SemanticWeight == 0 {
		errs = append(errs, errors.New("search weights must be non-negative and not both zero"))
	}
	if c.Search.SemanticTimeout < 0 {
		errs = append(errs, errors.New("search.semantic_timeout must not be negative"))
	}
	if c.Search.Debounce < 0 {
		errs = append(errs, errors.New("search.debounce must not be negative"))
	}
	switch c.Worker.Mode {
	case WorkerLocal:
	case WorkerProcess:
		if len(c.Worker.Command) == 0 {
			errs = append(errs, errors.New("worker.command is required in process mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("worker.mode %q is invalid; valid values: local, process", c.Worker.Mode))
	}
	if c.Worker.BatchSize < 1 {
		errs = append(errs, errors.New("worker.batch_size must be positive"))
	}
	for _, lang := range c.Worker.Languages {
		if _, err := core.ParseLanguage(lang); err != nil {
			errs = append(errs, fmt.Errorf("worker.languages %q: %w", lang, err))
		}
	}

	return errors.Join(errs...)
}

// AIProviderConfig builds the embedding provider configuration.
func (c Config) AIProviderConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithDimensions(c.AI.Dimensions),
	)
}

// RankingMode returns the parsed ranking mode. Call after Validate.
func (c Config) RankingMode() search.RankingMode {
	mode, _ := search.ParseRankingMode(c.Search.Ranking)
	return mode
}
