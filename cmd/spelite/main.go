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

package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/spelite/config"
)

const metaConfig = "config"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	dbFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory (default from configuration)",
		}
	}
	langFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:  "lang",
			Usage: "Result language (en, fr)",
		}
	}

	return &cli.App{
		Name:     "spelite",
		Usage:    "Bilingual D&D 5e spell knowledge base",
		Metadata: map[string]any{},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
				EnvVars: []string{config.EnvPrefix + "CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Environment file read before the configuration",
				Value: ".env",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "load",
				Usage:  "Load the ontology documents into the database",
				Action: loadCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:  "data",
						Usage: "Directory holding spells.json, classes.json and races.json",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Reload even when the data version is current",
					},
					&cli.StringFlag{
						Name:  "version",
						Usage: "Data version recorded after loading",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search spells with free text and filters",
				ArgsUsage: "[terms...]",
				Action:    searchCommand,
				Flags: []cli.Flag{
					dbFlag(),
					langFlag(),
					&cli.BoolFlag{Name: "ai", Usage: "Re-rank results with semantic search"},
					&cli.StringFlag{Name: "level", Usage: "Spell level (0-9)"},
					&cli.StringFlag{Name: "class", Usage: "Class index, e.g. wizard"},
					&cli.StringFlag{Name: "school", Usage: "School index, e.g. evocation"},
					&cli.StringFlag{Name: "damage", Usage: "Damage type, e.g. fire"},
					&cli.StringFlag{Name: "save", Usage: "Saving throw ability, e.g. dex"},
					&cli.StringFlag{Name: "action", Usage: "Casting time: action, bonus or reaction"},
					&cli.StringFlag{Name: "ranking", Usage: "Semantic ranking mode (blend, threshold)"},
					&cli.StringFlag{Name: "sort", Usage: "Sort by name, level, range or duration"},
					&cli.BoolFlag{Name: "desc", Usage: "Sort in descending order"},
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of results (0 for all)"},
				},
			},
			{
				Name:   "interactive",
				Usage:  "Read one query per line and print the latest results",
				Action: interactiveCommand,
				Flags: []cli.Flag{
					dbFlag(),
					langFlag(),
					&cli.BoolFlag{Name: "ai", Usage: "Re-rank results with semantic search"},
				},
			},
			{
				Name:      "show",
				Usage:     "Show one spell",
				ArgsUsage: "<index>",
				Action:    showCommand,
				Flags:     []cli.Flag{dbFlag(), langFlag()},
			},
			{
				Name:   "stats",
				Usage:  "Print database statistics",
				Action: statsCommand,
				Flags:  []cli.Flag{dbFlag()},
			},
			{
				Name:   "export",
				Usage:  "Export the stored triplets",
				Action: exportCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format (jsonld, rdfxml)",
						Value: "jsonld",
					},
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Output file (default stdout)",
					},
				},
			},
			{
				Name:   "index",
				Usage:  "Compute embeddings for every spell",
				Action: indexCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringSliceFlag{
						Name:  "lang",
						Usage: "Languages to index (default from configuration)",
					},
				},
			},
			{
				Name:   "clear-embeddings",
				Usage:  "Delete every stored embedding",
				Action: clearEmbeddingsCommand,
				Flags:  []cli.Flag{dbFlag()},
			},
			{
				Name:   "worker",
				Usage:  "Serve embedding requests as JSON lines on stdin and stdout",
				Action: workerCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "cache",
						Usage: "BadgerDB directory for persisted vectors",
					},
				},
			},
		},
	}
}

// setup loads the environment file and the configuration, then installs
// the logger. The configuration is kept in the app metadata.
func setup(c *cli.Context) error {
	if err := loadEnvFile(c.String("env-file"), c.IsSet("env-file")); err != nil {
		return err
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = strings.ToLower(c.String("log-level"))
	}
	c.App.Metadata[metaConfig] = &cfg

	return setupLogger(cfg.LogLevel, c.App.ErrWriter)
}

// loadEnvFile reads path into the environment. A missing default file is
// not an error.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %q: %w", path, err)
	}
	return nil
}

func setupLogger(levelStr string, w io.Writer) error {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level: %s (valid: %s)", levelStr, strings.Join(config.LogLevels, ", "))
	}
	if w == nil {
		w = os.Stderr
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
	return nil
}

// configFrom returns the configuration installed by setup.
func configFrom(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[metaConfig].(*config.Config); ok {
		return cfg
	}
	cfg := config.Default()
	return &cfg
}

func stringOr(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func languagesOr(values, fallback []string) []string {
	if len(values) > 0 {
		return values
	}
	return slices.Clone(fallback)
}
