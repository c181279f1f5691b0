package main

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/spelite/ingestion"
	"github.com/poiesic/spelite/ontology"
	"github.com/poiesic/spelite/storage"
)

var testdataDir = filepath.Join("..", "..", "testdata")

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	app.Reader = strings.NewReader(stdin)
	err := app.Run(append([]string{"spelite", "--log-level", "error"}, args...))
	return out.String(), err
}

func loadedDB(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := run(t, "", "load", "--db", dir, "--data", testdataDir)
	require.NoError(t, err)
	return dir
}

func TestCommandsRegistered(t *testing.T) {
	app := newApp()
	var names []string
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	assert.ElementsMatch(t, []string{
		"load", "search", "interactive", "show", "stats",
		"export", "index", "clear-embeddings", "worker",
	}, names)
}

func TestGlobalFlags(t *testing.T) {
	t.Run("invalid log level", func(t *testing.T) {
		_, err := run(t, "", "--log-level", "loud", "stats", "--db", t.TempDir())
		assert.Error(t, err)
	})

	t.Run("missing config file", func(t *testing.T) {
		_, err := run(t, "", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "stats", "--db", t.TempDir())
		assert.Error(t, err)
	})

	t.Run("explicit env file must exist", func(t *testing.T) {
		_, err := run(t, "", "--env-file", filepath.Join(t.TempDir(), "missing.env"), "stats", "--db", t.TempDir())
		assert.Error(t, err)
	})
}

func TestLoadCommand(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "", "load", "--db", dir, "--data", testdataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 9 records")
	assert.Contains(t, out, ingestion.CurrentVersion)

	out, err = run(t, "", "load", "--db", dir, "--data", testdataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "is current")

	out, err = run(t, "", "load", "--db", dir, "--data", testdataDir, "--force", "--version", "test-v2")
	require.NoError(t, err)
	assert.Contains(t, out, "version test-v2")

	_, err = run(t, "", "load", "--db", t.TempDir(), "--data", t.TempDir())
	assert.ErrorIs(t, err, ingestion.ErrInitialization)
}

func TestStatsCommand(t *testing.T) {
	dir := loadedDB(t)

	out, err := run(t, "", "stats", "--db", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Data version: "+ingestion.CurrentVersion)
	assert.Contains(t, out, "Embeddings:   0")

	out, err = run(t, "", "stats", "--db", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "Data version: "+ingestion.UnknownVersion)
}

func TestSearchCommand(t *testing.T) {
	dir := loadedDB(t)

	t.Run("french free text", func(t *testing.T) {
		out, err := run(t, "", "search", "--db", dir, "--lang", "fr", "boule", "feu")
		require.NoError(t, err)
		assert.Contains(t, out, "Boule de feu")
		assert.NotContains(t, out, "counterspell")
	})

	t.Run("filters", func(t *testing.T) {
		out, err := run(t, "", "search", "--db", dir, "--level", "1", "--class", "cleric")
		require.NoError(t, err)
		assert.Contains(t, out, "cure-wounds")
		assert.Contains(t, out, "detect-magic")
		assert.Contains(t, out, "shield-of-faith")
		assert.NotContains(t, out, "fireball")
	})

	t.Run("sort and limit", func(t *testing.T) {
		out, err := run(t, "", "search", "--db", dir, "--sort", "level", "--desc", "--limit", "1")
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 1)
		assert.Contains(t, lines[0], "level 3")
	})

	t.Run("no results", func(t *testing.T) {
		out, err := run(t, "", "search", "--db", dir, "zzzz")
		require.NoError(t, err)
		assert.Contains(t, out, "No spells found")
	})

	t.Run("invalid options", func(t *testing.T) {
		_, err := run(t, "", "search", "--db", dir, "--lang", "de", "fire")
		assert.Error(t, err)

		_, err = run(t, "", "search", "--db", dir, "--ranking", "random", "fire")
		assert.Error(t, err)

		_, err = run(t, "", "search", "--db", dir, "--sort", "color", "fire")
		assert.Error(t, err)
	})
}

func TestInteractiveCommand(t *testing.T) {
	dir := loadedDB(t)

	out, err := run(t, "fire\n\nboule de feu\n", "interactive", "--db", dir, "--lang", "fr")
	require.NoError(t, err)
	assert.Contains(t, out, `[2] "boule de feu"`)
	assert.Contains(t, out, "Boule de feu")
	assert.NotContains(t, out, "[1]")

	out, err = run(t, "", "interactive", "--db", dir)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestShowCommand(t *testing.T) {
	dir := loadedDB(t)

	out, err := run(t, "", "show", "--db", dir, "fireball")
	require.NoError(t, err)
	assert.Contains(t, out, "Fireball (fireball)")
	assert.Contains(t, out, "level 3 evocation")
	assert.Contains(t, out, "wizard")

	out, err = run(t, "", "show", "--db", dir, "--lang", "fr", "fireball")
	require.NoError(t, err)
	assert.Contains(t, out, "Boule de feu (fireball)")

	_, err = run(t, "", "show", "--db", dir)
	assert.Error(t, err)

	_, err = run(t, "", "show", "--db", dir, "wish")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestExportCommand(t *testing.T) {
	dir := loadedDB(t)

	out, err := run(t, "", "export", "--db", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "@graph")

	out, err = run(t, "", "export", "--db", dir, "--format", "rdfxml")
	require.NoError(t, err)
	assert.Contains(t, out, "rdf:RDF")

	file := filepath.Join(t.TempDir(), "out.jsonld")
	out, err = run(t, "", "export", "--db", dir, "--out", file)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.FileExists(t, file)

	_, err = run(t, "", "export", "--db", dir, "--format", "turtle")
	assert.ErrorIs(t, err, ontology.ErrUnknownFormat)
}

func TestClearEmbeddingsCommand(t *testing.T) {
	dir := loadedDB(t)

	out, err := run(t, "", "clear-embeddings", "--db", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Embeddings cleared")
}

func TestWorkerCommandPing(t *testing.T) {
	out, err := run(t, `{"id":"p1","type":"PING"}`+"\n", "worker")
	require.NoError(t, err)
	assert.Contains(t, out, `"id":"p1"`)
	assert.Contains(t, out, `"type":"PONG"`)
}
