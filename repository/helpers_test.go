package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/poiesic/spelite/core"
	"github.com/poiesic/spelite/ontology"
	"github.com/poiesic/spelite/storage/badger"
	"github.com/stretchr/testify/require"
)

func loadFixtures(t *testing.T) *badger.MemoryRepositories {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	var triplets []core.Triplet
	for _, name := range []string{"spells.json", "classes.json", "races.json"} {
		records, err := ontology.FileSource(filepath.Join("..", "testdata", name)).Load()
		require.NoError(t, err)
		triplets = append(triplets, ontology.FlattenGraph(records)...)
	}
	_, err = repos.Triplets.BulkLoad(context.Background(), triplets)
	require.NoError(t, err)
	return repos
}

func newSpells(t *testing.T) *SpellRepository {
	t.Helper()
	spells, err := NewSpellRepository(loadFixtures(t).Triplets)
	require.NoError(t, err)
	return spells
}

func spellIndexes(spells []*core.Spell) []string {
	out := make([]string, 0, len(spells))
	for _, s := range spells {
		out = append(out, s.Index)
	}
	return out
}

func spellNames(spells []*core.Spell) []string {
	out := make([]string, 0, len(spells))
	for _, s := range spells {
		out = append(out, s.Name)
	}
	return out
}
