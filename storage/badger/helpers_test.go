package badger

import (
	"testing"

	"github.com/poiesic/spelite/core"
	"github.com/stretchr/testify/require"
)

func numberObject(n float64) core.Object { return core.Number(n) }
func stringObject(s string) core.Object  { return core.String(s) }
func boolObject(b bool) core.Object      { return core.Bool(b) }

func newTestRepos(t *testing.T) *MemoryRepositories {
	t.Helper()
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

func fixtureTriplets() []core.Triplet {
	return []core.Triplet{
		{Subject: "spells:fireball", Predicate: "dnd:index", Object: core.String("fireball")},
		{Subject: "spells:fireball", Predicate: "dnd:level", Object: core.Int(3)},
		{Subject: "spells:fireball", Predicate: "dnd:classes", Object: core.String("wizard")},
		{Subject: "spells:fireball", Predicate: "dnd:classes", Object: core.String("sorcerer")},
		{Subject: "spells:fireball", Predicate: "dnd:ritual", Object: core.Bool(false)},
		{Subject: "spells:fireball", Predicate: "dnd:name", Object: core.String("Fireball"), Language: "en"},
		{Subject: "spells:fireball", Predicate: "dnd:name", Object: core.String("Boule de feu"), Language: "fr"},
		{Subject: "spells:counterspell", Predicate: "dnd:index", Object: core.String("counterspell")},
		{Subject: "spells:counterspell", Predicate: "dnd:level", Object: core.Int(3)},
		{Subject: "spells:counterspell", Predicate: "dnd:classes", Object: core.String("wizard")},
		{Subject: "spells:counterspell", Predicate: "dnd:name", Object: core.String("Counterspell"), Language: "en"},
		{Subject: "classes:wizard", Predicate: "dnd:index", Object: core.String("wizard")},
		{Subject: "classes:wizard", Predicate: "dnd:hit_die", Object: core.Int(6)},
	}
}
