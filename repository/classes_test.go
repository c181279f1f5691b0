package repository

import (
	"context"
	"testing"

	"github.com/poiesic/spelite/core"
	"github.com/poiesic/spelite/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassRepository(t *testing.T) {
	repos := loadFixtures(t)
	classes, err := NewClassRepository(repos.Triplets)
	require.NoError(t, err)
	ctx := context.Background()

	en, err := classes.GetAll(ctx, core.LangEN)
	require.NoError(t, err)
	require.Len(t, en, 2)
	assert.Equal(t, "Fighter", en[0].Name)
	assert.Equal(t, "Wizard", en[1].Name)

	fr, err := classes.GetAll(ctx, core.LangFR)
	require.NoError(t, err)
	require.Len(t, fr, 2)
	assert.Equal(t, "Guerrier", fr[0].Name)
	assert.Equal(t, "Magicien", fr[1].Name)

	wizard, err := classes.GetByID(ctx, "wizard", core.LangFR)
	require.NoError(t, err)
	assert.Equal(t, &core.Class{Index: "wizard", Name: "Magicien", HitDie: 6, SpellcastingAbility: "int"}, wizard)

	fighter, err := classes.GetByID(ctx, "fighter", core.LangEN)
	require.NoError(t, err)
	assert.Empty(t, fighter.SpellcastingAbility)

	_, err = classes.GetByID(ctx, "elf", core.LangEN)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRaceRepository(t *testing.T) {
	repos := loadFixtures(t)
	races, err := NewRaceRepository(repos.Triplets)
	require.NoError(t, err)
	ctx := context.Background()

	fr, err := races.GetAll(ctx, core.LangFR)
	require.NoError(t, err)
	require.Len(t, fr, 2)
	assert.Equal(t, "Elfe", fr[0].Name)
	assert.Equal(t, "Nain", fr[1].Name)

	dwarf, err := races.GetByID(ctx, "dwarf", core.LangEN)
	require.NoError(t, err)
	assert.Equal(t, &core.Race{Index: "dwarf", Name: "Dwarf"}, dwarf)

	_, err = races.GetByID(ctx, "fireball", core.LangEN)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
