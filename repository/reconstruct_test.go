package repository

import (
	"testing"

	"github.com/poiesic/spelite/core"
	"github.com/poiesic/spelite/ontology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconstruct_LocalizedFallback(t *testing.T) {
	e := entity{
		{Subject: "spells:x", Predicate: ontology.Name, Object: core.String("Untagged")},
		{Subject: "spells:x", Predicate: ontology.Name, Object: core.String("English"), Language: "en"},
		{Subject: "spells:x", Predicate: ontology.Range, Object: core.String("30 feet")},
	}

	assert.Equal(t, "English", e.localizedText(ontology.Name, "fr"))
	assert.Equal(t, "English", e.localizedText(ontology.Name, "en"))
	assert.Equal(t, "30 feet", e.localizedText(ontology.Range, "fr"))
	assert.Empty(t, e.localizedText(ontology.Duration, "fr"))

	e = append(e, core.Triplet{Subject: "spells:x", Predicate: ontology.Name, Object: core.String("Français"), Language: "fr"})
	assert.Equal(t, "Français", e.localizedText(ontology.Name, "fr"))
}

func TestReconstruct_Booleans(t *testing.T) {
	e := entity{
		{Predicate: ontology.Ritual, Object: core.Int(1)},
		{Predicate: ontology.Concentration, Object: core.Int(0)},
	}
	assert.True(t, e.flag(ontology.Ritual))
	assert.False(t, e.flag(ontology.Concentration))
	assert.False(t, e.flag(ontology.HasSave))
}

func TestReconstruct_RoundTrip(t *testing.T) {
	rec, err := ontology.ParseRecord([]byte(`{
		"@id": "spells:light",
		"index": "light",
		"level": 0,
		"school": "evocation",
		"ritual": false,
		"concentration": false,
		"components": ["V", "M"],
		"classes": ["bard", "cleric"],
		"name": {"en": "Light", "fr": "Lumière"},
		"range": {"en": "Touch", "fr": "Contact"},
		"duration": {"en": "1 hour", "fr": "1 heure"},
		"casting_time": {"en": "1 action", "fr": "1 action"},
		"material": {"en": "A firefly or phosphorescent moss.", "fr": "Une luciole ou de la mousse phosphorescente."},
		"desc": {"en": ["You touch one object.", "The light can be colored."], "fr": ["Vous touchez un objet."]},
		"mechanics": {"has_attack_roll": false, "has_save": true, "save_ability": "dex", "higher_levels": false}
	}`))
	require.NoError(t, err)

	e := entity(ontology.Flatten(rec))
	for _, lang := range []string{"en", "fr"} {
		spell := reconstructSpell(e, lang)
		assert.Equal(t, "light", spell.Index)
		assert.Equal(t, 0, spell.Level)
		assert.Equal(t, "evocation", spell.School)
		assert.Equal(t, rec.Fields["name"].Localized[lang].String(), spell.Name)
		assert.Equal(t, rec.Fields["range"].Localized[lang].String(), spell.Range)
		assert.Equal(t, rec.Fields["duration"].Localized[lang].String(), spell.Duration)
		assert.Equal(t, rec.Fields["material"].Localized[lang].String(), spell.Material)
		assert.Equal(t, rec.Fields["desc"].LocalizedList[lang], spell.Desc)
		assert.Equal(t, []string{"V", "M"}, spell.Components)
		assert.Equal(t, []string{"bard", "cleric"}, spell.Classes)
		assert.False(t, spell.Ritual)
		assert.True(t, spell.Mechanics.HasSave)
		assert.Equal(t, "dex", spell.Mechanics.SaveAbility)
		assert.Nil(t, spell.Mechanics.AreaOfEffect)
	}
}
