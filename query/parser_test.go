package query

import (
	"testing"

	"github.com/poiesic/spelite/core"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	yes, no := core.BoolPtr(true), core.BoolPtr(false)

	tests := []struct {
		name  string
		input string
		want  core.SearchQuery
	}{
		{
			name:  "empty",
			input: "",
			want:  core.SearchQuery{},
		},
		{
			name:  "unknown words are text",
			input: "fireball",
			want:  core.SearchQuery{Text: "fireball"},
		},
		{
			name:  "english levels",
			input: "cantrip level 3",
			want:  core.SearchQuery{Filters: core.Filters{Level: []int{0, 3}}},
		},
		{
			name:  "french levels with filler",
			input: "tour de magie niveau 5",
			want:  core.SearchQuery{Text: "magie", Filters: core.Filters{Level: []int{0, 5}}},
		},
		{
			name:  "level placeholder without digit",
			input: "level fireball",
			want:  core.SearchQuery{Text: "fireball"},
		},
		{
			name:  "level placeholder takes one digit only",
			input: "niveau 10",
			want:  core.SearchQuery{Text: "10"},
		},
		{
			name:  "bare digit",
			input: "7",
			want:  core.SearchQuery{Filters: core.Filters{Level: []int{7}}},
		},
		{
			name:  "classes in both languages",
			input: "wizard magicien clerc",
			want:  core.SearchQuery{Filters: core.Filters{Class: []string{"wizard", "cleric"}}},
		},
		{
			name:  "damage types",
			input: "fire damage acide",
			want:  core.SearchQuery{Text: "damage", Filters: core.Filters{DamageType: []string{"fire", "acid"}}},
		},
		{
			name:  "negated traits",
			input: "sans rituel no concentration",
			want:  core.SearchQuery{Filters: core.Filters{Ritual: no, Concentration: no}},
		},
		{
			name:  "traits",
			input: "rituel conc",
			want:  core.SearchQuery{Filters: core.Filters{Ritual: yes, Concentration: yes}},
		},
		{
			name:  "prompts with filler and negation",
			input: "jet d'attaque sans sauvegarde",
			want:  core.SearchQuery{Filters: core.Filters{HasAttack: yes, HasSave: no}},
		},
		{
			name:  "typographic apostrophe",
			input: "jet d’attaque",
			want:  core.SearchQuery{Filters: core.Filters{HasAttack: yes, HasSave: yes}},
		},
		{
			name:  "negation survives filler words",
			input: "sans jet de sauvegarde",
			want:  core.SearchQuery{Filters: core.Filters{HasSave: no}},
		},
		{
			name:  "prompt does not flip an earlier negation",
			input: "no save attack",
			want:  core.SearchQuery{Filters: core.Filters{HasSave: no, HasAttack: no}},
		},
		{
			name:  "negation cleared by unknown word",
			input: "sans boule rituel",
			want:  core.SearchQuery{Text: "boule", Filters: core.Filters{Ritual: yes}},
		},
		{
			name:  "ability save implies a save",
			input: "sagesse",
			want:  core.SearchQuery{Filters: core.Filters{SaveAbility: []string{"wis"}, HasSave: yes}},
		},
		{
			name:  "accents",
			input: "école évocation",
			want:  core.SearchQuery{Text: "ecole", Filters: core.Filters{School: []string{"evocation"}}},
		},
		{
			name:  "commas and case",
			input: "Boule, de FEU",
			want:  core.SearchQuery{Text: "boule", Filters: core.Filters{DamageType: []string{"fire"}}},
		},
		{
			name:  "mixed intent",
			input: "wizard level 3 fireball",
			want:  core.SearchQuery{Text: "fireball", Filters: core.Filters{Class: []string{"wizard"}, Level: []int{3}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.input))
		})
	}
}

func TestLookup(t *testing.T) {
	e, ok := Lookup("necromancie")
	assert.True(t, ok)
	assert.Equal(t, Entry{Type: TypeSchool, Value: "necromancy"}, e)

	e, ok = Lookup("lvl")
	assert.True(t, ok)
	assert.Equal(t, TypeLevel, e.Type)
	assert.Equal(t, levelPlaceholder, e.Level)

	_, ok = Lookup("Nécromancie")
	assert.False(t, ok, "lexicon keys are normalized")

	assert.Equal(t, "SAVE_PROMPT", TypeSavePrompt.String())
}
