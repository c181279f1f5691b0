package repository

import (
	"strings"

	"github.com/poiesic/spelite/core"
	"github.com/poiesic/spelite/ontology"
)

// entity is the set of triplets of one subject.
type entity []core.Triplet

// single returns the first value of a predicate.
func (e entity) single(predicate string) (core.Object, bool) {
	for _, t := range e {
		if t.Predicate == predicate {
			return t.Object, true
		}
	}
	return core.Object{}, false
}

// localized prefers the lang tag, then English, then an untagged value.
func (e entity) localized(predicate, lang string) (core.Object, bool) {
	for _, want := range []string{lang, core.DefaultLanguage, ""} {
		for _, t := range e {
			if t.Predicate == predicate && t.Language == want {
				return t.Object, true
			}
		}
	}
	return core.Object{}, false
}

// all returns every value of a multi-valued predicate in insertion order.
func (e entity) all(predicate string) []string {
	var out []string
	for _, t := range e {
		if t.Predicate == predicate {
			out = append(out, t.Object.String())
		}
	}
	return out
}

func (e entity) text(predicate string) string {
	o, ok := e.single(predicate)
	if !ok {
		return ""
	}
	return o.String()
}

func (e entity) localizedText(predicate, lang string) string {
	o, ok := e.localized(predicate, lang)
	if !ok {
		return ""
	}
	return o.String()
}

func (e entity) number(predicate string) float64 {
	o, ok := e.single(predicate)
	if !ok {
		return 0
	}
	n, _ := o.AsNumber()
	return n
}

func (e entity) flag(predicate string) bool {
	o, ok := e.single(predicate)
	if !ok {
		return false
	}
	b, _ := o.AsBool()
	return b
}

func (e entity) has(predicate string) bool {
	_, ok := e.single(predicate)
	return ok
}

// reconstructSpell builds a localized spell from its triplets.
func reconstructSpell(e entity, lang string) *core.Spell {
	spell := &core.Spell{
		Index:         e.text(ontology.Index),
		Name:          e.localizedText(ontology.Name, lang),
		Level:         int(e.number(ontology.Level)),
		Range:         e.localizedText(ontology.Range, lang),
		Components:    e.all(ontology.Components),
		Material:      e.localizedText(ontology.Material, lang),
		Ritual:        e.flag(ontology.Ritual),
		Duration:      e.localizedText(ontology.Duration, lang),
		Concentration: e.flag(ontology.Concentration),
		CastingTime:   e.localizedText(ontology.CastingTime, lang),
		School:        e.text(ontology.School),
		Classes:       e.all(ontology.Classes),
		Mechanics: core.Mechanics{
			HasAttackRoll: e.flag(ontology.HasAttackRoll),
			AttackType:    e.text(ontology.AttackType),
			HasSave:       e.flag(ontology.HasSave),
			SaveAbility:   e.text(ontology.SaveAbility),
			DamageType:    e.text(ontology.DamageType),
			DamageDice:    e.text(ontology.DamageDice),
			HigherLevels:  e.flag(ontology.HigherLevels),
		},
	}
	if desc := e.localizedText(ontology.Desc, lang); desc != "" {
		spell.Desc = strings.Split(desc, "\n")
	}
	if e.has(ontology.AreaOfEffectType) {
		spell.Mechanics.AreaOfEffect = &core.AreaOfEffect{
			Type:  e.text(ontology.AreaOfEffectType),
			Value: e.number(ontology.AreaOfEffectValue),
			Unit:  e.text(ontology.AreaOfEffectUnit),
		}
	}
	return spell
}

func reconstructClass(e entity, lang string) *core.Class {
	return &core.Class{
		Index:               e.text(ontology.Index),
		Name:                e.localizedText(ontology.Name, lang),
		HitDie:              int(e.number(ontology.HitDie)),
		SpellcastingAbility: e.text(ontology.SpellcastingAbility),
	}
}

func reconstructRace(e entity, lang string) *core.Race {
	return &core.Race{
		Index: e.text(ontology.Index),
		Name:  e.localizedText(ontology.Name, lang),
	}
}
