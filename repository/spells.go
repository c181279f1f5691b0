package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/poiesic/spelite/core"
	"github.com/poiesic/spelite/ontology"
	"github.com/poiesic/spelite/storage"
)

// actionCastingTimes maps UI action types onto casting time literals.
var actionCastingTimes = map[string]string{
	"action":       "1 action",
	"bonus_action": "1 bonus action",
	"reaction":     "1 reaction",
}

// SpellRepository serves localized spells and structured spell search.
type SpellRepository struct {
	base
}

// NewSpellRepository creates a SpellRepository over a triplet store.
func NewSpellRepository(triplets storage.TripletRepository, opts ...Option) (*SpellRepository, error) {
	b, err := newBase(triplets, "spell-repository", opts)
	if err != nil {
		return nil, err
	}
	return &SpellRepository{base: b}, nil
}

// GetAll returns every spell localized in lang, ordered by name.
func (r *SpellRepository) GetAll(ctx context.Context, lang string) ([]*core.Spell, error) {
	subjects, err := r.indexedSubjects(ctx, ontology.KindSpell)
	if err != nil {
		return nil, err
	}
	return r.reconstructAll(ctx, subjects, lang)
}

// GetByID returns the spell with the given index, or storage.ErrNotFound.
func (r *SpellRepository) GetByID(ctx context.Context, index, lang string) (*core.Spell, error) {
	subject, ok, err := r.subjectByIndex(ctx, index, ontology.KindSpell)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: spell %q", storage.ErrNotFound, index)
	}
	e, err := r.load(ctx, subject)
	if err != nil {
		return nil, err
	}
	return reconstructSpell(e, lang), nil
}

// Search runs a structured query. Each active filter dimension yields the
// union of subjects matching any of its values; dimensions are intersected.
// Residual text then keeps only spells whose normalized name contains every
// query token. Results are ordered by localized name.
func (r *SpellRepository) Search(ctx context.Context, q core.SearchQuery, lang string) ([]*core.Spell, error) {
	candidates, err := r.indexedSubjects(ctx, ontology.KindSpell)
	if err != nil {
		return nil, err
	}

	sets, err := r.dimensionSets(ctx, q.Filters)
	if err != nil {
		return nil, err
	}
	if len(sets) > 0 {
		kept := candidates[:0]
		for _, s := range candidates {
			if inAll(sets, s) {
				kept = append(kept, s)
			}
		}
		candidates = kept
	}

	spells, err := r.reconstructAll(ctx, candidates, lang)
	if err != nil {
		return nil, err
	}

	tokens := core.Tokens(q.Text)
	if len(tokens) == 0 {
		return spells, nil
	}
	matched := spells[:0]
	for _, s := range spells {
		if core.ContainsAllTokens(s.Name, tokens) {
			matched = append(matched, s)
		}
	}
	r.logger.Debug("spell search", "text", q.Text, "dimensions", len(sets), "results", len(matched))
	return matched, nil
}

// subjectSet is the set of subjects matching one filter dimension.
type subjectSet map[string]struct{}

func inAll(sets []subjectSet, subject string) bool {
	for _, set := range sets {
		if _, ok := set[subject]; !ok {
			return false
		}
	}
	return true
}

// dimensionSets computes one subject set per active filter dimension.
func (r *SpellRepository) dimensionSets(ctx context.Context, f core.Filters) ([]subjectSet, error) {
	var sets []subjectSet

	addValues := func(predicate string, values []core.Object) error {
		if len(values) == 0 {
			return nil
		}
		set := make(subjectSet)
		for _, v := range values {
			if err := r.collect(ctx, set, predicate, v); err != nil {
				return err
			}
		}
		sets = append(sets, set)
		return nil
	}
	addFlag := func(predicate string, flag *bool) error {
		if flag == nil {
			return nil
		}
		return addValues(predicate, []core.Object{core.Bool(*flag)})
	}

	levels := make([]core.Object, 0, len(f.Level))
	for _, l := range f.Level {
		levels = append(levels, core.Int(l))
	}

	steps := []func() error{
		func() error { return addValues(ontology.Level, levels) },
		func() error { return addValues(ontology.Classes, stringObjects(f.Class)) },
		func() error { return addValues(ontology.School, stringObjects(f.School)) },
		func() error { return addValues(ontology.DamageType, stringObjects(f.DamageType)) },
		func() error { return addValues(ontology.SaveAbility, stringObjects(f.SaveAbility)) },
		func() error { return addFlag(ontology.Ritual, f.Ritual) },
		func() error { return addFlag(ontology.Concentration, f.Concentration) },
		func() error { return addFlag(ontology.HasSave, f.HasSave) },
		func() error { return addFlag(ontology.HasAttackRoll, f.HasAttack) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}

	if len(f.ActionType) > 0 {
		set, err := r.actionSet(ctx, f.ActionType)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return sets, nil
}

func (r *SpellRepository) collect(ctx context.Context, set subjectSet, predicate string, value core.Object) error {
	matches, err := r.triplets.FindByPredicateObject(ctx, predicate, value)
	if err != nil {
		return err
	}
	for _, t := range matches {
		set[t.Subject] = struct{}{}
	}
	return nil
}

// actionSet matches casting times in any language against the action types.
func (r *SpellRepository) actionSet(ctx context.Context, actions []string) (subjectSet, error) {
	wanted := make(map[string]bool, len(actions))
	for _, a := range actions {
		if literal, ok := actionCastingTimes[a]; ok {
			wanted[literal] = true
		} else {
			wanted[a] = true
		}
	}

	castingTimes, err := r.triplets.FindByPredicate(ctx, ontology.CastingTime)
	if err != nil {
		return nil, err
	}
	set := make(subjectSet)
	for _, t := range castingTimes {
		if s, ok := t.Object.AsString(); ok && wanted[strings.TrimSpace(s)] {
			set[t.Subject] = struct{}{}
		}
	}
	return set, nil
}

func stringObjects(values []string) []core.Object {
	out := make([]core.Object, 0, len(values))
	for _, v := range values {
		out = append(out, core.String(v))
	}
	return out
}

// ByDamageType returns spells dealing the damage type.
func (r *SpellRepository) ByDamageType(ctx context.Context, damageType, lang string) ([]*core.Spell, error) {
	return r.byValue(ctx, ontology.DamageType, damageType, lang)
}

// BySaveAbility returns spells forcing a save on the ability.
func (r *SpellRepository) BySaveAbility(ctx context.Context, ability, lang string) ([]*core.Spell, error) {
	return r.byValue(ctx, ontology.SaveAbility, ability, lang)
}

// ByAreaType returns spells with the given area of effect shape.
func (r *SpellRepository) ByAreaType(ctx context.Context, areaType, lang string) ([]*core.Spell, error) {
	return r.byValue(ctx, ontology.AreaOfEffectType, areaType, lang)
}

func (r *SpellRepository) byValue(ctx context.Context, predicate, value, lang string) ([]*core.Spell, error) {
	matches, err := r.triplets.FindByPredicateObject(ctx, predicate, core.String(value))
	if err != nil {
		return nil, err
	}
	subjects := make([]string, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, t := range matches {
		if ontology.KindOf(t.Subject) == ontology.KindSpell && !seen[t.Subject] {
			seen[t.Subject] = true
			subjects = append(subjects, t.Subject)
		}
	}
	return r.reconstructAll(ctx, subjects, lang)
}

func (r *SpellRepository) reconstructAll(ctx context.Context, subjects []string, lang string) ([]*core.Spell, error) {
	spells := make([]*core.Spell, 0, len(subjects))
	for _, s := range subjects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e, err := r.load(ctx, s)
		if err != nil {
			return nil, err
		}
		spells = append(spells, reconstructSpell(e, lang))
	}
	sortByName(spells, lang,
		func(s *core.Spell) string { return s.Name },
		func(s *core.Spell) string { return s.Index })
	return spells, nil
}
