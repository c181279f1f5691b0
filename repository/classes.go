package repository

import (
	"context"
	"fmt"

	"github.com/poiesic/spelite/core"
	"github.com/poiesic/spelite/ontology"
	"github.com/poiesic/spelite/storage"
)

// ClassRepository serves character classes: subjects carrying a dnd:hit_die.
type ClassRepository struct {
	base
}

// NewClassRepository creates a ClassRepository over a triplet store.
func NewClassRepository(triplets storage.TripletRepository, opts ...Option) (*ClassRepository, error) {
	b, err := newBase(triplets, "class-repository", opts)
	if err != nil {
		return nil, err
	}
	return &ClassRepository{base: b}, nil
}

// GetAll returns every class localized in lang, ordered by name.
func (r *ClassRepository) GetAll(ctx context.Context, lang string) ([]*core.Class, error) {
	subjects, err := r.triplets.Subjects(ctx, ontology.HitDie)
	if err != nil {
		return nil, err
	}
	classes := make([]*core.Class, 0, len(subjects))
	for _, s := range subjects {
		e, err := r.load(ctx, s)
		if err != nil {
			return nil, err
		}
		classes = append(classes, reconstructClass(e, lang))
	}
	sortByName(classes, lang,
		func(c *core.Class) string { return c.Name },
		func(c *core.Class) string { return c.Index })
	return classes, nil
}

// GetByID returns the class with the given index, or storage.ErrNotFound.
// An indexed entity without a hit die is not a class.
func (r *ClassRepository) GetByID(ctx context.Context, index, lang string) (*core.Class, error) {
	matches, err := r.triplets.FindByPredicateObject(ctx, ontology.Index, core.String(index))
	if err != nil {
		return nil, err
	}
	for _, t := range matches {
		e, err := r.load(ctx, t.Subject)
		if err != nil {
			return nil, err
		}
		if e.has(ontology.HitDie) {
			return reconstructClass(e, lang), nil
		}
	}
	return nil, fmt.Errorf("%w: class %q", storage.ErrNotFound, index)
}
