package repository

import (
	"context"
	"fmt"

	"github.com/poiesic/spelite/core"
	"github.com/poiesic/spelite/ontology"
	"github.com/poiesic/spelite/storage"
)

// RaceRepository serves playable races: subjects in the races: namespace.
type RaceRepository struct {
	base
}

// NewRaceRepository creates a RaceRepository over a triplet store.
func NewRaceRepository(triplets storage.TripletRepository, opts ...Option) (*RaceRepository, error) {
	b, err := newBase(triplets, "race-repository", opts)
	if err != nil {
		return nil, err
	}
	return &RaceRepository{base: b}, nil
}

// GetAll returns every race localized in lang, ordered by name.
func (r *RaceRepository) GetAll(ctx context.Context, lang string) ([]*core.Race, error) {
	subjects, err := r.indexedSubjects(ctx, ontology.KindRace)
	if err != nil {
		return nil, err
	}
	races := make([]*core.Race, 0, len(subjects))
	for _, s := range subjects {
		e, err := r.load(ctx, s)
		if err != nil {
			return nil, err
		}
		races = append(races, reconstructRace(e, lang))
	}
	sortByName(races, lang,
		func(race *core.Race) string { return race.Name },
		func(race *core.Race) string { return race.Index })
	return races, nil
}

// GetByID returns the race with the given index, or storage.ErrNotFound.
func (r *RaceRepository) GetByID(ctx context.Context, index, lang string) (*core.Race, error) {
	subject, ok, err := r.subjectByIndex(ctx, index, ontology.KindRace)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: race %q", storage.ErrNotFound, index)
	}
	e, err := r.load(ctx, subject)
	if err != nil {
		return nil, err
	}
	return reconstructRace(e, lang), nil
}
