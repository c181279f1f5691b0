package repository

import (
	"context"
	"log/slog"
	"sort"

	"github.com/poiesic/spelite/core"
	"github.com/poiesic/spelite/ontology"
	"github.com/poiesic/spelite/storage"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Option configures a repository.
type Option func(*base) error

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *base) error {
		if logger != nil {
			b.logger = logger
		}
		return nil
	}
}

// base holds what every entity repository shares.
type base struct {
	triplets storage.TripletRepository
	logger   *slog.Logger
}

func newBase(triplets storage.TripletRepository, component string, opts []Option) (base, error) {
	if triplets == nil {
		return base{}, ErrInvalidUsage
	}
	b := base{triplets: triplets, logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(&b); err != nil {
			return base{}, err
		}
	}
	b.logger = b.logger.With("component", component)
	return b, nil
}

// indexedSubjects returns the subjects carrying a dnd:index in the given
// namespace, in insertion order.
func (b *base) indexedSubjects(ctx context.Context, kind ontology.EntityKind) ([]string, error) {
	subjects, err := b.triplets.Subjects(ctx, ontology.Index)
	if err != nil {
		return nil, err
	}
	out := subjects[:0]
	for _, s := range subjects {
		if ontology.KindOf(s) == kind {
			out = append(out, s)
		}
	}
	return out, nil
}

// subjectByIndex finds the subject whose dnd:index equals index within a namespace.
func (b *base) subjectByIndex(ctx context.Context, index string, kind ontology.EntityKind) (string, bool, error) {
	matches, err := b.triplets.FindByPredicateObject(ctx, ontology.Index, core.String(index))
	if err != nil {
		return "", false, err
	}
	for _, t := range matches {
		if ontology.KindOf(t.Subject) == kind {
			return t.Subject, true, nil
		}
	}
	return "", false, nil
}

func (b *base) load(ctx context.Context, subject string) (entity, error) {
	triplets, err := b.triplets.FindBySubject(ctx, subject)
	if err != nil {
		return nil, err
	}
	return entity(triplets), nil
}

// newCollator returns a collator for the language. Collators are not
// safe for concurrent use so each sort builds its own.
func newCollator(lang string) *collate.Collator {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	return collate.New(tag, collate.IgnoreCase)
}

// sortByName orders items by localized name, ties broken by index.
func sortByName[T any](items []T, lang string, name, index func(T) string) {
	c := newCollator(lang)
	sort.SliceStable(items, func(i, j int) bool {
		if r := c.CompareString(name(items[i]), name(items[j])); r != 0 {
			return r < 0
		}
		return index(items[i]) < index(items[j])
	})
}
