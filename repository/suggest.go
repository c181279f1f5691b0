package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/poiesic/spelite/core"
)

// suggestThreshold is the minimum Jaro-Winkler score for a suggestion.
const suggestThreshold = 0.85

// Suggestion is a spell whose name is close to a misspelled query.
type Suggestion struct {
	Index string
	Name  string
	Score float64
}

// Suggest returns up to limit spells whose localized name is similar to
// text, best first. It is meant for "did you mean" hints when a search
// returns nothing.
func (r *SpellRepository) Suggest(ctx context.Context, text, lang string, limit int) ([]Suggestion, error) {
	query := core.Normalize(strings.TrimSpace(text))
	if query == "" || limit <= 0 {
		return nil, nil
	}

	spells, err := r.GetAll(ctx, lang)
	if err != nil {
		return nil, err
	}

	var out []Suggestion
	for _, s := range spells {
		score := similarity(query, core.Normalize(s.Name))
		if score >= suggestThreshold {
			out = append(out, Suggestion{Index: s.Index, Name: s.Name, Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// similarity is the best of the full-string score and the best pairwise
// word score, so "fierball" still finds "Delayed Blast Fireball".
func similarity(query, name string) float64 {
	score := matchr.JaroWinkler(query, name, false)
	for _, qt := range strings.Fields(query) {
		for _, nt := range strings.Fields(name) {
			if s := matchr.JaroWinkler(qt, nt, false); s > score {
				score = s
			}
		}
	}
	return score
}
