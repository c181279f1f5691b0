package query

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/poiesic/spelite/core"
)

var separators = regexp.MustCompile(`[\s,'’]+`)

// Parse converts free text into a structured query.
//
// Tokens are looked up in the lexicon left to right. A negation word
// applies to the next recognized filter and is then cleared; filler words
// keep it pending. Save and attack prompts ("jet de sauvegarde") only set
// their flag when it is still unset or a negation is pending, so two
// prompt words in a row express one intent. Unrecognized tokens become
// the residual text, joined by single spaces.
func Parse(input string) core.SearchQuery {
	tokens := tokenize(input)

	var (
		q        core.SearchQuery
		residual []string
		negated  bool
	)
	f := &q.Filters

	for i := 0; i < len(tokens); i++ {
		token := tokens[i]
		entry, ok := Lookup(token)
		if !ok {
			residual = append(residual, token)
			negated = false
			continue
		}

		switch entry.Type {
		case TypeNoise:
		case TypeNegation:
			negated = true
		case TypeLevel:
			if entry.Level == levelPlaceholder {
				if i+1 < len(tokens) && isDigit(tokens[i+1]) {
					n, _ := strconv.Atoi(tokens[i+1])
					f.Level = appendUnique(f.Level, n)
					i++
				}
			} else {
				f.Level = appendUnique(f.Level, entry.Level)
			}
			negated = false
		case TypeSchool:
			f.School = appendUnique(f.School, entry.Value)
			negated = false
		case TypeClass:
			f.Class = appendUnique(f.Class, entry.Value)
			negated = false
		case TypeDamage:
			f.DamageType = appendUnique(f.DamageType, entry.Value)
			negated = false
		case TypeSave:
			f.SaveAbility = appendUnique(f.SaveAbility, entry.Value)
			f.HasSave = core.BoolPtr(true)
			negated = false
		case TypeRitual:
			f.Ritual = core.BoolPtr(!negated)
			negated = false
		case TypeConcentration:
			f.Concentration = core.BoolPtr(!negated)
			negated = false
		case TypeSavePrompt:
			if f.HasSave == nil || negated {
				f.HasSave = core.BoolPtr(!negated)
			}
		case TypeAttackPrompt:
			if f.HasAttack == nil || negated {
				f.HasAttack = core.BoolPtr(!negated)
			}
		}
	}

	q.Text = strings.Join(residual, " ")
	return q
}

func tokenize(input string) []string {
	var tokens []string
	for _, t := range separators.Split(core.Normalize(input), -1) {
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

func isDigit(s string) bool {
	return len(s) == 1 && s[0] >= '0' && s[0] <= '9'
}

func appendUnique[T comparable](dst []T, v T) []T {
	if slices.Contains(dst, v) {
		return dst
	}
	return append(dst, v)
}
