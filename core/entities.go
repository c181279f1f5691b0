package core

import "strings"

// Language tags carried by localized triplets.
const (
	LangEN = "en"
	LangFR = "fr"
)

// DefaultLanguage is the fallback for missing translations.
const DefaultLanguage = LangEN

// ParseLanguage maps a user supplied tag onto a supported language.
func ParseLanguage(tag string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "", LangEN:
		return LangEN, nil
	case LangFR:
		return LangFR, nil
	default:
		return "", ErrUnsupportedLanguage
	}
}

// AreaOfEffect describes the shape a spell covers.
type AreaOfEffect struct {
	Type  string  // sphere, cone, cylinder, line, cube or wall
	Value float64 // Size in Unit
	Unit  string  // foot, mile or self
}

// Mechanics holds rule facts derived from a spell's description.
type Mechanics struct {
	HasAttackRoll bool
	AttackType    string // melee or ranged, empty if unknown
	HasSave       bool
	SaveAbility   string
	DamageType    string
	DamageDice    string
	AreaOfEffect  *AreaOfEffect
	HigherLevels  bool
}

// Spell is a fully localized spell.
type Spell struct {
	Index         string
	Name          string
	Level         int
	Desc          []string
	Range         string
	Components    []string
	Material      string
	Ritual        bool
	Duration      string
	Concentration bool
	CastingTime   string
	School        string
	Classes       []string
	Mechanics     Mechanics
}

// semanticDescParagraphs bounds how much of the description feeds an embedding.
const semanticDescParagraphs = 10

// SemanticDocument returns the text embedded for semantic ranking:
// the name followed by the leading description paragraphs.
func (s *Spell) SemanticDocument() string {
	desc := s.Desc
	if len(desc) > semanticDescParagraphs {
		desc = desc[:semanticDescParagraphs]
	}
	return s.Name + ": " + strings.Join(desc, " ")
}

// Class is a character class.
type Class struct {
	Index               string
	Name                string
	HitDie              int
	SpellcastingAbility string // Empty for non-casters
}

// Race is a playable race.
type Race struct {
	Index string
	Name  string
}
