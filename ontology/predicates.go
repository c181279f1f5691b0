package ontology

import "strings"

// Vocabulary predicates. Every predicate lives in the dnd: namespace.
const (
	// Identity
	Index = "dnd:index" // stable identifier, exactly one per entity

	// Localized text
	Name        = "dnd:name"
	Desc        = "dnd:desc" // paragraphs joined by newline
	Range       = "dnd:range"
	Duration    = "dnd:duration"
	CastingTime = "dnd:casting_time"
	Material    = "dnd:material"

	// Spell scalars
	Level         = "dnd:level"
	School        = "dnd:school"
	Ritual        = "dnd:ritual"        // bool
	Concentration = "dnd:concentration" // bool

	// Multi-valued
	Components = "dnd:components" // V|S|M
	Classes    = "dnd:classes"

	// Class scalars
	HitDie              = "dnd:hit_die"
	SpellcastingAbility = "dnd:spellcasting_ability"

	// Mechanics
	HasAttackRoll = "dnd:has_attack_roll" // bool
	AttackType    = "dnd:attack_type"     // melee|ranged
	HasSave       = "dnd:has_save"        // bool
	SaveAbility   = "dnd:save_ability"    // str|dex|con|int|wis|cha
	DamageType    = "dnd:damage_type"
	DamageDice    = "dnd:damage_dice"
	HigherLevels  = "dnd:higher_levels" // bool

	// Area of effect, flattened from the nested mechanics object
	AreaOfEffectType  = "dnd:area_of_effect_type" // sphere|cone|cylinder|line|cube|wall
	AreaOfEffectValue = "dnd:area_of_effect_value"
	AreaOfEffectUnit  = "dnd:area_of_effect_unit" // foot|mile|self
)

// Namespace is the predicate namespace prefix.
const Namespace = "dnd:"

// Subject namespaces encode the entity class.
const (
	SpellPrefix = "spells:"
	ClassPrefix = "classes:"
	RacePrefix  = "races:"
)

// EntityKind identifies the class of an entity from its subject.
type EntityKind string

const (
	KindSpell   EntityKind = "spell"
	KindClass   EntityKind = "class"
	KindRace    EntityKind = "race"
	KindUnknown EntityKind = ""
)

// KindOf returns the entity class encoded by the subject's namespace.
func KindOf(subject string) EntityKind {
	switch {
	case strings.HasPrefix(subject, SpellPrefix):
		return KindSpell
	case strings.HasPrefix(subject, ClassPrefix):
		return KindClass
	case strings.HasPrefix(subject, RacePrefix):
		return KindRace
	default:
		return KindUnknown
	}
}

// booleanPredicates are stored as 0/1 and read back as booleans.
var booleanPredicates = map[string]bool{
	Ritual:        true,
	Concentration: true,
	HasAttackRoll: true,
	HasSave:       true,
	HigherLevels:  true,
}

// IsBoolean reports whether values of the predicate are booleans.
func IsBoolean(predicate string) bool {
	return booleanPredicates[predicate]
}

// Predicate returns the dnd: predicate for a property name.
func Predicate(property string) string {
	return Namespace + property
}

// LocalName strips the dnd: namespace from a predicate.
func LocalName(predicate string) string {
	return strings.TrimPrefix(predicate, Namespace)
}
