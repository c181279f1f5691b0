package query

import "strconv"

// TokenType classifies a lexicon entry.
type TokenType uint8

const (
	TypeNoise TokenType = iota + 1
	TypeLevel
	TypeSchool
	TypeClass
	TypeDamage
	TypeSave
	TypeRitual
	TypeConcentration
	TypeNegation
	TypeSavePrompt
	TypeAttackPrompt
)

var typeNames = map[TokenType]string{
	TypeNoise:         "NOISE",
	TypeLevel:         "LEVEL",
	TypeSchool:        "SCHOOL",
	TypeClass:         "CLASS",
	TypeDamage:        "DAMAGE",
	TypeSave:          "SAVE",
	TypeRitual:        "RITUAL",
	TypeConcentration: "CONCENTRATION",
	TypeNegation:      "NEGATION",
	TypeSavePrompt:    "SAVE_PROMPT",
	TypeAttackPrompt:  "ATTACK_PROMPT",
}

func (t TokenType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "TokenType(" + strconv.Itoa(int(t)) + ")"
}

// levelPlaceholder marks "level"/"niveau"/"lvl": the number comes from the next token.
const levelPlaceholder = -1

// Entry is what a lexicon token means. Level is set for TypeLevel,
// Value for the other filter types.
type Entry struct {
	Type  TokenType
	Level int
	Value string
}

// Lookup returns the lexicon entry for a normalized token.
func Lookup(token string) (Entry, bool) {
	e, ok := lexicon[token]
	return e, ok
}

func noise() Entry { return Entry{Type: TypeNoise} }
func level(n int) Entry { return Entry{Type: TypeLevel, Level: n} }
func school(v string) Entry { return Entry{Type: TypeSchool, Value: v} }
func class(v string) Entry { return Entry{Type: TypeClass, Value: v} }
func damage(v string) Entry { return Entry{Type: TypeDamage, Value: v} }
func save(v string) Entry { return Entry{Type: TypeSave, Value: v} }
func flag(t TokenType) Entry { return Entry{Type: t} }

// lexicon keys are normalized: lowercase without diacritics.
var lexicon = map[string]Entry{
	// filler words
	"de":  noise(),
	"d":   noise(),
	"le":  noise(),
	"la":  noise(),
	"les": noise(),
	"des": noise(),
	"du":  noise(),

	// levels
	"0":       level(0),
	"1":       level(1),
	"2":       level(2),
	"3":       level(3),
	"4":       level(4),
	"5":       level(5),
	"6":       level(6),
	"7":       level(7),
	"8":       level(8),
	"9":       level(9),
	"cantrip": level(0),
	"tour":    level(0),
	"niveau":  level(levelPlaceholder),
	"level":   level(levelPlaceholder),
	"lvl":     level(levelPlaceholder),

	// schools
	"abjuration":    school("abjuration"),
	"conjuration":   school("conjuration"),
	"divination":    school("divination"),
	"enchantment":   school("enchantment"),
	"enchantement":  school("enchantment"),
	"evocation":     school("evocation"),
	"illusion":      school("illusion"),
	"necromancy":    school("necromancy"),
	"necromancie":   school("necromancy"),
	"transmutation": school("transmutation"),

	// classes
	"barbarian":   class("barbarian"),
	"barbare":     class("barbarian"),
	"bard":        class("bard"),
	"barde":       class("bard"),
	"cleric":      class("cleric"),
	"clerc":       class("cleric"),
	"druid":       class("druid"),
	"druide":      class("druid"),
	"fighter":     class("fighter"),
	"guerrier":    class("fighter"),
	"monk":        class("monk"),
	"moine":       class("monk"),
	"paladin":     class("paladin"),
	"ranger":      class("ranger"),
	"rodeur":      class("ranger"),
	"rogue":       class("rogue"),
	"roublard":    class("rogue"),
	"sorcerer":    class("sorcerer"),
	"ensorceleur": class("sorcerer"),
	"sorcier":     class("sorcerer"),
	"warlock":     class("warlock"),
	"occultiste":  class("warlock"),
	"wizard":      class("wizard"),
	"magicien":    class("wizard"),
	"mage":        class("wizard"),

	// damage types
	"acid":        damage("acid"),
	"acide":       damage("acid"),
	"bludgeoning": damage("bludgeoning"),
	"contondant":  damage("bludgeoning"),
	"cold":        damage("cold"),
	"froid":       damage("cold"),
	"fire":        damage("fire"),
	"feu":         damage("fire"),
	"force":       damage("force"),
	"lightning":   damage("lightning"),
	"foudre":      damage("lightning"),
	"necrotic":    damage("necrotic"),
	"necrotique":  damage("necrotic"),
	"piercing":    damage("piercing"),
	"perforant":   damage("piercing"),
	"poison":      damage("poison"),
	"psychic":     damage("psychic"),
	"psychique":   damage("psychic"),
	"radiant":     damage("radiant"),
	"slashing":    damage("slashing"),
	"tranchant":   damage("slashing"),
	"thunder":     damage("thunder"),
	"tonnerre":    damage("thunder"),

	// saving throws
	"str":          save("str"),
	"dex":          save("dex"),
	"dexterite":    save("dex"),
	"con":          save("con"),
	"constitution": save("con"),
	"int":          save("int"),
	"intelligence": save("int"),
	"wis":          save("wis"),
	"sagesse":      save("wis"),
	"cha":          save("cha"),
	"charisme":     save("cha"),

	// traits
	"ritual":        flag(TypeRitual),
	"rituel":        flag(TypeRitual),
	"concentration": flag(TypeConcentration),
	"conc":          flag(TypeConcentration),

	"sans": flag(TypeNegation),
	"no":   flag(TypeNegation),

	"sauvegarde": flag(TypeSavePrompt),
	"save":       flag(TypeSavePrompt),
	"jet":        flag(TypeSavePrompt),
	"attaque":    flag(TypeAttackPrompt),
	"attack":     flag(TypeAttackPrompt),
}
