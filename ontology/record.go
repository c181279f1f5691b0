package ontology

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/poiesic/spelite/core"
)

// FieldKind is the declared shape of a record property.
type FieldKind uint8

const (
	// FieldScalar holds one string, number or boolean.
	FieldScalar FieldKind = iota + 1
	// FieldArray holds a list of scalars, one triplet each.
	FieldArray
	// FieldLocalized maps a language tag to a scalar.
	FieldLocalized
	// FieldLocalizedList maps a language tag to a list of paragraphs.
	FieldLocalizedList
	// FieldNested holds named sub-fields (mechanics, area of effect).
	FieldNested
)

// Field is one record property. Which member is meaningful depends on Kind.
type Field struct {
	Kind          FieldKind
	Scalar        core.Object
	Array         []core.Object
	Localized     map[string]core.Object
	LocalizedList map[string][]string
	Nested        []NamedField
}

// NamedField is a sub-field of a nested property, kept in declaration order.
type NamedField struct {
	Name  string
	Field Field
}

// Record is one entity of a source graph.
type Record struct {
	ID     string // @id, the triplet subject
	Type   string // @type, informational
	Fields map[string]Field
}

// Schema declares the shape of each known top-level property.
// Properties not listed are ignored.
var Schema = map[string]FieldKind{
	"index":                FieldScalar,
	"level":                FieldScalar,
	"school":               FieldScalar,
	"ritual":               FieldScalar,
	"concentration":        FieldScalar,
	"hit_die":              FieldScalar,
	"spellcasting_ability": FieldScalar,
	"components":           FieldArray,
	"classes":              FieldArray,
	"name":                 FieldLocalized,
	"range":                FieldLocalized,
	"duration":             FieldLocalized,
	"casting_time":         FieldLocalized,
	"material":             FieldLocalized,
	"desc":                 FieldLocalizedList,
	"mechanics":            FieldNested,
}

// MechanicsSchema declares the mechanics sub-fields. Undeclared mechanics
// keys are accepted when their value is a scalar.
var MechanicsSchema = map[string]FieldKind{
	"has_attack_roll": FieldScalar,
	"attack_type":     FieldScalar,
	"has_save":        FieldScalar,
	"save_ability":    FieldScalar,
	"damage_type":     FieldScalar,
	"damage_dice":     FieldScalar,
	"higher_levels":   FieldScalar,
	"area_of_effect":  FieldNested,
}

// Flattening order of top-level properties.
var (
	scalarOrder    = []string{"level", "school", "ritual", "concentration", "index", "hit_die", "spellcasting_ability"}
	arrayOrder     = []string{"components", "classes"}
	localizedOrder = []string{"name", "range", "duration", "casting_time", "material"}
	mechanicsOrder = []string{"has_attack_roll", "attack_type", "has_save", "save_ability", "damage_type", "damage_dice", "area_of_effect", "higher_levels"}
)

// ParseRecord decodes one JSON entity according to Schema.
// A JSON null anywhere means the value is absent.
func ParseRecord(data []byte) (Record, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}

	rec := Record{Fields: make(map[string]Field)}
	if v, ok := raw["@id"]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &rec.ID); err != nil {
			return Record{}, fmt.Errorf("%w: @id: %w", ErrMalformedRecord, err)
		}
	}
	if v, ok := raw["@type"]; ok && !isNull(v) {
		// @type is informational; a non-string value is tolerated
		_ = json.Unmarshal(v, &rec.Type)
	}

	for name, kind := range Schema {
		v, ok := raw[name]
		if !ok || isNull(v) {
			continue
		}
		field, present, err := decodeField(kind, v, name == "mechanics")
		if err != nil {
			return Record{}, fmt.Errorf("%w: %s: %w", ErrMalformedRecord, name, err)
		}
		if present {
			rec.Fields[name] = field
		}
	}
	return rec, nil
}

func decodeField(kind FieldKind, v json.RawMessage, mechanics bool) (Field, bool, error) {
	switch kind {
	case FieldScalar:
		obj, err := decodeScalar(v)
		if err != nil {
			return Field{}, false, err
		}
		return Field{Kind: FieldScalar, Scalar: obj}, true, nil

	case FieldArray:
		var items []json.RawMessage
		if err := json.Unmarshal(v, &items); err != nil {
			return Field{}, false, err
		}
		field := Field{Kind: FieldArray, Array: make([]core.Object, 0, len(items))}
		for _, item := range items {
			obj, err := decodeScalar(item)
			if err != nil {
				return Field{}, false, err
			}
			field.Array = append(field.Array, obj)
		}
		return field, true, nil

	case FieldLocalized:
		var langs map[string]json.RawMessage
		if err := json.Unmarshal(v, &langs); err != nil {
			return Field{}, false, err
		}
		field := Field{Kind: FieldLocalized, Localized: make(map[string]core.Object, len(langs))}
		for lang, lv := range langs {
			if isNull(lv) {
				continue
			}
			obj, err := decodeScalar(lv)
			if err != nil {
				return Field{}, false, fmt.Errorf("%s: %w", lang, err)
			}
			field.Localized[lang] = obj
		}
		return field, true, nil

	case FieldLocalizedList:
		var langs map[string]json.RawMessage
		if err := json.Unmarshal(v, &langs); err != nil {
			return Field{}, false, err
		}
		field := Field{Kind: FieldLocalizedList, LocalizedList: make(map[string][]string, len(langs))}
		for lang, lv := range langs {
			if isNull(lv) {
				continue
			}
			var paragraphs []string
			if err := json.Unmarshal(lv, &paragraphs); err != nil {
				return Field{}, false, fmt.Errorf("%s: %w", lang, err)
			}
			field.LocalizedList[lang] = paragraphs
		}
		return field, true, nil

	case FieldNested:
		return decodeNested(v, mechanics)
	}
	return Field{}, false, fmt.Errorf("unknown field kind %d", kind)
}

// decodeNested decodes an object of scalars. For mechanics, declared
// nested sub-fields recurse one level; any other object value is skipped.
func decodeNested(v json.RawMessage, mechanics bool) (Field, bool, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(v, &members); err != nil {
		return Field{}, false, err
	}

	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	if mechanics {
		sortByOrder(names, mechanicsOrder)
	} else {
		sort.Strings(names)
	}

	field := Field{Kind: FieldNested}
	for _, name := range names {
		mv := members[name]
		if isNull(mv) {
			continue
		}
		if mechanics && MechanicsSchema[name] == FieldNested {
			sub, present, err := decodeNested(mv, false)
			if err != nil {
				return Field{}, false, fmt.Errorf("%s: %w", name, err)
			}
			if present {
				field.Nested = append(field.Nested, NamedField{Name: name, Field: sub})
			}
			continue
		}
		if isComposite(mv) {
			continue
		}
		obj, err := decodeScalar(mv)
		if err != nil {
			return Field{}, false, fmt.Errorf("%s: %w", name, err)
		}
		field.Nested = append(field.Nested, NamedField{Name: name, Field: Field{Kind: FieldScalar, Scalar: obj}})
	}
	return field, true, nil
}

func decodeScalar(v json.RawMessage) (core.Object, error) {
	var value any
	if err := json.Unmarshal(v, &value); err != nil {
		return core.Object{}, err
	}
	switch x := value.(type) {
	case string:
		return core.String(x), nil
	case float64:
		return core.Number(x), nil
	case bool:
		return core.Bool(x), nil
	default:
		return core.Object{}, fmt.Errorf("expected a scalar, got %s", bytes.TrimSpace(v))
	}
}

func isNull(v json.RawMessage) bool {
	return string(bytes.TrimSpace(v)) == "null"
}

func isComposite(v json.RawMessage) bool {
	t := bytes.TrimSpace(v)
	return len(t) > 0 && (t[0] == '{' || t[0] == '[')
}

// sortByOrder sorts names by their position in order; names not listed
// come last, alphabetically.
func sortByOrder(names []string, order []string) {
	rank := make(map[string]int, len(order))
	for i, name := range order {
		rank[name] = i
	}
	sort.Slice(names, func(i, j int) bool {
		ri, iok := rank[names[i]]
		rj, jok := rank[names[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return names[i] < names[j]
		}
	})
}

// sortedLanguages returns the keys of a language map in sorted order.
func sortedLanguages[V any](m map[string]V) []string {
	langs := make([]string, 0, len(m))
	for lang := range m {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}
