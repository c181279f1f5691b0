package ontology

import (
	"strings"

	"github.com/poiesic/spelite/core"
)

// Flatten maps one record onto triplets:
//   - scalars become one triplet each, booleans stored as 0/1
//   - arrays become one triplet per element under the same predicate
//   - localized values become one triplet per present language
//   - desc paragraphs of each language are joined with a newline
//   - mechanics properties become dnd:<prop>, except area_of_effect which
//     becomes dnd:area_of_effect_<sub>
//
// A record without an @id yields no triplets.
func Flatten(rec Record) []core.Triplet {
	s := rec.ID
	if s == "" {
		return nil
	}

	var triplets []core.Triplet
	add := func(predicate string, o core.Object, lang string) {
		triplets = append(triplets, core.Triplet{
			Subject:   s,
			Predicate: predicate,
			Object:    o.Stored(),
			Language:  lang,
		})
	}

	for _, name := range scalarOrder {
		if f, ok := rec.Fields[name]; ok && f.Kind == FieldScalar {
			add(Predicate(name), f.Scalar, "")
		}
	}

	for _, name := range arrayOrder {
		if f, ok := rec.Fields[name]; ok && f.Kind == FieldArray {
			for _, item := range f.Array {
				add(Predicate(name), item, "")
			}
		}
	}

	for _, name := range localizedOrder {
		if f, ok := rec.Fields[name]; ok && f.Kind == FieldLocalized {
			for _, lang := range sortedLanguages(f.Localized) {
				add(Predicate(name), f.Localized[lang], lang)
			}
		}
	}

	if f, ok := rec.Fields["desc"]; ok && f.Kind == FieldLocalizedList {
		for _, lang := range sortedLanguages(f.LocalizedList) {
			add(Desc, core.String(strings.Join(f.LocalizedList[lang], "\n")), lang)
		}
	}

	if f, ok := rec.Fields["mechanics"]; ok && f.Kind == FieldNested {
		for _, member := range f.Nested {
			switch member.Field.Kind {
			case FieldScalar:
				add(Predicate(member.Name), member.Field.Scalar, "")
			case FieldNested:
				for _, sub := range member.Field.Nested {
					if sub.Field.Kind == FieldScalar {
						add(Predicate(member.Name+"_"+sub.Name), sub.Field.Scalar, "")
					}
				}
			}
		}
	}

	return triplets
}

// FlattenGraph flattens every record of a graph in order.
func FlattenGraph(records []Record) []core.Triplet {
	var triplets []core.Triplet
	for _, rec := range records {
		triplets = append(triplets, Flatten(rec)...)
	}
	return triplets
}
