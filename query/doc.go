// Package query turns free text typed in English or French into a
// structured spell query.
//
// Words found in a fixed bilingual lexicon become filters ("wizard",
// "magicien", "niveau 3", "sans rituel"); everything else is kept, in
// order, as residual text for name matching and semantic ranking.
package query
