package core

import "slices"

// Filters are exact-match constraints, one slice per dimension.
// Values in one dimension are OR'd; dimensions are AND'd.
type Filters struct {
	Level         []int
	School        []string
	Class         []string
	DamageType    []string
	SaveAbility   []string
	ActionType    []string
	Ritual        *bool
	Concentration *bool
	HasSave       *bool
	HasAttack     *bool
}

// SearchQuery is a parsed user query: structured filters plus the
// residual free text.
type SearchQuery struct {
	Text    string
	Filters Filters
}

// Empty reports whether no dimension is active.
func (f *Filters) Empty() bool {
	return len(f.Level) == 0 &&
		len(f.School) == 0 &&
		len(f.Class) == 0 &&
		len(f.DamageType) == 0 &&
		len(f.SaveAbility) == 0 &&
		len(f.ActionType) == 0 &&
		f.Ritual == nil &&
		f.Concentration == nil &&
		f.HasSave == nil &&
		f.HasAttack == nil
}

// Merge unions other into f per dimension. Boolean flags from other only
// apply where f has none.
func (f *Filters) Merge(other Filters) {
	f.Level = appendUnique(f.Level, other.Level...)
	f.School = appendUnique(f.School, other.School...)
	f.Class = appendUnique(f.Class, other.Class...)
	f.DamageType = appendUnique(f.DamageType, other.DamageType...)
	f.SaveAbility = appendUnique(f.SaveAbility, other.SaveAbility...)
	f.ActionType = appendUnique(f.ActionType, other.ActionType...)
	if f.Ritual == nil {
		f.Ritual = other.Ritual
	}
	if f.Concentration == nil {
		f.Concentration = other.Concentration
	}
	if f.HasSave == nil {
		f.HasSave = other.HasSave
	}
	if f.HasAttack == nil {
		f.HasAttack = other.HasAttack
	}
}

func appendUnique[T comparable](dst []T, values ...T) []T {
	for _, v := range values {
		if !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}
