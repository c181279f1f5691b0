package repository

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/poiesic/spelite/core"
)

// SortOption selects the key spells are ordered by.
type SortOption string

const (
	SortByName     SortOption = "name"
	SortByLevel    SortOption = "level"
	SortByRange    SortOption = "range"
	SortByDuration SortOption = "duration"
)

// SortOrder is ascending or descending.
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// Sentinel magnitudes for durations and ranges that have no distance or length.
const (
	valueSpecial   = 888888
	valueSight     = 999998
	valueUnlimited = 999999
)

var (
	durationPattern = regexp.MustCompile(`(\d+)\s+(round|minute|hour|day|an|year|jour|heure)`)
	feetPattern     = regexp.MustCompile(`(\d+)\s+(foot|feet)`)
	meterPattern    = regexp.MustCompile(`(\d+(\.\d+)?)\s+mètre`)
	milePattern     = regexp.MustCompile(`(\d+)\s+mile`)
)

// roundsPerUnit converts duration units into rounds.
var roundsPerUnit = map[string]int{
	"round":  1,
	"minute": 10,
	"hour":   600,
	"heure":  600,
	"day":    14400,
	"jour":   14400,
	"year":   5256000,
	"an":     5256000,
}

// DurationValue converts an English or French duration into rounds.
// Unparseable durations count as one round.
func DurationValue(duration string) int {
	d := strings.ToLower(duration)
	switch {
	case strings.Contains(d, "instantaneous"), strings.Contains(d, "instantanée"):
		return 0
	case strings.Contains(d, "until dispelled"), strings.Contains(d, "jusqu'à ce qu'il soit dissipé"):
		return valueUnlimited
	case strings.Contains(d, "special"), strings.Contains(d, "spécial"):
		return valueSpecial
	}

	m := durationPattern.FindStringSubmatch(d)
	if m == nil {
		return 1
	}
	n, _ := strconv.Atoi(m[1])
	return n * roundsPerUnit[m[2]]
}

// RangeValue converts an English or French range into feet.
// Meters convert at 3.28 feet each. Unparseable ranges count as zero.
func RangeValue(r string) int {
	s := strings.ToLower(r)
	switch {
	case strings.Contains(s, "self"), strings.Contains(s, "personnelle"):
		return 0
	case strings.Contains(s, "touch"), strings.Contains(s, "contact"):
		return 1
	case strings.Contains(s, "sight"), strings.Contains(s, "vue"):
		return valueSight
	case strings.Contains(s, "unlimited"), strings.Contains(s, "illimitée"):
		return valueUnlimited
	case strings.Contains(s, "special"), strings.Contains(s, "spécial"):
		return valueSpecial
	}

	if m := feetPattern.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	if m := meterPattern.FindStringSubmatch(s); m != nil {
		f, _ := strconv.ParseFloat(m[1], 64)
		return int(math.Round(f * 3.28))
	}
	if m := milePattern.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n * 5280
	}
	return 0
}

// Sort orders spells in place. Ties on level, range and duration fall back
// to localized name order.
func Sort(spells []*core.Spell, by SortOption, order SortOrder, lang string) error {
	var key func(*core.Spell) int
	switch by {
	case SortByName:
	case SortByLevel:
		key = func(s *core.Spell) int { return s.Level }
	case SortByRange:
		key = func(s *core.Spell) int { return RangeValue(s.Range) }
	case SortByDuration:
		key = func(s *core.Spell) int { return DurationValue(s.Duration) }
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSortOption, by)
	}

	sortByName(spells, lang,
		func(s *core.Spell) string { return s.Name },
		func(s *core.Spell) string { return s.Index })
	if key != nil {
		sort.SliceStable(spells, func(i, j int) bool { return key(spells[i]) < key(spells[j]) })
	}
	if order == Descending {
		for i, j := 0, len(spells)-1; i < j; i, j = i+1, j-1 {
			spells[i], spells[j] = spells[j], spells[i]
		}
	}
	return nil
}
