package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/spelite/core"
)

func levelLabel(level int) string {
	if level == 0 {
		return "cantrip"
	}
	return fmt.Sprintf("level %d", level)
}

func printSpells(w io.Writer, spells []*core.Spell) {
	for _, s := range spells {
		fmt.Fprintf(w, "%-28s %-9s %-14s %s\n", s.Name, levelLabel(s.Level), s.School, s.Index)
	}
}

func printSpell(w io.Writer, s *core.Spell) {
	fmt.Fprintf(w, "%s (%s)\n", s.Name, s.Index)
	fmt.Fprintf(w, "%s %s\n", levelLabel(s.Level), s.School)
	fmt.Fprintf(w, "Casting time: %s\n", s.CastingTime)
	fmt.Fprintf(w, "Range:        %s\n", s.Range)

	components := strings.Join(s.Components, ", ")
	if s.Material != "" {
		components += " (" + s.Material + ")"
	}
	fmt.Fprintf(w, "Components:   %s\n", components)
	fmt.Fprintf(w, "Duration:     %s\n", s.Duration)
	fmt.Fprintf(w, "Classes:      %s\n", strings.Join(s.Classes, ", "))

	var tags []string
	if s.Ritual {
		tags = append(tags, "ritual")
	}
	if s.Concentration {
		tags = append(tags, "concentration")
	}
	m := s.Mechanics
	if m.DamageType != "" {
		tags = append(tags, strings.TrimSpace("damage "+m.DamageType+" "+m.DamageDice))
	}
	if m.HasSave {
		tags = append(tags, "save "+m.SaveAbility)
	}
	if m.HasAttackRoll {
		tags = append(tags, strings.TrimSpace(m.AttackType+" attack"))
	}
	if len(tags) > 0 {
		fmt.Fprintf(w, "Tags:         %s\n", strings.Join(tags, ", "))
	}

	for _, p := range s.Desc {
		fmt.Fprintf(w, "\n%s\n", p)
	}
}
