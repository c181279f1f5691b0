package core

import (
	"errors"
	"testing"
)

func TestValidateTriplet(t *testing.T) {
	tests := []struct {
		name    string
		triplet *Triplet
		wantErr error
	}{
		{
			name:    "valid triplet",
			triplet: &Triplet{Subject: "spells:fireball", Predicate: "dnd:level", Object: Int(3)},
			wantErr: nil,
		},
		{
			name:    "valid localized triplet",
			triplet: &Triplet{Subject: "spells:fireball", Predicate: "dnd:name", Object: String("Boule de feu"), Language: LangFR},
			wantErr: nil,
		},
		{
			name:    "nil triplet",
			triplet: nil,
			wantErr: ErrInvalidTriplet,
		},
		{
			name:    "empty subject",
			triplet: &Triplet{Predicate: "dnd:level", Object: Int(3)},
			wantErr: ErrEmptySubject,
		},
		{
			name:    "subject without namespace",
			triplet: &Triplet{Subject: "fireball", Predicate: "dnd:level", Object: Int(3)},
			wantErr: ErrUnqualifiedSubject,
		},
		{
			name:    "subject with empty local part",
			triplet: &Triplet{Subject: "spells:", Predicate: "dnd:level", Object: Int(3)},
			wantErr: ErrUnqualifiedSubject,
		},
		{
			name:    "empty predicate",
			triplet: &Triplet{Subject: "spells:fireball", Object: Int(3)},
			wantErr: ErrEmptyPredicate,
		},
		{
			name:    "unset object",
			triplet: &Triplet{Subject: "spells:fireball", Predicate: "dnd:level"},
			wantErr: ErrInvalidObject,
		},
		{
			name:    "NUL in predicate",
			triplet: &Triplet{Subject: "spells:fireball", Predicate: "dnd:\x00level", Object: Int(3)},
			wantErr: ErrReservedByte,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTriplet(tt.triplet)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateTriplet() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateTriplet() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidTriplet) {
				t.Errorf("ValidateTriplet() error = %v, should wrap ErrInvalidTriplet", err)
			}
		})
	}
}
