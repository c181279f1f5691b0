// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"fmt"
	"strings"
)

// ValidateTriplet validates a Triplet according to store rules.
//
// Validation rules:
//   - Subject must not be empty and must carry a namespace prefix ("spells:...")
//   - Predicate must not be empty
//   - Object must be set
//   - Subject, Predicate and Language must not contain NUL (the index separator)
//
// NOT validated:
//   - ID (0 is valid until the store assigns one from its sequence)
//   - Whether the predicate belongs to the domain vocabulary
func ValidateTriplet(t *Triplet) error {
	if t == nil {
		return fmt.Errorf("%w: triplet is nil", ErrInvalidTriplet)
	}

	if t.Subject == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTriplet, ErrEmptySubject)
	}
	if i := strings.IndexByte(t.Subject, ':'); i <= 0 || i == len(t.Subject)-1 {
		return fmt.Errorf("%w: %w: %q", ErrInvalidTriplet, ErrUnqualifiedSubject, t.Subject)
	}

	if t.Predicate == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTriplet, ErrEmptyPredicate)
	}

	if t.Object.IsZero() {
		return fmt.Errorf("%w: %w", ErrInvalidTriplet, ErrInvalidObject)
	}

	for _, field := range []string{t.Subject, t.Predicate, t.Language} {
		if strings.IndexByte(field, 0) >= 0 {
			return fmt.Errorf("%w: %w", ErrInvalidTriplet, ErrReservedByte)
		}
	}

	return nil
}
