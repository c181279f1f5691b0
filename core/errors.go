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

import "errors"

// Domain validation errors
var (
	// ErrInvalidTriplet indicates a Triplet failed validation.
	ErrInvalidTriplet = errors.New("invalid triplet")

	// ErrEmptySubject indicates the Subject field is empty.
	ErrEmptySubject = errors.New("subject cannot be empty")

	// ErrUnqualifiedSubject indicates a subject without a namespace prefix.
	ErrUnqualifiedSubject = errors.New("subject must be namespaced")

	// ErrEmptyPredicate indicates the Predicate field is empty.
	ErrEmptyPredicate = errors.New("predicate cannot be empty")

	// ErrInvalidObject indicates the Object was never set.
	ErrInvalidObject = errors.New("object must be a string, number or boolean")

	// ErrReservedByte indicates a NUL byte in an indexed field.
	ErrReservedByte = errors.New("field contains a NUL byte")

	// ErrUnsupportedLanguage indicates a language tag other than en or fr.
	ErrUnsupportedLanguage = errors.New("unsupported language")
)
