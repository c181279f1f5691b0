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

package search

import "errors"

var (
	// ErrSpellSearcherRequired is returned when no structured searcher is provided.
	ErrSpellSearcherRequired = errors.New("spell searcher required")

	// ErrInvalidWeights is returned when hybrid weights are negative or both zero.
	ErrInvalidWeights = errors.New("invalid hybrid weights")

	// ErrUnknownRankingMode is returned for unsupported ranking mode names.
	ErrUnknownRankingMode = errors.New("unknown ranking mode")

	// ErrSessionClosed is returned when submitting to a closed session.
	ErrSessionClosed = errors.New("search session closed")
)
