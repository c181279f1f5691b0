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

// Package search answers user searches over the spell catalogue.
//
// The Engine parses free text into structured filters, merges the
// selections made in the UI, and runs the structured search. When
// semantic search is available it re-ranks the structured candidates by
// blending a lexical name match with embedding similarity:
//   - lexical score is 1 when every query token appears in the name
//   - semantic score is the cosine similarity reported by the worker
//
// Any failure on the semantic path degrades to the structured result.
//
// Session debounces rapid searches and discards results that were
// superseded by a newer request.
package search
