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

package ai

// LoadProgress reports model download progress.
type LoadProgress struct {
	// File is the model artifact being fetched, if known.
	File string

	// Loaded and Total are byte counts. Total is 0 when unknown.
	Loaded int64
	Total  int64

	// Percent is the overall progress from 0 to 100.
	Percent float64
}

// Done reports whether loading finished.
func (p LoadProgress) Done() bool {
	return p.Percent >= 100
}
