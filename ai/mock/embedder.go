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

package mock

import (
	"context"
	"hash/fnv"
	"math"
	"sync"

	"github.com/poiesic/spelite/ai"
	"github.com/poiesic/spelite/core"
)

// DefaultDimensions matches the default multilingual model.
const DefaultDimensions = 384

// MockEmbedder is a test double for ai.Embedder, ai.TokenEmbedder and ai.Loader.
//
// By default every normalized token maps to a fixed pseudo-random vector
// and a text embeds as the normalized mean of its token vectors, so texts
// sharing words score higher than unrelated ones.
type MockEmbedder struct {
	// EmbedTextFunc is called by EmbedText if set.
	// If nil, uses default deterministic behavior.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc is called by EmbedTexts if set.
	// If nil, uses default deterministic behavior.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedTokensFunc is called by EmbedTokens if set.
	EmbedTokensFunc func(ctx context.Context, text string) ([][]float32, error)

	// LoadFunc is called by Load if set.
	LoadFunc func(ctx context.Context, fn func(ai.LoadProgress)) error

	// Dimensions is the vector length. Defaults to DefaultDimensions.
	Dimensions int

	mu        sync.Mutex
	callCount int
	loads     int
}

var (
	_ ai.Embedder      = (*MockEmbedder)(nil)
	_ ai.TokenEmbedder = (*MockEmbedder)(nil)
	_ ai.Loader        = (*MockEmbedder)(nil)
)

// NewMockEmbedder creates a mock embedder with default deterministic behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{Dimensions: DefaultDimensions}
}

func (m *MockEmbedder) count() {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()
}

func (m *MockEmbedder) dim() int {
	if m.Dimensions > 0 {
		return m.Dimensions
	}
	return DefaultDimensions
}

// EmbedText generates a deterministic embedding from the text's tokens.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.count()

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	return m.pooled(text), nil
}

// EmbedTexts generates deterministic embeddings for multiple texts.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.count()

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}

	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = m.pooled(text)
	}
	return embeddings, nil
}

// EmbedTokens returns one vector per normalized token. Text without
// tokens yields a single vector for the raw text.
func (m *MockEmbedder) EmbedTokens(ctx context.Context, text string) ([][]float32, error) {
	m.count()

	if m.EmbedTokensFunc != nil {
		return m.EmbedTokensFunc(ctx, text)
	}
	return m.tokenVectors(text), nil
}

// Load reports a three step download and completes.
func (m *MockEmbedder) Load(ctx context.Context, fn func(ai.LoadProgress)) error {
	m.mu.Lock()
	m.loads++
	m.mu.Unlock()

	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, fn)
	}
	if fn != nil {
		for _, pct := range []float64{0, 50, 100} {
			fn(ai.LoadProgress{File: "mock.onnx", Loaded: int64(pct), Total: 100, Percent: pct})
		}
	}
	return nil
}

// CallCount returns the number of times any embedding method was called.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LoadCount returns the number of Load calls.
func (m *MockEmbedder) LoadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads
}

// Reset clears the call counts and injected behavior.
func (m *MockEmbedder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.loads = 0
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
	m.EmbedTokensFunc = nil
	m.LoadFunc = nil
}

func (m *MockEmbedder) tokenVectors(text string) [][]float32 {
	tokens := core.Tokens(text)
	if len(tokens) == 0 {
		return [][]float32{generateDeterministicVector(text, m.dim())}
	}
	out := make([][]float32, len(tokens))
	for i, tok := range tokens {
		out[i] = generateDeterministicVector(tok, m.dim())
	}
	return out
}

func (m *MockEmbedder) pooled(text string) []float32 {
	tokens := m.tokenVectors(text)
	out := make([]float32, m.dim())
	for _, vec := range tokens {
		for i, v := range vec {
			out[i] += v
		}
	}
	return normalize(out)
}

// generateDeterministicVector creates a deterministic unit vector from text.
// It uses FNV hash to ensure the same text always produces the same vector.
func generateDeterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000)/500.0 - 1.0
	}
	return normalize(vector)
}

func normalize(v []float32) []float32 {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	if sumSquares == 0 {
		return v
	}
	inv := float32(1 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
	return v
}
