package search

import "github.com/poiesic/spelite/core"

// lexicalScore is 1 when every token appears in the normalized name.
func lexicalScore(name string, tokens []string) float64 {
	if core.ContainsAllTokens(name, tokens) {
		return 1
	}
	return 0
}
