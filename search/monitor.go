package search

import (
	"github.com/poiesic/spelite/core"
	"github.com/poiesic/spelite/semantic"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(params Params)
	AfterParse(query core.SearchQuery)
	AfterStructuredSearch(candidates []*core.Spell)
	AfterSemanticSearch(results []semantic.Result)
	SemanticFallback(err error)
	Finish(results []*core.Spell)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ Params)                          {}
func (n *noopMonitor) AfterParse(_ core.SearchQuery)           {}
func (n *noopMonitor) AfterStructuredSearch(_ []*core.Spell)   {}
func (n *noopMonitor) AfterSemanticSearch(_ []semantic.Result) {}
func (n *noopMonitor) SemanticFallback(_ error)                {}
func (n *noopMonitor) Finish(_ []*core.Spell)                  {}
