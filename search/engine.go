package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/poiesic/spelite/core"
	"github.com/poiesic/spelite/query"
	"github.com/poiesic/spelite/semantic"
)

const (
	defaultLexicalWeight   = 0.7
	defaultSemanticWeight  = 0.3
	defaultSemanticTimeout = 10 * time.Second

	thresholdFloor = 0.25
	thresholdRatio = 0.6

	// allValues is the UI selection meaning "no filter".
	allValues = "all"
)

// SpellSearcher runs structured spell searches.
type SpellSearcher interface {
	Search(ctx context.Context, q core.SearchQuery, lang string) ([]*core.Spell, error)
}

// SemanticRanker scores documents against a query, best first.
type SemanticRanker interface {
	Search(ctx context.Context, query string, documents []string) ([]semantic.Result, error)
}

// RankingMode selects how semantic scores reorder candidates.
type RankingMode int

const (
	// RankBlend orders every candidate by a weighted sum of lexical and
	// semantic scores.
	RankBlend RankingMode = iota
	// RankThreshold keeps candidates scoring at least max(0.25, 60% of the
	// best score) or matching the name lexically, in semantic order.
	RankThreshold
)

func (m RankingMode) String() string {
	switch m {
	case RankBlend:
		return "blend"
	case RankThreshold:
		return "threshold"
	default:
		return "unknown"
	}
}

// ParseRankingMode maps a mode name onto a RankingMode.
func ParseRankingMode(name string) (RankingMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "blend":
		return RankBlend, nil
	case "threshold":
		return RankThreshold, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRankingMode, name)
	}
}

// UIFilters are the dropdown selections. Empty or "all" means no selection.
type UIFilters struct {
	Level       string
	Class       string
	School      string
	DamageType  string
	SaveAbility string
	ActionType  string
}

// Params is one search request.
type Params struct {
	SearchTerm       string
	Filters          UIFilters
	AISearchEnabled  bool
	ModelReady       bool
	IndexingComplete bool
	Language         string
}

// Engine composes parsing, structured search and semantic re-ranking.
type Engine struct {
	spells          SpellSearcher
	ranker          SemanticRanker
	lexicalWeight   float64
	semanticWeight  float64
	mode            RankingMode
	semanticTimeout time.Duration
	logger          *slog.Logger
	tracer          trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithHybridWeights sets the lexical and semantic weights of the blend.
// Default is 0.7 and 0.3.
func WithHybridWeights(lexical, semantic float64) Option {
	return func(e *Engine) error {
		if lexical < 0 || semantic < 0 || lexical+semantic == 0 {
			return fmt.Errorf("%w: lexical=%v semantic=%v", ErrInvalidWeights, lexical, semantic)
		}
		e.lexicalWeight = lexical
		e.semanticWeight = semantic
		return nil
	}
}

// WithRankingMode selects blend or threshold ranking. Default is RankBlend.
func WithRankingMode(mode RankingMode) Option {
	return func(e *Engine) error {
		if mode != RankBlend && mode != RankThreshold {
			return fmt.Errorf("%w: %d", ErrUnknownRankingMode, mode)
		}
		e.mode = mode
		return nil
	}
}

// WithSemanticTimeout bounds each semantic call. Zero disables the bound.
// Default is 10s.
func WithSemanticTimeout(d time.Duration) Option {
	return func(e *Engine) error {
		e.semanticTimeout = d
		return nil
	}
}

// NewEngine creates a search engine. ranker may be nil, in which case
// every search is structured.
func NewEngine(spells SpellSearcher, ranker SemanticRanker, opts ...Option) (*Engine, error) {
	if spells == nil {
		return nil, ErrSpellSearcherRequired
	}

	e := &Engine{
		spells:          spells,
		ranker:          ranker,
		lexicalWeight:   defaultLexicalWeight,
		semanticWeight:  defaultSemanticWeight,
		mode:            RankBlend,
		semanticTimeout: defaultSemanticTimeout,
		logger:          slog.Default(),
		tracer:          otel.Tracer("github.com/poiesic/spelite/search"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "search-engine")

	return e, nil
}

// Search runs one search and returns fully localized spells in rank order.
func (e *Engine) Search(ctx context.Context, p Params) ([]*core.Spell, error) {
	return e.SearchWithMonitor(ctx, p, nil)
}

// SearchWithMonitor runs one search, reporting each stage to monitor.
func (e *Engine) SearchWithMonitor(ctx context.Context, p Params, monitor SearchMonitor) ([]*core.Spell, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	lang := p.Language
	if lang == "" {
		lang = core.DefaultLanguage
	}

	ctx, span := e.tracer.Start(ctx, "search.Search", trace.WithAttributes(
		attribute.String("language", lang),
		attribute.Bool("ai", p.AISearchEnabled),
	))
	defer span.End()

	monitor.Start(p)

	// 1. Parse free text and merge the UI selections
	q := query.Parse(p.SearchTerm)
	q.Filters.Merge(e.uiFilters(p.Filters))
	q.Text = strings.TrimSpace(q.Text)
	monitor.AfterParse(q)

	// 2. Semantic re-ranking when everything it needs is available
	if e.semanticAvailable(p, q.Text) {
		results, err := e.hybrid(ctx, q, lang, monitor)
		switch {
		case err != nil:
			e.logger.Warn("semantic search failed, using structured search", "err", err)
			span.RecordError(err)
			monitor.SemanticFallback(err)
		case results != nil:
			span.SetAttributes(attribute.String("path", "semantic"))
			monitor.Finish(results)
			return results, nil
		}
	}

	// 3. Structured search with substring name filtering
	span.SetAttributes(attribute.String("path", "structured"))
	results, err := e.spells.Search(ctx, q, lang)
	if err != nil {
		e.logger.Error("structured search failed", "err", err)
		return nil, err
	}
	monitor.AfterStructuredSearch(results)
	monitor.Finish(results)
	return results, nil
}

func (e *Engine) semanticAvailable(p Params, text string) bool {
	return e.ranker != nil && p.AISearchEnabled && text != "" && p.ModelReady && p.IndexingComplete
}

// hybrid re-ranks the structured candidates. A nil result without error
// means there was nothing to rank.
func (e *Engine) hybrid(ctx context.Context, q core.SearchQuery, lang string, monitor SearchMonitor) ([]*core.Spell, error) {
	candidates, err := e.spells.Search(ctx, core.SearchQuery{Filters: q.Filters}, lang)
	if err != nil {
		return nil, fmt.Errorf("candidate search: %w", err)
	}
	monitor.AfterStructuredSearch(candidates)
	if len(candidates) == 0 {
		return nil, nil
	}

	documents := make([]string, len(candidates))
	for i, spell := range candidates {
		documents[i] = spell.SemanticDocument()
	}

	if e.semanticTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.semanticTimeout)
		defer cancel()
	}
	ranked, err := e.ranker.Search(ctx, q.Text, documents)
	if err != nil {
		return nil, err
	}
	monitor.AfterSemanticSearch(ranked)
	if len(ranked) == 0 {
		return nil, nil
	}

	tokens := core.Tokens(q.Text)
	e.logger.Debug("ranking candidates", "candidates", len(candidates), "mode", e.mode)
	if e.mode == RankThreshold {
		return e.threshold(candidates, ranked, tokens), nil
	}
	return e.blend(candidates, ranked, tokens), nil
}

// blend orders every candidate by lexicalWeight*lexical + semanticWeight*semantic.
// Ties keep the structured order.
func (e *Engine) blend(candidates []*core.Spell, ranked []semantic.Result, tokens []string) []*core.Spell {
	semanticScores := make([]float64, len(candidates))
	for _, r := range ranked {
		if r.Index >= 0 && r.Index < len(candidates) {
			semanticScores[r.Index] = r.Score
		}
	}

	type scored struct {
		spell *core.Spell
		score float64
	}
	results := make([]scored, len(candidates))
	for i, spell := range candidates {
		results[i] = scored{
			spell: spell,
			score: e.lexicalWeight*lexicalScore(spell.Name, tokens) + e.semanticWeight*semanticScores[i],
		}
	}

	// Sort by score descending
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	out := make([]*core.Spell, len(results))
	for i, r := range results {
		out[i] = r.spell
	}
	return out
}

// threshold keeps strong semantic matches and lexical name matches in
// semantic order.
func (e *Engine) threshold(candidates []*core.Spell, ranked []semantic.Result, tokens []string) []*core.Spell {
	best := ranked[0].Score
	for _, r := range ranked[1:] {
		best = max(best, r.Score)
	}
	cutoff := max(thresholdFloor, best*thresholdRatio)

	out := make([]*core.Spell, 0, len(ranked))
	for _, r := range ranked {
		if r.Index < 0 || r.Index >= len(candidates) {
			continue
		}
		spell := candidates[r.Index]
		if r.Score >= cutoff || lexicalScore(spell.Name, tokens) == 1 {
			out = append(out, spell)
		}
	}
	return out
}

// uiFilters converts dropdown selections into structured filters.
func (e *Engine) uiFilters(ui UIFilters) core.Filters {
	var f core.Filters
	if v, ok := selected(ui.Level); ok {
		level, err := strconv.Atoi(v)
		if err != nil {
			e.logger.Warn("ignoring invalid level filter", "level", v)
		} else {
			f.Level = []int{level}
		}
	}
	if v, ok := selected(ui.Class); ok {
		f.Class = []string{v}
	}
	if v, ok := selected(ui.School); ok {
		f.School = []string{v}
	}
	if v, ok := selected(ui.DamageType); ok {
		f.DamageType = []string{v}
	}
	if v, ok := selected(ui.SaveAbility); ok {
		f.SaveAbility = []string{v}
	}
	if v, ok := selected(ui.ActionType); ok {
		f.ActionType = []string{v}
	}
	return f
}

func selected(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, allValues) {
		return "", false
	}
	return v, true
}
