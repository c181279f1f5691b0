package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/spelite/core"
	"github.com/poiesic/spelite/semantic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSpells struct {
	mu      sync.Mutex
	spells  []*core.Spell
	err     error
	queries []core.SearchQuery
}

func (f *fakeSpells) Search(_ context.Context, q core.SearchQuery, _ string) ([]*core.Spell, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.spells, f.err
}

type fakeRanker struct {
	results   []semantic.Result
	err       error
	block     bool
	calls     int
	query     string
	documents []string
}

func (f *fakeRanker) Search(ctx context.Context, query string, documents []string) ([]semantic.Result, error) {
	f.calls++
	f.query = query
	f.documents = documents
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.results, f.err
}

type recordingMonitor struct {
	noopMonitor
	parsed    core.SearchQuery
	semantic  []semantic.Result
	fallbacks []error
	finished  []*core.Spell
}

func (m *recordingMonitor) AfterParse(q core.SearchQuery)           { m.parsed = q }
func (m *recordingMonitor) AfterSemanticSearch(r []semantic.Result) { m.semantic = r }
func (m *recordingMonitor) SemanticFallback(err error)              { m.fallbacks = append(m.fallbacks, err) }
func (m *recordingMonitor) Finish(results []*core.Spell)            { m.finished = results }

func spell(index, name string, desc ...string) *core.Spell {
	return &core.Spell{Index: index, Name: name, Desc: desc}
}

func aiParams(term, lang string) Params {
	return Params{
		SearchTerm:       term,
		Filters:          allFilters(),
		AISearchEnabled:  true,
		ModelReady:       true,
		IndexingComplete: true,
		Language:         lang,
	}
}

func allFilters() UIFilters {
	return UIFilters{Level: "all", Class: "all", School: "all", DamageType: "all", SaveAbility: "all", ActionType: "all"}
}

func indexes(spells []*core.Spell) []string {
	out := make([]string, len(spells))
	for i, s := range spells {
		out[i] = s.Index
	}
	return out
}

func TestNewEngine(t *testing.T) {
	_, err := NewEngine(nil, nil)
	assert.Equal(t, ErrSpellSearcherRequired, err)

	_, err = NewEngine(&fakeSpells{}, nil, WithHybridWeights(-1, 1))
	assert.ErrorIs(t, err, ErrInvalidWeights)

	_, err = NewEngine(&fakeSpells{}, nil, WithHybridWeights(0, 0))
	assert.ErrorIs(t, err, ErrInvalidWeights)

	_, err = NewEngine(&fakeSpells{}, nil, WithRankingMode(RankingMode(7)))
	assert.ErrorIs(t, err, ErrUnknownRankingMode)

	e, err := NewEngine(&fakeSpells{}, &fakeRanker{}, WithLogger(nil), WithSemanticTimeout(time.Second))
	require.NoError(t, err)
	assert.NotNil(t, e)
}

func TestParseRankingMode(t *testing.T) {
	mode, err := ParseRankingMode("")
	require.NoError(t, err)
	assert.Equal(t, RankBlend, mode)

	mode, err = ParseRankingMode(" Threshold ")
	require.NoError(t, err)
	assert.Equal(t, RankThreshold, mode)
	assert.Equal(t, "threshold", mode.String())

	_, err = ParseRankingMode("magic")
	assert.ErrorIs(t, err, ErrUnknownRankingMode)
}

func TestEngine_AIDisabledSkipsRanker(t *testing.T) {
	spells := &fakeSpells{spells: []*core.Spell{spell("fireball", "Fireball", "A ball of fire")}}
	ranker := &fakeRanker{}
	e, err := NewEngine(spells, ranker)
	require.NoError(t, err)

	p := aiParams("fireball", core.LangEN)
	p.AISearchEnabled = false
	results, err := e.Search(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, 0, ranker.calls)
	require.Len(t, spells.queries, 1)
	assert.Equal(t, "fireball", spells.queries[0].Text)
	assert.Equal(t, []string{"fireball"}, indexes(results))
}

func TestEngine_SemanticPreconditions(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Params)
	}{
		{"model not ready", func(p *Params) { p.ModelReady = false }},
		{"indexing incomplete", func(p *Params) { p.IndexingComplete = false }},
		{"no residual text", func(p *Params) { p.SearchTerm = "level 3 wizard" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spells := &fakeSpells{spells: []*core.Spell{spell("shield", "Shield")}}
			ranker := &fakeRanker{}
			e, err := NewEngine(spells, ranker)
			require.NoError(t, err)

			p := aiParams("shield", core.LangEN)
			tt.modify(&p)
			_, err = e.Search(context.Background(), p)
			require.NoError(t, err)
			assert.Equal(t, 0, ranker.calls)
			assert.Len(t, spells.queries, 1)
		})
	}

	t.Run("no ranker configured", func(t *testing.T) {
		spells := &fakeSpells{spells: []*core.Spell{spell("shield", "Shield")}}
		e, err := NewEngine(spells, nil)
		require.NoError(t, err)
		_, err = e.Search(context.Background(), aiParams("shield", core.LangEN))
		require.NoError(t, err)
		assert.Len(t, spells.queries, 1)
	})
}

func TestEngine_CallsRankerWithCandidateDocuments(t *testing.T) {
	spells := &fakeSpells{spells: []*core.Spell{spell("shield", "Shield", "Description")}}
	ranker := &fakeRanker{results: []semantic.Result{{Index: 0, Score: 0.9, Text: "shield"}}}
	e, err := NewEngine(spells, ranker)
	require.NoError(t, err)

	results, err := e.Search(context.Background(), aiParams("shield", core.LangEN))
	require.NoError(t, err)

	assert.Equal(t, 1, ranker.calls)
	assert.Equal(t, "shield", ranker.query)
	assert.Equal(t, []string{"Shield: Description"}, ranker.documents)
	require.Len(t, spells.queries, 1)
	assert.Empty(t, spells.queries[0].Text, "candidates are filtered by metadata only")
	assert.Equal(t, []string{"shield"}, indexes(results))
}

func TestEngine_HybridRanking(t *testing.T) {
	t.Run("lexical match outranks semantic match", func(t *testing.T) {
		spells := &fakeSpells{spells: []*core.Spell{
			spell("shield-of-faith", "Bouclier de la foi", "Protection magic"),
			spell("other-spell", "Autre sort", "High relevance description about protection"),
		}}
		ranker := &fakeRanker{results: []semantic.Result{
			{Index: 1, Score: 0.9},
			{Index: 0, Score: 0.1},
		}}
		e, err := NewEngine(spells, ranker)
		require.NoError(t, err)

		results, err := e.Search(context.Background(), aiParams("bouclier", core.LangFR))
		require.NoError(t, err)
		assert.Equal(t, []string{"shield-of-faith", "other-spell"}, indexes(results))
	})

	t.Run("exact name beats higher similarity", func(t *testing.T) {
		spells := &fakeSpells{spells: []*core.Spell{
			spell("guidance", "Assistance", "Gives a d4 bonus to a check"),
			spell("shield-of-faith", "Bouclier de la foi", "Protection magic"),
		}}
		ranker := &fakeRanker{results: []semantic.Result{
			{Index: 0, Score: 0.9},
			{Index: 1, Score: 0.6},
		}}
		e, err := NewEngine(spells, ranker)
		require.NoError(t, err)

		results, err := e.Search(context.Background(), aiParams("bouclier", core.LangFR))
		require.NoError(t, err)
		assert.Equal(t, "shield-of-faith", results[0].Index)
	})

	t.Run("accents and case are ignored", func(t *testing.T) {
		spells := &fakeSpells{spells: []*core.Spell{
			spell("a", "Autre sort"),
			spell("b", "Éclair traçant"),
		}}
		ranker := &fakeRanker{results: []semantic.Result{{Index: 0, Score: 0.8}, {Index: 1, Score: 0.2}}}
		e, err := NewEngine(spells, ranker)
		require.NoError(t, err)

		results, err := e.Search(context.Background(), aiParams("ECLAIR tracant", core.LangFR))
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a"}, indexes(results))
	})

	t.Run("missing scores count as zero and ties keep order", func(t *testing.T) {
		spells := &fakeSpells{spells: []*core.Spell{
			spell("a", "Alpha"),
			spell("b", "Beta"),
			spell("c", "Gamma"),
		}}
		ranker := &fakeRanker{results: []semantic.Result{{Index: 2, Score: 0.5}, {Index: 9, Score: 1}}}
		e, err := NewEngine(spells, ranker)
		require.NoError(t, err)

		results, err := e.Search(context.Background(), aiParams("delta", core.LangEN))
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "a", "b"}, indexes(results))
	})

	t.Run("custom weights", func(t *testing.T) {
		spells := &fakeSpells{spells: []*core.Spell{
			spell("shield-of-faith", "Bouclier de la foi"),
			spell("other-spell", "Autre sort"),
		}}
		ranker := &fakeRanker{results: []semantic.Result{{Index: 1, Score: 0.9}, {Index: 0, Score: 0.1}}}
		e, err := NewEngine(spells, ranker, WithHybridWeights(0, 1))
		require.NoError(t, err)

		results, err := e.Search(context.Background(), aiParams("bouclier", core.LangFR))
		require.NoError(t, err)
		assert.Equal(t, []string{"other-spell", "shield-of-faith"}, indexes(results))
	})
}

func TestEngine_ThresholdRanking(t *testing.T) {
	spells := &fakeSpells{spells: []*core.Spell{
		spell("shield-of-faith", "Bouclier de la foi"),
		spell("other-spell", "Autre sort"),
		spell("weak", "Troisième sort"),
	}}
	ranker := &fakeRanker{results: []semantic.Result{
		{Index: 1, Score: 0.9},
		{Index: 2, Score: 0.3},
		{Index: 0, Score: 0.1},
	}}
	e, err := NewEngine(spells, ranker, WithRankingMode(RankThreshold))
	require.NoError(t, err)

	results, err := e.Search(context.Background(), aiParams("bouclier", core.LangFR))
	require.NoError(t, err)
	// cutoff is max(0.25, 0.54); the lexical match survives below it
	assert.Equal(t, []string{"other-spell", "shield-of-faith"}, indexes(results))
}

func TestEngine_SemanticFallback(t *testing.T) {
	candidates := []*core.Spell{spell("shield", "Shield")}

	t.Run("ranker error", func(t *testing.T) {
		spells := &fakeSpells{spells: candidates}
		ranker := &fakeRanker{err: semantic.ErrWorkerTerminated}
		e, err := NewEngine(spells, ranker)
		require.NoError(t, err)

		monitor := &recordingMonitor{}
		results, err := e.SearchWithMonitor(context.Background(), aiParams("shield", core.LangEN), monitor)
		require.NoError(t, err)
		assert.Equal(t, []string{"shield"}, indexes(results))

		require.Len(t, spells.queries, 2)
		assert.Equal(t, "shield", spells.queries[1].Text)
		require.Len(t, monitor.fallbacks, 1)
		assert.ErrorIs(t, monitor.fallbacks[0], semantic.ErrWorkerTerminated)
		assert.Equal(t, results, monitor.finished)
	})

	t.Run("timeout", func(t *testing.T) {
		spells := &fakeSpells{spells: candidates}
		ranker := &fakeRanker{block: true}
		e, err := NewEngine(spells, ranker, WithSemanticTimeout(20*time.Millisecond))
		require.NoError(t, err)

		monitor := &recordingMonitor{}
		results, err := e.SearchWithMonitor(context.Background(), aiParams("shield", core.LangEN), monitor)
		require.NoError(t, err)
		assert.Len(t, results, 1)
		require.Len(t, monitor.fallbacks, 1)
		assert.ErrorIs(t, monitor.fallbacks[0], context.DeadlineExceeded)
	})

	t.Run("no semantic results", func(t *testing.T) {
		spells := &fakeSpells{spells: candidates}
		e, err := NewEngine(spells, &fakeRanker{})
		require.NoError(t, err)

		_, err = e.Search(context.Background(), aiParams("shield", core.LangEN))
		require.NoError(t, err)
		assert.Len(t, spells.queries, 2)
	})

	t.Run("no candidates", func(t *testing.T) {
		spells := &fakeSpells{}
		ranker := &fakeRanker{}
		e, err := NewEngine(spells, ranker)
		require.NoError(t, err)

		results, err := e.Search(context.Background(), aiParams("shield", core.LangEN))
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.Equal(t, 0, ranker.calls)
	})

	t.Run("structured failure is returned", func(t *testing.T) {
		spells := &fakeSpells{err: errors.New("store closed")}
		e, err := NewEngine(spells, &fakeRanker{})
		require.NoError(t, err)

		_, err = e.Search(context.Background(), aiParams("shield", core.LangEN))
		assert.EqualError(t, err, "store closed")
	})
}

func TestEngine_MergesUIFilters(t *testing.T) {
	spells := &fakeSpells{}
	e, err := NewEngine(spells, nil)
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	_, err = e.SearchWithMonitor(context.Background(), Params{
		SearchTerm: "wizard ball",
		Filters: UIFilters{
			Level:       "0",
			Class:       "wizard",
			School:      "all",
			DamageType:  "fire",
			SaveAbility: "",
			ActionType:  "1 action",
		},
	}, monitor)
	require.NoError(t, err)

	f := monitor.parsed.Filters
	assert.Equal(t, []int{0}, f.Level)
	assert.Equal(t, []string{"wizard"}, f.Class, "parsed and UI values are unioned")
	assert.Empty(t, f.School)
	assert.Equal(t, []string{"fire"}, f.DamageType)
	assert.Empty(t, f.SaveAbility)
	assert.Equal(t, []string{"1 action"}, f.ActionType)
	assert.Equal(t, "ball", monitor.parsed.Text)

	require.Len(t, spells.queries, 1)
	assert.Equal(t, monitor.parsed, spells.queries[0])
}

func TestEngine_InvalidLevelFilterIgnored(t *testing.T) {
	spells := &fakeSpells{}
	e, err := NewEngine(spells, nil)
	require.NoError(t, err)

	_, err = e.Search(context.Background(), Params{Filters: UIFilters{Level: "high"}})
	require.NoError(t, err)
	require.Len(t, spells.queries, 1)
	assert.Empty(t, spells.queries[0].Filters.Level)
}
