package semantic

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/spelite/ai"
	"github.com/poiesic/spelite/ai/mock"
	"github.com/poiesic/spelite/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var spellDocs = []string{
	"Fireball: A bright streak of fire flashes to a point you choose",
	"Cure Wounds: A creature you touch regains hit points",
	"Shield of Faith: A shimmering field surrounds a creature of your choice",
}

type progressLog struct {
	mu     sync.Mutex
	events []Progress
}

func (l *progressLog) add(p Progress) {
	l.mu.Lock()
	l.events = append(l.events, p)
	l.mu.Unlock()
}

func (l *progressLog) statuses() []ProgressStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ProgressStatus, len(l.events))
	for i, e := range l.events {
		out[i] = e.Status
	}
	return out
}

func newReadyWorker(t *testing.T, embedder *mock.MockEmbedder, opts ...WorkerOption) *Worker {
	t.Helper()
	w, err := NewWorker(embedder, opts...)
	require.NoError(t, err)
	t.Cleanup(w.Close)
	ready, err := w.Init(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, ready)
	return w
}

func TestNewWorker(t *testing.T) {
	_, err := NewWorker(nil)
	assert.Error(t, err)

	_, err = NewWorker(mock.NewMockEmbedder(), WithRetry(0, time.Millisecond))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)

	w, err := NewWorker(mock.NewMockEmbedder(), WithBatchSize(0), WithPersistPoolSize(2), WithWorkerLogger(nil))
	require.NoError(t, err)
	defer w.Close()
	assert.Equal(t, 1, w.batchSize)
	assert.False(t, w.Ready())
}

func TestWorkerInit(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	w, err := NewWorker(embedder)
	require.NoError(t, err)
	defer w.Close()

	var log progressLog
	ready, err := w.Init(context.Background(), log.add)
	require.NoError(t, err)
	assert.True(t, ready)
	assert.Equal(t, []ProgressStatus{StatusDownloading, StatusDownloading, StatusDownloading, StatusReady}, log.statuses())

	ready, err = w.Init(context.Background(), log.add)
	require.NoError(t, err)
	assert.True(t, ready)
	assert.Equal(t, 1, embedder.LoadCount())
	assert.Len(t, log.statuses(), 4, "second init must not report progress")
}

func TestWorkerInitFailure(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.LoadFunc = func(context.Context, func(ai.LoadProgress)) error {
		return errors.New("no network")
	}
	w, err := NewWorker(embedder)
	require.NoError(t, err)
	defer w.Close()

	ready, err := w.Init(context.Background(), nil)
	assert.ErrorContains(t, err, "no network")
	assert.False(t, ready)
	assert.False(t, w.Ready())
}

func TestWorkerSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("not ready", func(t *testing.T) {
		w, err := NewWorker(mock.NewMockEmbedder())
		require.NoError(t, err)
		defer w.Close()

		_, err = w.Search(ctx, "fire", spellDocs, nil)
		assert.ErrorIs(t, err, ErrModelNotReady)
		assert.ErrorIs(t, w.Index(ctx, spellDocs, nil), ErrModelNotReady)
	})

	t.Run("no documents", func(t *testing.T) {
		w := newReadyWorker(t, mock.NewMockEmbedder())
		results, err := w.Search(ctx, "fire", nil, nil)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("ranks overlapping document first", func(t *testing.T) {
		w := newReadyWorker(t, mock.NewMockEmbedder())
		results, err := w.Search(ctx, "bright streak of fire", spellDocs, nil)
		require.NoError(t, err)
		require.Len(t, results, len(spellDocs))

		assert.Equal(t, 0, results[0].Index)
		assert.Equal(t, spellDocs[0], results[0].Text)
		for i := 1; i < len(results); i++ {
			assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
		}
	})

	t.Run("cached documents are not embedded again", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		w := newReadyWorker(t, embedder)

		_, err := w.Search(ctx, "fire", spellDocs, nil)
		require.NoError(t, err)
		assert.Equal(t, len(spellDocs), w.CacheLen())

		before := embedder.CallCount()
		_, err = w.Search(ctx, "healing", spellDocs, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, embedder.CallCount()-before, "only the query is embedded")
	})

	t.Run("duplicate documents share a vector", func(t *testing.T) {
		w := newReadyWorker(t, mock.NewMockEmbedder())
		docs := []string{spellDocs[0], spellDocs[0]}
		results, err := w.Search(ctx, "fire", docs, nil)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.InDelta(t, results[0].Score, results[1].Score, 1e-9)
		assert.Equal(t, 1, w.CacheLen())
	})
}

func TestWorkerIndexProgress(t *testing.T) {
	w := newReadyWorker(t, mock.NewMockEmbedder(), WithBatchSize(2))

	var log progressLog
	require.NoError(t, w.Index(context.Background(), spellDocs, log.add))

	log.mu.Lock()
	defer log.mu.Unlock()
	require.Len(t, log.events, 2)
	assert.Equal(t, StatusIndexing, log.events[0].Status)
	assert.Equal(t, int64(2), log.events[0].Loaded)
	assert.Equal(t, int64(3), log.events[1].Loaded)
	assert.InDelta(t, 100, log.events[1].Percent, 1e-9)
}

func TestWorkerPersistsVectors(t *testing.T) {
	ctx := context.Background()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	first := newReadyWorker(t, mock.NewMockEmbedder(), WithStore(repos.Embeddings))
	require.NoError(t, first.Index(ctx, spellDocs, nil))
	first.Wait()

	n, err := repos.Embeddings.CountEmbeddings(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(spellDocs), n)

	// a fresh worker with an empty cache reads vectors from the store
	embedder := mock.NewMockEmbedder()
	second := newReadyWorker(t, embedder, WithStore(repos.Embeddings))
	results, err := second.Search(ctx, "bright streak of fire", spellDocs, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, results[0].Index)
	assert.Equal(t, 1, embedder.CallCount(), "only the query is embedded")
	assert.Equal(t, len(spellDocs), second.CacheLen())
}

func TestWorkerRepeatedSearch(t *testing.T) {
	ctx := context.Background()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	embedder := mock.NewMockEmbedder()
	w := newReadyWorker(t, embedder, WithStore(repos.Embeddings))

	first, err := w.Search(ctx, "a creature of your choice", spellDocs, nil)
	require.NoError(t, err)
	calls := embedder.CallCount()
	second, err := w.Search(ctx, "a creature of your choice", spellDocs, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, embedder.CallCount()-calls, "only the query is embedded again")
	assert.Equal(t, len(spellDocs), w.CacheLen())

	w.Wait()
	n, err := repos.Embeddings.CountEmbeddings(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(spellDocs), n, "repeated searches add no rows")

	// vectors read back from the store score like fresh ones
	fromStore := newReadyWorker(t, mock.NewMockEmbedder(), WithStore(repos.Embeddings))
	stored, err := fromStore.Search(ctx, "a creature of your choice", spellDocs, nil)
	require.NoError(t, err)
	require.Len(t, stored, len(first))

	fresh := make(map[int]float64, len(first))
	for _, r := range first {
		fresh[r.Index] = r.Score
	}
	for _, r := range stored {
		assert.InDelta(t, fresh[r.Index], r.Score, 1e-6, "document %d", r.Index)
		assert.Equal(t, spellDocs[r.Index], r.Text)
	}
}

func TestWorkerRetriesEmbedding(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	var mu sync.Mutex
	failures := 1
	embedder.EmbedTokensFunc = func(_ context.Context, text string) ([][]float32, error) {
		mu.Lock()
		defer mu.Unlock()
		if failures > 0 {
			failures--
			return nil, errors.New("model busy")
		}
		return [][]float32{{1, 0, 0}}, nil
	}
	w := newReadyWorker(t, embedder, WithRetry(2, time.Millisecond))

	results, err := w.Search(context.Background(), "fire", spellDocs[:1], nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1, results[0].Score, 1e-6)
}

func TestWorkerEmbeddingFailure(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTokensFunc = func(context.Context, string) ([][]float32, error) {
		return nil, errors.New("model crashed")
	}
	w := newReadyWorker(t, embedder, WithRetry(2, time.Millisecond))

	_, err := w.Search(context.Background(), "fire", spellDocs, nil)
	assert.ErrorContains(t, err, "model crashed")
	assert.Equal(t, 2, embedder.CallCount())
}

func TestWorkerDoesNotRetryCancellation(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTokensFunc = func(context.Context, string) ([][]float32, error) {
		return nil, context.Canceled
	}
	w := newReadyWorker(t, embedder, WithRetry(3, time.Millisecond))

	_, err := w.Search(context.Background(), "fire", spellDocs, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, embedder.CallCount())
}

func TestWorkerResetCache(t *testing.T) {
	ctx := context.Background()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	w := newReadyWorker(t, mock.NewMockEmbedder(), WithStore(repos.Embeddings))
	require.NoError(t, w.Index(ctx, spellDocs, nil))
	w.Wait()

	require.NoError(t, repos.Embeddings.ClearEmbeddings(ctx))
	w.ResetCache()
	assert.Zero(t, w.CacheLen())

	require.NoError(t, w.Index(ctx, spellDocs, nil))
	w.Wait()
	n, err := repos.Embeddings.CountEmbeddings(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(spellDocs), n, "vectors are recomputed and stored again")
}

func TestHandle(t *testing.T) {
	ctx := context.Background()
	w, err := NewWorker(mock.NewMockEmbedder())
	require.NoError(t, err)
	defer w.Close()

	collect := func(req Request) []Message {
		var out []Message
		w.Handle(ctx, req, func(m Message) { out = append(out, m) })
		return out
	}

	t.Run("ping", func(t *testing.T) {
		msgs := collect(Request{ID: "p1", Type: RequestPing})
		require.Len(t, msgs, 1)
		assert.Equal(t, Message{ID: "p1", Type: MessagePong}, msgs[0])
	})

	t.Run("search before init", func(t *testing.T) {
		msgs := collect(Request{ID: "s0", Type: RequestSearch, Query: "fire", Documents: spellDocs})
		require.Len(t, msgs, 1)
		assert.Equal(t, MessageError, msgs[0].Type)
		assert.Equal(t, ErrModelNotReady.Error(), msgs[0].Error)
	})

	t.Run("init", func(t *testing.T) {
		msgs := collect(Request{ID: "i1", Type: RequestInit})
		require.NotEmpty(t, msgs)
		last := msgs[len(msgs)-1]
		assert.Equal(t, MessageSuccess, last.Type)
		assert.True(t, last.Ready)
		for _, m := range msgs[:len(msgs)-1] {
			assert.Equal(t, MessageProgress, m.Type)
			assert.Equal(t, "i1", m.ID)
			require.NotNil(t, m.Progress)
		}
	})

	t.Run("search", func(t *testing.T) {
		msgs := collect(Request{ID: "s1", Type: RequestSearch, Query: "fire", Documents: spellDocs})
		last := msgs[len(msgs)-1]
		assert.Equal(t, MessageSuccess, last.Type)
		assert.Len(t, last.Results, len(spellDocs))
	})

	t.Run("index", func(t *testing.T) {
		msgs := collect(Request{ID: "x1", Type: RequestIndex, Documents: []string{"Wish: the mightiest spell"}})
		last := msgs[len(msgs)-1]
		assert.Equal(t, MessageSuccess, last.Type)
		assert.True(t, last.Type.Terminal())
	})

	t.Run("unknown type", func(t *testing.T) {
		msgs := collect(Request{ID: "u1", Type: "DANCE"})
		require.Len(t, msgs, 1)
		assert.Equal(t, MessageError, msgs[0].Type)
		assert.Contains(t, msgs[0].Error, ErrUnknownRequest.Error())
	})
}
