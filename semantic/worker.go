package semantic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/spelite/ai"
	"github.com/poiesic/spelite/core"
	"github.com/poiesic/spelite/storage"
)

const (
	defaultBatchSize   = 32
	defaultMaxAttempts = 3
	defaultBaseDelay   = 200 * time.Millisecond
	defaultMaxDelay    = 5 * time.Second
)

// ProgressFunc receives progress events.
type ProgressFunc func(Progress)

// Worker owns the embedding model and computes similarities.
//
// Vectors are looked up in the in-memory cache first, then in the
// persistent store, and only computed for genuine misses. Newly computed
// vectors are written to the store in the background; replies never wait
// for persistence.
type Worker struct {
	embedder  ai.Embedder
	store     storage.EmbeddingRepository
	cache     *Cache
	pool      *ants.Pool
	batchSize int
	retry     retryPolicy
	logger    *slog.Logger

	initMu sync.Mutex
	ready  bool

	persisting sync.WaitGroup
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker) error

// WithStore persists vectors in an embedding repository.
func WithStore(store storage.EmbeddingRepository) WorkerOption {
	return func(w *Worker) error {
		w.store = store
		return nil
	}
}

// WithCache shares an in-memory cache. Default is a fresh cache per worker.
func WithCache(cache *Cache) WorkerOption {
	return func(w *Worker) error {
		if cache != nil {
			w.cache = cache
		}
		return nil
	}
}

// WithBatchSize sets how many documents are embedded per model call. Default is 32.
func WithBatchSize(size int) WorkerOption {
	return func(w *Worker) error {
		if size < 1 {
			size = 1
		}
		w.batchSize = size
		return nil
	}
}

// WithRetry sets retry attempts and the base backoff delay for model calls.
func WithRetry(maxAttempts int, baseDelay time.Duration) WorkerOption {
	return func(w *Worker) error {
		policy, err := newRetryPolicy(maxAttempts, baseDelay)
		if err != nil {
			return err
		}
		w.retry = policy
		return nil
	}
}

// WithPersistPoolSize sets the number of background persistence workers.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPersistPoolSize(size int) WorkerOption {
	return func(w *Worker) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if w.pool != nil {
			w.pool.Release()
		}
		w.pool = pool
		return nil
	}
}

// WithWorkerLogger sets a custom logger.
// Default is slog.Default().
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
		return nil
	}
}

// NewWorker creates a worker around an embedder.
func NewWorker(embedder ai.Embedder, opts ...WorkerOption) (*Worker, error) {
	if embedder == nil {
		return nil, errors.New("semantic: embedder is required")
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	w := &Worker{
		embedder:  embedder,
		cache:     NewCache(),
		pool:      pool,
		batchSize: defaultBatchSize,
		retry:     retryPolicy{maxAttempts: defaultMaxAttempts, baseDelay: defaultBaseDelay, maxDelay: defaultMaxDelay},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			w.pool.Release()
			return nil, err
		}
	}
	w.logger = w.logger.With("component", "semantic-worker")
	return w, nil
}

// Init loads the model once. Later calls return immediately.
func (w *Worker) Init(ctx context.Context, progress ProgressFunc) (bool, error) {
	w.initMu.Lock()
	defer w.initMu.Unlock()

	if w.ready {
		return true, nil
	}

	if loader, ok := w.embedder.(ai.Loader); ok {
		err := loader.Load(ctx, func(p ai.LoadProgress) {
			emit(progress, Progress{
				Status:  StatusDownloading,
				Loaded:  p.Loaded,
				Total:   p.Total,
				Percent: p.Percent,
				File:    p.File,
			})
		})
		if err != nil {
			return false, fmt.Errorf("load model: %w", err)
		}
	}

	w.ready = true
	w.logger.Info("embedding model ready")
	emit(progress, Progress{Status: StatusReady, Percent: 100})
	return true, nil
}

// Ready reports whether Init succeeded.
func (w *Worker) Ready() bool {
	w.initMu.Lock()
	defer w.initMu.Unlock()
	return w.ready
}

// Search scores every document against the query and returns all results
// sorted by descending similarity.
func (w *Worker) Search(ctx context.Context, query string, documents []string, progress ProgressFunc) ([]Result, error) {
	if !w.Ready() {
		return nil, ErrModelNotReady
	}
	if len(documents) == 0 {
		return []Result{}, nil
	}

	queryVecs, err := w.embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	docVecs, err := w.vectors(ctx, documents, progress)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(documents))
	for i, doc := range documents {
		score, err := Dot(queryVecs[0], docVecs[i])
		if err != nil {
			return nil, err
		}
		results[i] = Result{Index: i, Score: score, Text: doc}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return results, nil
}

// Index makes sure every document has a cached vector.
func (w *Worker) Index(ctx context.Context, documents []string, progress ProgressFunc) error {
	if !w.Ready() {
		return ErrModelNotReady
	}
	_, err := w.vectors(ctx, documents, progress)
	return err
}

// Wait blocks until pending background persistence finishes.
func (w *Worker) Wait() {
	w.persisting.Wait()
}

// Close drains persistence and releases the pool.
func (w *Worker) Close() {
	w.Wait()
	w.pool.Release()
}

// ResetCache waits for pending persistence, then empties the in-memory
// cache so later requests read the store or recompute.
func (w *Worker) ResetCache() {
	w.Wait()
	w.cache.Reset()
}

// CacheLen returns the number of vectors held in memory.
func (w *Worker) CacheLen() int {
	return w.cache.Len()
}

// vectors returns one normalized vector per document, computing only misses.
func (w *Worker) vectors(ctx context.Context, documents []string, progress ProgressFunc) ([][]float32, error) {
	out := make([][]float32, len(documents))
	var misses []string
	seen := make(map[string]bool)
	for i, doc := range documents {
		if vec, ok := w.cache.Get(doc); ok {
			out[i] = vec
			continue
		}
		if !seen[doc] {
			seen[doc] = true
			misses = append(misses, doc)
		}
	}

	if len(misses) > 0 && w.store != nil {
		stored, err := w.store.GetEmbeddings(ctx, misses)
		if err != nil {
			w.logger.Warn("embedding store lookup failed", "err", err)
		} else {
			remaining := misses[:0]
			for _, doc := range misses {
				if vec, ok := stored[doc]; ok {
					w.cache.Put(doc, NormalizeVector(vec))
				} else {
					remaining = append(remaining, doc)
				}
			}
			misses = remaining
		}
	}

	if len(misses) > 0 {
		fresh := make([]core.Embedding, 0, len(misses))
		for start := 0; start < len(misses); start += w.batchSize {
			end := min(start+w.batchSize, len(misses))
			batch := misses[start:end]
			vecs, err := w.embed(ctx, batch)
			if err != nil {
				return nil, err
			}
			for i, doc := range batch {
				w.cache.Put(doc, vecs[i])
				fresh = append(fresh, core.Embedding{Text: doc, Vector: vecs[i]})
			}
			emit(progress, Progress{
				Status:  StatusIndexing,
				Loaded:  int64(end),
				Total:   int64(len(misses)),
				Percent: float64(end) * 100 / float64(len(misses)),
			})
		}
		w.persist(fresh)
	}

	for i, doc := range documents {
		if out[i] == nil {
			out[i], _ = w.cache.Get(doc)
		}
	}
	return out, nil
}

// persist writes fresh vectors to the store without blocking the caller.
func (w *Worker) persist(entries []core.Embedding) {
	if w.store == nil || len(entries) == 0 {
		return
	}
	w.persisting.Add(1)
	err := w.pool.Submit(func() {
		defer w.persisting.Done()
		n, err := w.store.PutEmbeddings(context.Background(), entries)
		if err != nil {
			w.logger.Warn("failed to persist embeddings", "count", len(entries), "err", err)
			return
		}
		w.logger.Debug("persisted embeddings", "written", n)
	})
	if err != nil {
		w.persisting.Done()
		w.logger.Warn("failed to schedule embedding persistence", "err", err)
	}
}

// embed computes normalized vectors for texts, retrying model failures.
func (w *Worker) embed(ctx context.Context, texts []string) ([][]float32, error) {
	var vecs [][]float32
	err := w.retry.do(ctx, w.logger, len(texts), func() error {
		var err error
		vecs, err = w.embedOnce(ctx, texts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("embed %d texts: %w", len(texts), err)
	}
	return vecs, nil
}

func (w *Worker) embedOnce(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	if te, ok := w.embedder.(ai.TokenEmbedder); ok {
		for i, text := range texts {
			tokens, err := te.EmbedTokens(ctx, text)
			if err != nil {
				return nil, err
			}
			pooled, err := MeanPool(tokens)
			if err != nil {
				return nil, err
			}
			out[i] = NormalizeVector(pooled)
		}
		return out, nil
	}

	vecs, err := w.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%w: %d for %d texts", ErrVectorCount, len(vecs), len(texts))
	}
	for i, vec := range vecs {
		out[i] = NormalizeVector(vec)
	}
	return out, nil
}

// Handle serves one request, emitting progress and exactly one terminal message.
func (w *Worker) Handle(ctx context.Context, req Request, send func(Message)) {
	progress := func(p Progress) {
		send(Message{ID: req.ID, Type: MessageProgress, Progress: &p})
	}
	fail := func(err error) {
		w.logger.Warn("request failed", "id", req.ID, "type", req.Type, "err", err)
		send(Message{ID: req.ID, Type: MessageError, Error: err.Error()})
	}

	switch req.Type {
	case RequestPing:
		send(Message{ID: req.ID, Type: MessagePong})
	case RequestInit:
		ready, err := w.Init(ctx, progress)
		if err != nil {
			fail(err)
			return
		}
		send(Message{ID: req.ID, Type: MessageSuccess, Ready: ready})
	case RequestSearch:
		results, err := w.Search(ctx, req.Query, req.Documents, progress)
		if err != nil {
			fail(err)
			return
		}
		send(Message{ID: req.ID, Type: MessageSuccess, Ready: true, Results: results})
	case RequestIndex:
		if err := w.Index(ctx, req.Documents, progress); err != nil {
			fail(err)
			return
		}
		send(Message{ID: req.ID, Type: MessageSuccess, Ready: true})
	default:
		fail(fmt.Errorf("%w: %q", ErrUnknownRequest, req.Type))
	}
}

func emit(fn ProgressFunc, p Progress) {
	if fn != nil {
		fn(p)
	}
}
