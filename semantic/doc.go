// Package semantic ranks documents against a query by embedding
// similarity, off the caller's thread.
//
// A Worker owns the embedding model and the vector cache. It never runs
// on the caller's goroutine: a Transport carries Requests to it and
// Messages back, either to a dedicated OS thread in the same process
// (LocalTransport) or to a child process speaking JSON lines
// (ProcessTransport). The Bridge is the caller side: it tags every
// request with a unique ID, demultiplexes replies by that ID and routes
// progress events to a callback.
//
//	worker, _ := semantic.NewWorker(embedder, semantic.WithStore(embeddings))
//	bridge, _ := semantic.NewBridge(semantic.NewLocalTransport(worker))
//	defer bridge.Close()
//
//	if _, err := bridge.InitModel(ctx); err != nil { ... }
//	results, err := bridge.Search(ctx, "explosion of flame", documents)
package semantic
