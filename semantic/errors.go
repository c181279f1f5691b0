package semantic

import "errors"

var (
	// ErrModelNotReady is returned when search or indexing is requested
	// before the model has been initialized.
	ErrModelNotReady = errors.New("embedding model not ready")

	// ErrWorkerTerminated is returned for calls outstanding or issued after
	// the worker went away.
	ErrWorkerTerminated = errors.New("semantic worker terminated")

	// ErrWorkerFailed wraps an ERROR reply from the worker.
	ErrWorkerFailed = errors.New("semantic worker failed")

	// ErrUnexpectedReply is returned when a reply type does not match the request.
	ErrUnexpectedReply = errors.New("unexpected worker reply")

	// ErrUnknownRequest is returned by the worker for unsupported request types.
	ErrUnknownRequest = errors.New("unknown request type")

	// ErrInvalidMaxAttempts is returned when retry attempts is not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrDimensionMismatch is returned when vectors of different lengths are compared.
	ErrDimensionMismatch = errors.New("vector dimensions differ")

	// ErrVectorCount is returned when the model answers a batch with the
	// wrong number of vectors.
	ErrVectorCount = errors.New("embedder returned wrong number of vectors")
)
