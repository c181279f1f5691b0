package repository

import "errors"

var (
	// ErrUnknownSortOption indicates a sort key other than name, level, range or duration.
	ErrUnknownSortOption = errors.New("unknown sort option")

	// ErrInvalidUsage indicates a repository built without a triplet store.
	ErrInvalidUsage = errors.New("invalid repository usage")
)
