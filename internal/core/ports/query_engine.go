package ports

import (
	"context"

	"sia-service/internal/core/domain"
)

// RowIterator streams the rows of one query result. Callers must invoke
// Close once done; Err reports any failure encountered while iterating.
type RowIterator interface {
	// Next advances to the next row, returning false when the result is
	// exhausted or truncated at the query's record limit.
	Next() bool

	// Record returns the current row. Only valid after a true Next.
	Record() *domain.Record

	// Overflowed reports whether the backend had more rows than the record
	// limit allowed. Only meaningful once Next has returned false.
	Overflowed() bool

	Err() error
	Close()
}

// QueryEngine executes a translated SIAv2 query against one butler-backed
// repository. Implementations exist for DIRECT (database) and REMOTE
// (delegated HTTP) collections. The token is the caller's bearer token,
// forwarded to remote repositories and ignored by direct ones.
type QueryEngine interface {
	Query(ctx context.Context, collection *domain.Collection, query *domain.Query, token string) (RowIterator, error)
}

// AvailabilityProber checks whether a collection's backing repository is
// reachable.
type AvailabilityProber interface {
	Probe(ctx context.Context, collection *domain.Collection) error
}
