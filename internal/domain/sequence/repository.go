package sequence

import "context"

// Repository persists document sequence counters
type Repository interface {
	// FindForUpdate loads the counter row for a (prefix, scope) pair with an
	// exclusive lock, creating the row on first use. Must be called inside a
	// transaction scope.
	FindForUpdate(ctx context.Context, prefix, scopeKey string) (*DocumentSequence, error)
	// Save persists the advanced counter
	Save(ctx context.Context, seq *DocumentSequence) error
}
