package sequence

import (
	"context"
	"errors"
	"time"

	inventoryapp "github.com/erp/stockcore/internal/application/inventory"
	"github.com/erp/stockcore/internal/domain/sequence"
	"github.com/erp/stockcore/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	// maxAllocationAttempts bounds retries when the sequence row is contended
	maxAllocationAttempts = 3
	// allocationRetryDelay is the pause between allocation attempts
	allocationRetryDelay = 10 * time.Millisecond
)

// Generator allocates collision-free human-readable reference codes such as
// TRF-20250101-0007. The read-increment-write on the counter row happens under
// an exclusive row lock, so N concurrent callers with the same prefix and date
// scope receive N distinct, monotonic numbers.
type Generator struct {
	scope    inventoryapp.TransactionScope
	registry *sequence.Registry
	logger   *zap.Logger
}

// NewGenerator creates a Generator backed by the given prefix registry
func NewGenerator(scope inventoryapp.TransactionScope, registry *sequence.Registry, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{scope: scope, registry: registry, logger: logger}
}

// Next allocates the next reference code for a document kind in its own
// transaction. After the bounded retries are exhausted the caller receives
// ErrSequenceExhausted and must abort the creating operation with no partial
// record persisted.
func (g *Generator) Next(ctx context.Context, kind shared.DocumentKind, at time.Time) (string, error) {
	var code string
	err := g.withRetry(ctx, func() error {
		return g.scope.Execute(ctx, func(repos inventoryapp.TransactionalRepositories) error {
			var err error
			code, err = g.NextTx(ctx, repos, kind, at)
			return err
		})
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// NextTx allocates the next reference code inside an existing transaction.
// Used when the document and its code must be created atomically.
func (g *Generator) NextTx(ctx context.Context, repos inventoryapp.TransactionalRepositories, kind shared.DocumentKind, at time.Time) (string, error) {
	prefix, err := g.registry.PrefixFor(kind)
	if err != nil {
		return "", err
	}

	scopeKey := sequence.DateScopeKey(at)
	seq, err := repos.Sequences().FindForUpdate(ctx, prefix, scopeKey)
	if err != nil {
		return "", err
	}

	code := seq.Advance()
	if err := repos.Sequences().Save(ctx, seq); err != nil {
		return "", err
	}
	return code, nil
}

// withRetry runs fn up to maxAllocationAttempts times, retrying only on lock
// contention; exhaustion surfaces ErrSequenceExhausted.
func (g *Generator) withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAllocationAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil || !errors.Is(lastErr, shared.ErrConcurrencyConflict) {
			return lastErr
		}

		g.logger.Debug("sequence row contended, retrying", zap.Int("attempt", attempt))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(allocationRetryDelay):
		}
	}
	return shared.ErrSequenceExhausted
}
