package finance

import (
	"context"

	"github.com/erp/ledger/internal/domain/shared"
)

// maxConflictRetries bounds optimistic-lock retries per operation
const maxConflictRetries = 3

// withConflictRetry runs fn, retrying when it fails with a concurrency
// conflict. Each attempt must reload its aggregates inside fn, otherwise
// the retry would replay stale versions and conflict again.
func withConflictRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err = fn()
		if err == nil || !shared.IsCode(err, shared.CodeConcurrencyConflict) {
			return err
		}
	}
	return err
}
