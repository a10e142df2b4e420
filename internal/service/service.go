package service

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/libroteca/library-service/internal/errs"
)

const (
	maxAttempts  = 3
	retryBackoff = 50 * time.Millisecond
)

// withRetry re-runs fn on transient store failures (deadlock, lock-wait
// timeout). Every ledger operation is a single transaction, so re-running
// the whole thing is safe.
func withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); !errors.Is(err, errs.ErrStoreTransient) || attempt == maxAttempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
}
