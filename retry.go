package travelgo

import (
	"context"
	"errors"
	"fmt"

	"github.com/roamnz/travelgo/store"
)

// withRetry runs op and, when it fails with an expired store
// credential, refreshes credentials and re-runs the entire operation
// exactly once. A second expiry is fatal. Retry state lives in this
// call frame, so concurrent calls never share or compound retries.
func (e *Engine) withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	err := op(ctx)
	if err == nil || !errors.Is(err, store.ErrCredentialExpired) {
		return err
	}

	e.logger.LogRetry(ctx, err)
	if rerr := e.refreshCredentials(ctx); rerr != nil {
		return fmt.Errorf("%w: refresh credentials: %w", ErrSystemUnavailable, rerr)
	}

	err = op(ctx)
	if errors.Is(err, store.ErrCredentialExpired) {
		return fmt.Errorf("%w: credential expired after refresh: %w", ErrSystemUnavailable, err)
	}
	return err
}

// refreshCredentials renews the store credential. Concurrent callers
// collapse onto one refresh.
func (e *Engine) refreshCredentials(ctx context.Context) error {
	r, ok := e.store.(store.Refresher)
	if !ok {
		return errors.New("store does not support credential refresh")
	}
	_, err, _ := e.refreshGroup.Do("refresh", func() (any, error) {
		return nil, r.Refresh(ctx)
	})
	return err
}
