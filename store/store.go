// Package store provides the adapter over the external item store.
//
// Two implementations exist: DynamoDB for production and Memory for
// tests. Both speak the same narrow contract (get, query, scan, put)
// and the same failure taxonomy, so the lookup engine never sees
// backend-specific errors.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roamnz/travelgo/model"
)

var (
	// ErrCredentialExpired indicates the store rejected the call because
	// the access credential has expired. The engine recovers from this
	// with a single refresh-and-retry.
	ErrCredentialExpired = errors.New("store: credential expired")

	// ErrUnavailable indicates the store could not be reached or refused
	// the call for a non-recoverable reason.
	ErrUnavailable = errors.New("store: unavailable")
)

// ClientError is a generic request failure reported by the store.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ClientError struct {
	Code    string
	Message string
	cause   error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("store: client error %s: %s", e.Code, e.Message)
}

func (e *ClientError) Unwrap() error { return e.cause }

// Store is the minimal interface the lookup engine requires.
//
// GetItem returns a nil item (and nil error) when the key has no record.
// Query returns items in the store's natural order for the key.
// Scan applies the predicate server-side where the backend supports it.
type Store interface {
	GetItem(ctx context.Context, table string, key model.Key) (model.Item, error)
	Query(ctx context.Context, table string, key model.Key, index string) ([]model.Item, error)
	Scan(ctx context.Context, table string, pred model.Predicate) ([]model.Item, error)
	Put(ctx context.Context, table string, item model.Item) error
}

// Refresher is implemented by stores whose access credentials can be
// renewed. Refresh must be safe for concurrent use.
type Refresher interface {
	Refresh(ctx context.Context) error
}
