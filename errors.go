package travelgo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roamnz/travelgo/model"
	"github.com/roamnz/travelgo/store"
)

var (
	// ErrNotFound is returned when a lookup completes without error but
	// matches no records. It is a valid empty outcome, distinct from any
	// system failure.
	ErrNotFound = errors.New("not found")

	// ErrSystemUnavailable is returned for store, network, or credential
	// failures the engine cannot recover from. The underlying cause is
	// preserved for the operational log via errors.Unwrap.
	ErrSystemUnavailable = errors.New("system unavailable")
)

// ErrInvalidIdentifierType indicates an unrecognized lookup identifier type.
// No store access is performed when this is returned.
type ErrInvalidIdentifierType struct {
	Type model.IdentifierType
}

func (e *ErrInvalidIdentifierType) Error() string {
	return fmt.Sprintf("invalid identifier type: %q", string(e.Type))
}

// ErrLocationNotResolvable indicates that the proximity fallback could
// not map the requested location to coordinates. It names the location
// so callers can distinguish "no coordinates known" from "nothing nearby".
type ErrLocationNotResolvable struct {
	Location string
}

func (e *ErrLocationNotResolvable) Error() string {
	return fmt.Sprintf("could not find coordinates for location: %s", e.Location)
}

// ErrMissingFields indicates a write request missing required fields.
// All missing fields are listed, not just the first.
type ErrMissingFields struct {
	Fields []string
}

func (e *ErrMissingFields) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// translateError maps store-layer failures onto the engine contract.
// Credential expiry is handled before this point by the retry wrapper;
// everything else fatal collapses into ErrSystemUnavailable with the
// cause retained for logging.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrSystemUnavailable) || errors.Is(err, ErrNotFound) {
		return err
	}
	var ce *store.ClientError
	if errors.Is(err, store.ErrCredentialExpired) || errors.Is(err, store.ErrUnavailable) || errors.As(err, &ce) {
		return fmt.Errorf("%w: %w", ErrSystemUnavailable, err)
	}
	return err
}
