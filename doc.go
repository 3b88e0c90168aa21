// Package travelgo implements a resilient lookup engine over a
// key-value item store holding travel records: customer bookings,
// accommodations, and vehicles.
//
// Every operation follows the same shape:
//
//   - resolve a lookup by one of several identifier types
//   - fall back from an exact-match query to a geo-proximity scan when
//     no exact match exists
//   - transparently recover from an expired store credential by
//     refreshing and retrying the whole operation exactly once
//
// # Usage
//
//	s, err := store.NewDynamoDB(ctx, nil)
//	if err != nil { ... }
//	engine := travelgo.New(s,
//	    travelgo.WithGeoIndex(geo.DefaultNZ()),
//	    travelgo.WithBookingPrefix("TGO"),
//	)
//
//	profile, err := engine.LookupCustomer(ctx, "+6421555001", model.IdentifierContactPhone)
//
// # Error contract
//
// ErrNotFound is a valid empty outcome, not a failure. Caller mistakes
// surface as typed errors (ErrInvalidIdentifierType,
// ErrLocationNotResolvable, ErrMissingFields). Everything fatal
// collapses into ErrSystemUnavailable with the cause attached for the
// operational log.
package travelgo
