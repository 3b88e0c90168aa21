package travelgo

import (
	"math/rand"
	"time"

	"github.com/roamnz/travelgo/geo"
)

// Tables names the store tables the engine works against. The bookings
// table carries a global secondary index keyed by booking reference;
// its name defaults to "<bookings-table>-index".
type Tables struct {
	Bookings       string
	BookingsIndex  string
	Vehicles       string
	Accommodations string
}

// DefaultTables returns the table layout used by the demo data set.
func DefaultTables() Tables {
	return Tables{
		Bookings:       "customer_bookings",
		Vehicles:       "vehicle_information",
		Accommodations: "accommodation_options",
	}
}

func (t Tables) bookingsIndex() string {
	if t.BookingsIndex != "" {
		return t.BookingsIndex
	}
	return t.Bookings + "-index"
}

// Option configures the engine constructor.
type Option func(*Engine)

// WithLogger sets the logger. Defaults to a text logger on stderr.
func WithLogger(l *Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithGeoIndex sets the place-name index used by the proximity
// fallback. Defaults to geo.DefaultNZ().
func WithGeoIndex(idx *geo.Index) Option {
	return func(e *Engine) {
		if idx != nil {
			e.geo = idx
		}
	}
}

// WithMaxDistance sets the default proximity search radius in
// kilometers. Defaults to 50.
func WithMaxDistance(km float64) Option {
	return func(e *Engine) {
		if km > 0 {
			e.maxDistance = km
		}
	}
}

// WithTables sets the store table names.
func WithTables(t Tables) Option {
	return func(e *Engine) {
		e.tables = t
	}
}

// WithBookingPrefix sets the prefix of generated booking references.
func WithBookingPrefix(prefix string) Option {
	return func(e *Engine) {
		if prefix != "" {
			e.bookingPrefix = prefix
		}
	}
}

// WithRand sets the random source for booking-reference generation,
// letting tests pin a seed.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		if r != nil {
			e.rand = r
		}
	}
}

// WithClock sets the time source, letting tests pin booking dates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}
