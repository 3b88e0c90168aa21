package travelgo

import (
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/roamnz/travelgo/geo"
	"github.com/roamnz/travelgo/store"
)

// Engine is the resilient lookup engine. It resolves lookups by
// identifier type, falls back from exact matches to geo-proximity
// search, and recovers from expired store credentials with a single
// refresh-and-retry.
//
// An Engine is safe for concurrent use: its shared state is the
// immutable geo index, the store itself, and a mutex-guarded rand
// source. Retry state is scoped to each logical call.
type Engine struct {
	store         store.Store
	geo           *geo.Index
	logger        *Logger
	tables        Tables
	maxDistance   float64
	bookingPrefix string
	randMu        sync.Mutex
	rand          *rand.Rand
	now           func() time.Time

	refreshGroup singleflight.Group
}

// New creates an Engine over the given store.
func New(s store.Store, optFns ...Option) *Engine {
	e := &Engine{
		store:         s,
		geo:           geo.DefaultNZ(),
		logger:        NewLogger(nil),
		tables:        DefaultTables(),
		maxDistance:   50,
		bookingPrefix: "TGO",
		rand:          rand.New(rand.NewSource(time.Now().UnixNano())),
		now:           time.Now,
	}
	for _, fn := range optFns {
		fn(e)
	}
	return e
}
