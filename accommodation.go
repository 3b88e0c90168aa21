package travelgo

import (
	"context"
	"sort"

	"github.com/roamnz/travelgo/geo"
	"github.com/roamnz/travelgo/model"
)

// AccommodationQuery describes an accommodation search. MaxDistance of
// zero means the engine default radius.
type AccommodationQuery struct {
	Location    string
	Filter      model.SearchFilter
	MaxDistance float64
}

// candidate pairs a record with its computed distance during the
// proximity fallback. Distance is attached to the output by the
// formatter, never written back into the raw item.
type candidate struct {
	item     model.Item
	distance float64
}

// FindAccommodation searches for accommodation near a location. The
// exact-match phase filters by location-substring containment; only
// when it yields nothing does the proximity fallback run. Results found
// by exact criteria are never discarded in favor of the fallback.
func (e *Engine) FindAccommodation(ctx context.Context, q AccommodationQuery) ([]PublicRecord, error) {
	var records []PublicRecord
	var phase string

	err := e.withRetry(ctx, func(ctx context.Context) error {
		var opErr error
		records, phase, opErr = e.findAccommodation(ctx, q)
		return opErr
	})
	if err != nil {
		err = translateError(err)
		e.logger.LogSearch(ctx, q.Location, phase, 0, err)
		return nil, err
	}
	e.logger.LogSearch(ctx, q.Location, phase, len(records), nil)
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records, nil
}

func (e *Engine) findAccommodation(ctx context.Context, q AccommodationQuery) ([]PublicRecord, string, error) {
	// Exact-match phase: substring containment on the location text,
	// AND'd with the active filters, evaluated server-side.
	pred := append(model.Predicate{
		{Attr: "location", Op: model.OpContains, Value: q.Location},
	}, q.Filter.Conditions()...)

	items, err := e.store.Scan(ctx, e.tables.Accommodations, pred)
	if err != nil {
		return nil, "exact", err
	}
	if len(items) > 0 {
		records := make([]PublicRecord, len(items))
		for i, item := range items {
			records[i] = formatAccommodation(item)
		}
		return records, "exact", nil
	}

	// Proximity fallback.
	origin, ok := e.geo.Resolve(q.Location)
	if !ok {
		return nil, "proximity", &ErrLocationNotResolvable{Location: q.Location}
	}

	all, err := e.store.Scan(ctx, e.tables.Accommodations, nil)
	if err != nil {
		return nil, "proximity", err
	}

	maxDistance := q.MaxDistance
	if maxDistance <= 0 {
		maxDistance = e.maxDistance
	}

	var nearby []candidate
	for _, item := range all {
		if !q.Filter.Matches(item) {
			continue
		}
		// Records without both coordinates are excluded, never treated
		// as distance zero.
		lat, latOK := item.Coordinate("latitude")
		lon, lonOK := item.Coordinate("longitude")
		if !latOK || !lonOK {
			continue
		}
		d := geo.Distance(origin, geo.Point{Lat: lat, Lon: lon})
		if d <= maxDistance {
			nearby = append(nearby, candidate{item: item, distance: d})
		}
	}

	// Ascending by distance; ties keep the store's natural order.
	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].distance < nearby[j].distance
	})

	records := make([]PublicRecord, 0, len(nearby))
	for _, c := range nearby {
		rec := formatAccommodation(c.item)
		rec["distance_km"] = geo.RoundKm(c.distance)
		records = append(records, rec)
	}
	return records, "proximity", nil
}
