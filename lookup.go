package travelgo

import (
	"context"
	"strings"

	"github.com/roamnz/travelgo/model"
)

// CustomerProfile is the formatted result of a customer lookup.
// Vehicle is nil when the booking carries no vehicle on file.
type CustomerProfile struct {
	Customer PublicRecord `json:"customer"`
	Vehicle  PublicRecord `json:"vehicle,omitempty"`
}

// LookupCustomer resolves a customer by one of the recognized
// identifier types. An unknown type fails before any store access.
// ErrNotFound is returned when no customer matches.
func (e *Engine) LookupCustomer(ctx context.Context, identifier string, typ model.IdentifierType) (*CustomerProfile, error) {
	if !typ.Valid() {
		return nil, &ErrInvalidIdentifierType{Type: typ}
	}

	var customer, vehicle model.Item
	err := e.withRetry(ctx, func(ctx context.Context) error {
		var opErr error
		customer, vehicle, opErr = e.lookupCustomer(ctx, identifier, typ)
		return opErr
	})
	if err != nil {
		err = translateError(err)
		e.logger.LogLookup(ctx, typ, false, err)
		return nil, err
	}
	e.logger.LogLookup(ctx, typ, customer != nil, nil)
	if customer == nil {
		return nil, ErrNotFound
	}

	profile := &CustomerProfile{Customer: formatBooking(customer)}
	if vehicle != nil {
		profile.Vehicle = formatVehicle(vehicle)
	}
	return profile, nil
}

// lookupCustomer dispatches to the strategy for the identifier type.
// A nil customer with nil error means no match.
func (e *Engine) lookupCustomer(ctx context.Context, identifier string, typ model.IdentifierType) (customer, vehicle model.Item, err error) {
	switch typ {
	case model.IdentifierContactPhone, model.IdentifierCustomerID:
		// Both key the primary table directly; only the key attribute differs.
		customer, err = e.queryFirst(ctx, model.Key{Name: string(typ), Value: identifier}, "")

	case model.IdentifierBookingRef:
		ref := normalizeBookingRef(identifier)
		customer, err = e.queryFirst(ctx, model.Key{Name: "booking_ref", Value: ref}, e.tables.bookingsIndex())

	case model.IdentifierVehicleReg:
		// Vehicle record first, then the owning customer via a filtered scan.
		vehicle, err = e.store.GetItem(ctx, e.tables.Vehicles, model.Key{Name: "registration", Value: identifier})
		if err != nil || vehicle == nil {
			return nil, nil, err
		}
		var items []model.Item
		items, err = e.store.Scan(ctx, e.tables.Bookings, model.Predicate{
			{Attr: "vehicle_reg", Op: model.OpEqual, Value: identifier},
		})
		if err == nil && len(items) > 0 {
			customer = items[0]
		}
		return customer, vehicle, err
	}
	if err != nil || customer == nil {
		return customer, nil, err
	}

	// Join the vehicle record when the booking names one.
	if reg, ok := customer.String("vehicle_reg"); ok && reg != "" {
		vehicle, err = e.store.GetItem(ctx, e.tables.Vehicles, model.Key{Name: "registration", Value: reg})
	}
	return customer, vehicle, err
}

// queryFirst returns the first item matching the key, in the store's
// natural order. No secondary sort is imposed.
func (e *Engine) queryFirst(ctx context.Context, key model.Key, index string) (model.Item, error) {
	items, err := e.store.Query(ctx, e.tables.Bookings, key, index)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

// normalizeBookingRef trims stray whitespace customers read out and
// uppercases the reference before hitting the index. Dashes are part
// of the reference format and stay.
func normalizeBookingRef(ref string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(ref), " ", ""))
}
