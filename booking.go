package travelgo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/roamnz/travelgo/model"
)

const bookingRefAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// BookingRequest carries the fields of a new booking. ContactPhone,
// AccommodationID, TripStart, and TripEnd are required; the rest are
// optional and omitted from the stored item when unset.
type BookingRequest struct {
	ContactPhone    string
	AccommodationID string
	TripStart       string
	TripEnd         string

	CustomerName       string
	SiteType           string
	VehicleReg         string
	CustomerBookingRef string
	SpecialRequests    string
	NumGuests          int
}

// BookingConfirmation is the result of a successful booking creation.
type BookingConfirmation struct {
	BookingRef string       `json:"booking_ref"`
	Message    string       `json:"message"`
	Details    PublicRecord `json:"details"`
}

// CreateBooking validates the request, snapshots the accommodation's
// name and location into the booking, and persists one item keyed by
// (contact_phone, booking_ref). Later accommodation edits never alter
// the stored booking.
func (e *Engine) CreateBooking(ctx context.Context, req BookingRequest) (*BookingConfirmation, error) {
	if missing := req.missingFields(); len(missing) > 0 {
		return nil, &ErrMissingFields{Fields: missing}
	}

	var item model.Item
	err := e.withRetry(ctx, func(ctx context.Context) error {
		accommodation, opErr := e.store.GetItem(ctx, e.tables.Accommodations,
			model.Key{Name: "id", Value: req.AccommodationID})
		if opErr != nil {
			return opErr
		}
		if accommodation == nil {
			return fmt.Errorf("accommodation with id %s: %w", req.AccommodationID, ErrNotFound)
		}

		item = e.bookingItem(req, accommodation)
		return e.store.Put(ctx, e.tables.Bookings, item)
	})
	if err != nil {
		err = translateError(err)
		e.logger.LogBooking(ctx, "", err)
		return nil, err
	}

	ref, _ := item.String("booking_ref")
	e.logger.LogBooking(ctx, ref, nil)
	return &BookingConfirmation{
		BookingRef: ref,
		Message:    "Booking created successfully",
		Details:    formatBooking(item),
	}, nil
}

func (r BookingRequest) missingFields() []string {
	var missing []string
	if r.ContactPhone == "" {
		missing = append(missing, "contact_phone")
	}
	if r.AccommodationID == "" {
		missing = append(missing, "accommodation_id")
	}
	if r.TripStart == "" {
		missing = append(missing, "trip_start")
	}
	if r.TripEnd == "" {
		missing = append(missing, "trip_end")
	}
	return missing
}

// bookingItem builds the stored record: required fields, the
// denormalized accommodation snapshot, and only the optional fields
// actually provided.
func (e *Engine) bookingItem(req BookingRequest, accommodation model.Item) model.Item {
	name, _ := accommodation.String("name")
	location, _ := accommodation.String("location")

	item := model.Item{
		"booking_ref":            e.generateBookingRef(),
		"contact_phone":          req.ContactPhone,
		"accommodation_id":       req.AccommodationID,
		"accommodation_name":     name,
		"accommodation_location": location,
		"trip_start":             req.TripStart,
		"trip_end":               req.TripEnd,
		"status":                 "confirmed",
		"created_at":             e.now().Format(time.RFC3339),
	}

	if req.CustomerName != "" {
		item["customer_name"] = req.CustomerName
	}
	if req.SiteType != "" {
		item["site_type"] = req.SiteType
	}
	if req.VehicleReg != "" {
		item["vehicle_reg"] = req.VehicleReg
	}
	if req.CustomerBookingRef != "" {
		item["customer_booking_ref"] = req.CustomerBookingRef
	}
	if req.NumGuests > 0 {
		item["num_guests"] = model.Number(strconv.Itoa(req.NumGuests))
	}
	if req.SpecialRequests != "" {
		item["special_requests"] = req.SpecialRequests
	}
	return item
}

// generateBookingRef builds a PREFIX-YYYYMMDD-RRRRR reference. The
// random part is drawn uniformly from the uppercase alphanumeric
// alphabet; the rand source is guarded so concurrent bookings do not
// race on its state. Collisions are not checked; at demo scale the
// probability is acceptable.
func (e *Engine) generateBookingRef() string {
	random := make([]byte, 5)
	e.randMu.Lock()
	for i := range random {
		random[i] = bookingRefAlphabet[e.rand.Intn(len(bookingRefAlphabet))]
	}
	e.randMu.Unlock()
	return fmt.Sprintf("%s-%s-%s", e.bookingPrefix, e.now().Format("20060102"), random)
}
