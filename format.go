package travelgo

import "github.com/roamnz/travelgo/model"

// PublicRecord is a store item trimmed to its caller-visible fields.
// Fields absent on the raw record are omitted, never defaulted.
type PublicRecord map[string]any

// Allow-lists per record type. Anything not listed stays internal.
var (
	accommodationFields = []string{
		"id", "name", "location", "type", "price_range",
		"family_friendly", "pet_friendly", "amenities",
		"powered_sites_available", "unpowered_sites_available", "cabins_available",
	}

	bookingFields = []string{
		"booking_ref", "contact_phone", "customer_id", "customer_name", "customer_email",
		"accommodation_id", "accommodation_name", "accommodation_location",
		"trip_start", "trip_end", "itinerary", "status", "created_at",
		"site_type", "vehicle_reg", "vehicle_model", "num_guests", "special_requests",
		"customer_booking_ref",
	}

	vehicleFields = []string{
		"registration", "model", "year", "berths", "self_contained", "features",
	}
)

func formatAccommodation(item model.Item) PublicRecord {
	return project(item, accommodationFields)
}

func formatBooking(item model.Item) PublicRecord {
	return project(item, bookingFields)
}

func formatVehicle(item model.Item) PublicRecord {
	return project(item, vehicleFields)
}

// project copies the allow-listed fields that are present. Decimal
// values become native floats here and nowhere else: this is the one
// place float imprecision is introduced, at the output boundary.
func project(item model.Item, fields []string) PublicRecord {
	rec := make(PublicRecord, len(fields))
	for _, f := range fields {
		v, ok := item[f]
		if !ok {
			continue
		}
		if n, isNumber := v.(model.Number); isNumber {
			f64, err := n.Float64()
			if err != nil {
				continue
			}
			rec[f] = f64
			continue
		}
		rec[f] = v
	}
	return rec
}
