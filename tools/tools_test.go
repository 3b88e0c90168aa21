package tools

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roamnz/travelgo"
	"github.com/roamnz/travelgo/flight"
	"github.com/roamnz/travelgo/model"
	"github.com/roamnz/travelgo/store"
)

func newTestRegistry(t *testing.T, m *store.Memory, optFns ...RegistryOption) *Registry {
	t.Helper()
	engine := travelgo.New(m, travelgo.WithLogger(travelgo.NoopLogger()))
	opts := append([]RegistryOption{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, optFns...)
	return NewRegistry(engine, opts...)
}

func seedBooking(m *store.Memory) {
	m.Seed("customer_bookings", model.Item{
		"contact_phone":      "+6421555001",
		"booking_ref":        "TGO-20260110-K7Q2M",
		"customer_name":      "Aroha Ngata",
		"accommodation_name": "Auckland Top Park",
	})
}

func TestCustomerLookupSuccess(t *testing.T) {
	m := store.NewMemory()
	seedBooking(m)
	r := newTestRegistry(t, m)

	env := r.CustomerLookup(context.Background(), CustomerLookupParams{
		Identifier:     "+6421555001",
		IdentifierType: "contact_phone",
	})
	require.Equal(t, StatusSuccess, env.Status)
	profile, ok := env.Response.(*travelgo.CustomerProfile)
	require.True(t, ok)
	assert.Equal(t, "Aroha Ngata", profile.Customer["customer_name"])
}

func TestCustomerLookupNotFound(t *testing.T) {
	r := newTestRegistry(t, store.NewMemory())

	env := r.CustomerLookup(context.Background(), CustomerLookupParams{
		Identifier:     "+6400000000",
		IdentifierType: "contact_phone",
	})
	assert.Equal(t, StatusError, env.Status)
	assert.Equal(t, "Sorry, we couldn't find any customer information with the provided details.", env.Response)
}

func TestCustomerLookupInvalidType(t *testing.T) {
	r := newTestRegistry(t, store.NewMemory())

	env := r.CustomerLookup(context.Background(), CustomerLookupParams{
		Identifier:     "x",
		IdentifierType: "email",
	})
	assert.Equal(t, StatusError, env.Status)
	assert.Contains(t, env.Response, "invalid identifier type")
}

func TestCustomerLookupSystemUnavailable(t *testing.T) {
	m := store.NewMemory()
	m.FailNext(store.ErrUnavailable)
	r := newTestRegistry(t, m)

	env := r.CustomerLookup(context.Background(), CustomerLookupParams{
		Identifier:     "+6421555001",
		IdentifierType: "contact_phone",
	})
	assert.Equal(t, StatusError, env.Status)
	assert.Equal(t, "We are currently unable to retrieve customer information. Please try again later.", env.Response)
}

// countingHandler records error-level log records across goroutines.
type countingHandler struct {
	mu     sync.Mutex
	errors int
}

func (h *countingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *countingHandler) Handle(_ context.Context, rec slog.Record) error {
	if rec.Level >= slog.LevelError {
		h.mu.Lock()
		h.errors++
		h.mu.Unlock()
	}
	return nil
}

func (h *countingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *countingHandler) WithGroup(string) slog.Handler      { return h }

func TestSystemUnavailableLoggedOnce(t *testing.T) {
	h := &countingHandler{}
	m := store.NewMemory()
	engine := travelgo.New(m, travelgo.WithLogger(travelgo.NewLogger(h)))
	r := NewRegistry(engine, WithLogger(slog.New(h)))

	m.FailNext(store.ErrUnavailable)
	env := r.CustomerLookup(context.Background(), CustomerLookupParams{
		Identifier:     "+6421555001",
		IdentifierType: "contact_phone",
	})
	require.Equal(t, StatusError, env.Status)
	assert.Equal(t, 1, h.errors)

	h.errors = 0
	m.FailNext(store.ErrUnavailable)
	env = r.FindAccommodation(context.Background(), AccommodationFinderParams{Location: "Auckland"})
	require.Equal(t, StatusError, env.Status)
	assert.Equal(t, 1, h.errors)

	h.errors = 0
	m.FailNext(store.ErrUnavailable)
	env = r.ManageBooking(context.Background(), BookingManagerParams{
		Action:          "create",
		ContactPhone:    "+6421555001",
		AccommodationID: "AKL-001",
		TripStart:       "2026-09-01",
		TripEnd:         "2026-09-08",
	})
	require.Equal(t, StatusError, env.Status)
	assert.Equal(t, 1, h.errors)
}

func TestFindAccommodationSuccess(t *testing.T) {
	m := store.NewMemory()
	m.Seed("accommodation_options", model.Item{
		"id":       "AKL-001",
		"name":     "Auckland Top Park",
		"location": "Auckland Central",
	})
	r := newTestRegistry(t, m)

	env := r.FindAccommodation(context.Background(), AccommodationFinderParams{
		Location: "Auckland",
	})
	require.Equal(t, StatusSuccess, env.Status)
	records, ok := env.Response.([]travelgo.PublicRecord)
	require.True(t, ok)
	require.Len(t, records, 1)
	assert.Equal(t, "AKL-001", records[0]["id"])
}

func TestFindAccommodationNoneFound(t *testing.T) {
	r := newTestRegistry(t, store.NewMemory())

	env := r.FindAccommodation(context.Background(), AccommodationFinderParams{
		Location: "Queenstown",
	})
	assert.Equal(t, StatusError, env.Status)
	assert.Equal(t, "No accommodation options found matching your criteria near Queenstown", env.Response)
}

func TestFindAccommodationUnresolvableLocation(t *testing.T) {
	r := newTestRegistry(t, store.NewMemory())

	env := r.FindAccommodation(context.Background(), AccommodationFinderParams{
		Location: "Gotham City",
	})
	assert.Equal(t, StatusError, env.Status)
	assert.Contains(t, env.Response, "could not find coordinates")
}

func TestManageBookingCreate(t *testing.T) {
	m := store.NewMemory()
	m.Seed("accommodation_options", model.Item{
		"id":       "AKL-001",
		"name":     "Auckland Top Park",
		"location": "Auckland Central",
	})
	r := newTestRegistry(t, m)

	env := r.ManageBooking(context.Background(), BookingManagerParams{
		Action:          "create",
		ContactPhone:    "+6421555001",
		AccommodationID: "AKL-001",
		TripStart:       "2026-09-01",
		TripEnd:         "2026-09-08",
	})
	require.Equal(t, StatusSuccess, env.Status)
	conf, ok := env.Response.(*travelgo.BookingConfirmation)
	require.True(t, ok)
	assert.Equal(t, "Booking created successfully", conf.Message)
	assert.NotEmpty(t, conf.BookingRef)
}

func TestManageBookingCreateMissingFields(t *testing.T) {
	r := newTestRegistry(t, store.NewMemory())

	env := r.ManageBooking(context.Background(), BookingManagerParams{
		Action:       "create",
		ContactPhone: "+6421555001",
	})
	assert.Equal(t, StatusError, env.Status)
	assert.Contains(t, env.Response, "missing required fields")
	assert.Contains(t, env.Response, "accommodation_id")
}

func TestManageBookingCreateUnknownAccommodation(t *testing.T) {
	r := newTestRegistry(t, store.NewMemory())

	env := r.ManageBooking(context.Background(), BookingManagerParams{
		Action:          "create",
		ContactPhone:    "+6421555001",
		AccommodationID: "NOPE-001",
		TripStart:       "2026-09-01",
		TripEnd:         "2026-09-08",
	})
	assert.Equal(t, StatusError, env.Status)
	assert.Equal(t, "Accommodation with ID NOPE-001 not found", env.Response)
}

func TestManageBookingUnimplementedActions(t *testing.T) {
	r := newTestRegistry(t, store.NewMemory())

	tests := []struct {
		name   string
		params BookingManagerParams
		want   string
	}{
		{"ModifyWithoutRef", BookingManagerParams{Action: "modify"}, "Booking reference required for modification"},
		{"Modify", BookingManagerParams{Action: "modify", BookingRef: "TGO-20260110-K7Q2M"}, "Modification feature not yet implemented"},
		{"CancelWithoutRef", BookingManagerParams{Action: "cancel"}, "Booking reference required for cancellation"},
		{"Cancel", BookingManagerParams{Action: "cancel", BookingRef: "TGO-20260110-K7Q2M"}, "Cancellation feature not yet implemented"},
		{"Invalid", BookingManagerParams{Action: "upgrade"}, "Invalid action: upgrade. Must be one of: create, modify, cancel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := r.ManageBooking(context.Background(), tt.params)
			assert.Equal(t, StatusError, env.Status)
			assert.Equal(t, tt.want, env.Response)
		})
	}
}

func TestTroubleshoot(t *testing.T) {
	r := newTestRegistry(t, store.NewMemory())

	env := r.Troubleshoot(context.Background(), TroubleshootingParams{
		ApplianceType:    "fridge",
		IssueDescription: "not cooling at all",
	})
	require.Equal(t, StatusSuccess, env.Status)

	env = r.Troubleshoot(context.Background(), TroubleshootingParams{
		ApplianceType:    "jetpack",
		IssueDescription: "won't fly",
	})
	assert.Equal(t, StatusError, env.Status)
	assert.Contains(t, env.Response, "invalid appliance type")
}

type stubFlightSearcher struct {
	offers []flight.Offer
	err    error
	last   flight.SearchRequest
}

func (s *stubFlightSearcher) Search(_ context.Context, req flight.SearchRequest) ([]flight.Offer, error) {
	s.last = req
	return s.offers, s.err
}

func TestSearchFlights(t *testing.T) {
	stub := &stubFlightSearcher{offers: []flight.Offer{
		{Price: flight.Price{Total: "189.00", Currency: "NZD"}},
	}}
	r := newTestRegistry(t, store.NewMemory(), WithFlightSearcher(stub))

	env := r.SearchFlights(context.Background(), FlightSearchParams{
		Source:               "akl",
		Destination:          "wlg",
		DepartureDate:        "2026-09-01",
		IncludedAirlineCodes: []string{"NZ", "QF"},
	})
	require.Equal(t, StatusSuccess, env.Status)
	resp, ok := env.Response.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Found 1 flights from AKL to WLG", resp["message"])
	// Airline preferences pass through untouched.
	assert.Equal(t, []string{"NZ", "QF"}, stub.last.IncludedAirlineCodes)
}

func TestSearchFlightsEmptyIsSuccess(t *testing.T) {
	r := newTestRegistry(t, store.NewMemory(), WithFlightSearcher(&stubFlightSearcher{}))

	env := r.SearchFlights(context.Background(), FlightSearchParams{
		Source: "AKL", Destination: "WLG", DepartureDate: "2026-09-01",
	})
	require.Equal(t, StatusSuccess, env.Status)
	resp := env.Response.(map[string]any)
	assert.Equal(t, "No flights found for the specified criteria.", resp["message"])
}

func TestSearchFlightsInvalidDate(t *testing.T) {
	stub := &stubFlightSearcher{err: &flight.ErrInvalidDate{Field: "departure_date", Value: "bad"}}
	r := newTestRegistry(t, store.NewMemory(), WithFlightSearcher(stub))

	env := r.SearchFlights(context.Background(), FlightSearchParams{
		Source: "AKL", Destination: "WLG", DepartureDate: "bad",
	})
	assert.Equal(t, StatusError, env.Status)
	assert.Equal(t, "Invalid date format. Use YYYY-MM-DD.", env.Response)
}

func TestSearchFlightsUpstreamFailure(t *testing.T) {
	stub := &stubFlightSearcher{err: errors.New("token endpoint returned status 500")}
	r := newTestRegistry(t, store.NewMemory(), WithFlightSearcher(stub))

	env := r.SearchFlights(context.Background(), FlightSearchParams{
		Source: "AKL", Destination: "WLG", DepartureDate: "2026-09-01",
	})
	assert.Equal(t, StatusError, env.Status)
	assert.Equal(t, "We are currently unable to search for flights. Please try again later.", env.Response)
}

func TestSearchFlightsNotConfigured(t *testing.T) {
	r := newTestRegistry(t, store.NewMemory())

	env := r.SearchFlights(context.Background(), FlightSearchParams{
		Source: "AKL", Destination: "WLG", DepartureDate: "2026-09-01",
	})
	assert.Equal(t, StatusError, env.Status)
	assert.Equal(t, "Flight search is not configured.", env.Response)
}

func TestCallDispatch(t *testing.T) {
	m := store.NewMemory()
	seedBooking(m)
	r := newTestRegistry(t, m)

	env, err := r.Call(context.Background(), ToolCustomerLookup,
		json.RawMessage(`{"identifier": "+6421555001", "identifier_type": "contact_phone"}`))
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, env.Status)
}

func TestCallUnknownTool(t *testing.T) {
	r := newTestRegistry(t, store.NewMemory())

	_, err := r.Call(context.Background(), "weatherReport", json.RawMessage(`{}`))
	var unknown *ErrUnknownTool
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "weatherReport", unknown.Name)
}

func TestCallBadArguments(t *testing.T) {
	r := newTestRegistry(t, store.NewMemory())

	_, err := r.Call(context.Background(), ToolCustomerLookup, json.RawMessage(`{`))
	assert.Error(t, err)
}
