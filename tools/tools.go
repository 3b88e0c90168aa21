// Package tools exposes the engine's operations behind a uniform
// {status, response} envelope for assistant tool calls. Internal
// failure detail never crosses this boundary: callers get a polite
// message while the cause goes to the log.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/roamnz/travelgo"
	"github.com/roamnz/travelgo/flight"
	"github.com/roamnz/travelgo/model"
	"github.com/roamnz/travelgo/troubleshoot"
)

// Tool names, as registered with the assistant runtime.
const (
	ToolCustomerLookup           = "customerLookup"
	ToolAccommodationFinder      = "accommodationFinder"
	ToolBookingManager           = "bookingManager"
	ToolApplianceTroubleshooting = "applianceTroubleshooting"
	ToolFlightSearch             = "flightSearch"
)

// Envelope statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the uniform tool response shape.
type Envelope struct {
	Status   string `json:"status"`
	Response any    `json:"response"`
}

func success(v any) Envelope {
	return Envelope{Status: StatusSuccess, Response: v}
}

func failure(msg string) Envelope {
	return Envelope{Status: StatusError, Response: msg}
}

// ErrUnknownTool indicates a Call for a tool name that is not registered.
type ErrUnknownTool struct {
	Name string
}

func (e *ErrUnknownTool) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

// FlightSearcher is the flight client surface the registry needs.
type FlightSearcher interface {
	Search(ctx context.Context, req flight.SearchRequest) ([]flight.Offer, error)
}

// Registry binds the engine and auxiliary clients to named tools.
type Registry struct {
	engine  *travelgo.Engine
	flights FlightSearcher
	logger  *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithFlightSearcher enables the flight search tool.
func WithFlightSearcher(fs FlightSearcher) RegistryOption {
	return func(r *Registry) { r.flights = fs }
}

// WithLogger overrides the registry logger.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry creates a tool registry around the engine.
func NewRegistry(engine *travelgo.Engine, optFns ...RegistryOption) *Registry {
	r := &Registry{
		engine: engine,
		logger: slog.Default(),
	}
	for _, fn := range optFns {
		fn(r)
	}
	return r
}

// Call dispatches a tool invocation by name with JSON-encoded
// arguments. An unknown name or undecodable arguments are caller
// errors, returned directly rather than wrapped in an envelope.
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (Envelope, error) {
	switch name {
	case ToolCustomerLookup:
		var p CustomerLookupParams
		if err := json.Unmarshal(args, &p); err != nil {
			return Envelope{}, fmt.Errorf("decode %s arguments: %w", name, err)
		}
		return r.CustomerLookup(ctx, p), nil

	case ToolAccommodationFinder:
		var p AccommodationFinderParams
		if err := json.Unmarshal(args, &p); err != nil {
			return Envelope{}, fmt.Errorf("decode %s arguments: %w", name, err)
		}
		return r.FindAccommodation(ctx, p), nil

	case ToolBookingManager:
		var p BookingManagerParams
		if err := json.Unmarshal(args, &p); err != nil {
			return Envelope{}, fmt.Errorf("decode %s arguments: %w", name, err)
		}
		return r.ManageBooking(ctx, p), nil

	case ToolApplianceTroubleshooting:
		var p TroubleshootingParams
		if err := json.Unmarshal(args, &p); err != nil {
			return Envelope{}, fmt.Errorf("decode %s arguments: %w", name, err)
		}
		return r.Troubleshoot(ctx, p), nil

	case ToolFlightSearch:
		var p FlightSearchParams
		if err := json.Unmarshal(args, &p); err != nil {
			return Envelope{}, fmt.Errorf("decode %s arguments: %w", name, err)
		}
		return r.SearchFlights(ctx, p), nil
	}
	return Envelope{}, &ErrUnknownTool{Name: name}
}

// CustomerLookupParams are the customerLookup tool arguments.
type CustomerLookupParams struct {
	Identifier     string `json:"identifier"`
	IdentifierType string `json:"identifier_type"`
}

// CustomerLookup resolves a customer profile.
func (r *Registry) CustomerLookup(ctx context.Context, p CustomerLookupParams) Envelope {
	log := r.toolLogger(ToolCustomerLookup)
	log.InfoContext(ctx, "customer lookup", "identifier_type", p.IdentifierType)

	profile, err := r.engine.LookupCustomer(ctx, p.Identifier, model.IdentifierType(p.IdentifierType))
	if err != nil {
		switch {
		case errors.Is(err, travelgo.ErrNotFound):
			return failure("Sorry, we couldn't find any customer information with the provided details.")
		case errors.Is(err, travelgo.ErrSystemUnavailable):
			// The engine already logged the cause; only the polite
			// message crosses the boundary.
			return failure("We are currently unable to retrieve customer information. Please try again later.")
		default:
			return failure(err.Error())
		}
	}
	return success(profile)
}

// AccommodationFinderParams are the accommodationFinder tool arguments.
// The tri-state filters distinguish "must have" (true) from "don't
// care" (absent); explicit false only constrains family and pet
// friendliness.
type AccommodationFinderParams struct {
	Location       string  `json:"location"`
	FamilyFriendly *bool   `json:"family_friendly,omitempty"`
	PetFriendly    *bool   `json:"pet_friendly,omitempty"`
	PoweredSite    *bool   `json:"powered_site,omitempty"`
	MaxDistance    float64 `json:"max_distance,omitempty"`
}

// FindAccommodation searches accommodation options near a location.
func (r *Registry) FindAccommodation(ctx context.Context, p AccommodationFinderParams) Envelope {
	log := r.toolLogger(ToolAccommodationFinder)
	log.InfoContext(ctx, "accommodation search", "location", p.Location)

	records, err := r.engine.FindAccommodation(ctx, travelgo.AccommodationQuery{
		Location: p.Location,
		Filter: model.SearchFilter{
			FamilyFriendly: p.FamilyFriendly,
			PetFriendly:    p.PetFriendly,
			PoweredSite:    p.PoweredSite,
		},
		MaxDistance: p.MaxDistance,
	})
	if err != nil {
		switch {
		case errors.Is(err, travelgo.ErrNotFound):
			return failure(fmt.Sprintf("No accommodation options found matching your criteria near %s", p.Location))
		case errors.Is(err, travelgo.ErrSystemUnavailable):
			return failure("We are currently unable to search for accommodation. Please try again later.")
		default:
			return failure(err.Error())
		}
	}
	return success(records)
}

// BookingManagerParams are the bookingManager tool arguments.
type BookingManagerParams struct {
	Action             string `json:"action"`
	BookingRef         string `json:"booking_ref,omitempty"`
	CustomerName       string `json:"customer_name,omitempty"`
	ContactPhone       string `json:"contact_phone,omitempty"`
	CustomerBookingRef string `json:"customer_booking_ref,omitempty"`
	AccommodationID    string `json:"accommodation_id,omitempty"`
	TripStart          string `json:"trip_start,omitempty"`
	TripEnd            string `json:"trip_end,omitempty"`
	SiteType           string `json:"site_type,omitempty"`
	VehicleReg         string `json:"vehicle_reg,omitempty"`
	NumGuests          int    `json:"num_guests,omitempty"`
	SpecialRequests    string `json:"special_requests,omitempty"`
}

// ManageBooking dispatches a booking action. Only create is fully
// supported; modify and cancel validate their inputs and report that
// the feature is not yet implemented.
func (r *Registry) ManageBooking(ctx context.Context, p BookingManagerParams) Envelope {
	log := r.toolLogger(ToolBookingManager)
	log.InfoContext(ctx, "booking manager", "action", p.Action, "booking_ref", p.BookingRef)

	switch p.Action {
	case "create":
		return r.createBooking(ctx, p)

	case "modify":
		if p.BookingRef == "" {
			return failure("Booking reference required for modification")
		}
		return failure("Modification feature not yet implemented")

	case "cancel":
		if p.BookingRef == "" {
			return failure("Booking reference required for cancellation")
		}
		return failure("Cancellation feature not yet implemented")
	}
	return failure(fmt.Sprintf("Invalid action: %s. Must be one of: create, modify, cancel", p.Action))
}

func (r *Registry) createBooking(ctx context.Context, p BookingManagerParams) Envelope {
	conf, err := r.engine.CreateBooking(ctx, travelgo.BookingRequest{
		ContactPhone:       p.ContactPhone,
		AccommodationID:    p.AccommodationID,
		TripStart:          p.TripStart,
		TripEnd:            p.TripEnd,
		CustomerName:       p.CustomerName,
		SiteType:           p.SiteType,
		VehicleReg:         p.VehicleReg,
		CustomerBookingRef: p.CustomerBookingRef,
		SpecialRequests:    p.SpecialRequests,
		NumGuests:          p.NumGuests,
	})
	if err != nil {
		switch {
		case errors.Is(err, travelgo.ErrNotFound):
			return failure(fmt.Sprintf("Accommodation with ID %s not found", p.AccommodationID))
		case errors.Is(err, travelgo.ErrSystemUnavailable):
			return failure("We are currently unable to process your booking request. Please try again later.")
		default:
			return failure(err.Error())
		}
	}
	return success(conf)
}

// TroubleshootingParams are the applianceTroubleshooting tool arguments.
type TroubleshootingParams struct {
	ApplianceType    string `json:"appliance_type"`
	IssueDescription string `json:"issue_description"`
	VehicleModel     string `json:"vehicle_model,omitempty"`
}

// Troubleshoot serves appliance troubleshooting steps.
func (r *Registry) Troubleshoot(ctx context.Context, p TroubleshootingParams) Envelope {
	log := r.toolLogger(ToolApplianceTroubleshooting)
	log.InfoContext(ctx, "appliance troubleshooting", "appliance", p.ApplianceType)

	advice, err := troubleshoot.Lookup(p.ApplianceType, p.IssueDescription, p.VehicleModel)
	if err != nil {
		return failure(err.Error())
	}
	return success(advice)
}

// FlightSearchParams are the flightSearch tool arguments.
type FlightSearchParams struct {
	Source               string   `json:"source"`
	Destination          string   `json:"destination"`
	DepartureDate        string   `json:"departure_date"`
	ReturnDate           string   `json:"return_date,omitempty"`
	Adults               int      `json:"adults,omitempty"`
	Children             int      `json:"children,omitempty"`
	Infants              int      `json:"infants,omitempty"`
	NonStop              bool     `json:"non_stop,omitempty"`
	CurrencyCode         string   `json:"currency_code,omitempty"`
	TravelClass          string   `json:"travel_class,omitempty"`
	IncludedAirlineCodes []string `json:"included_airline_codes,omitempty"`
	ExcludedAirlineCodes []string `json:"excluded_airline_codes,omitempty"`
	MaxPrice             int      `json:"max_price,omitempty"`
	OneWay               bool     `json:"one_way,omitempty"`
	Max                  int      `json:"max,omitempty"`
}

// SearchFlights runs a flight-offer search. An empty result is a
// success with an explanatory message, not an error.
func (r *Registry) SearchFlights(ctx context.Context, p FlightSearchParams) Envelope {
	log := r.toolLogger(ToolFlightSearch)
	log.InfoContext(ctx, "flight search", "source", p.Source, "destination", p.Destination)

	if r.flights == nil {
		return failure("Flight search is not configured.")
	}

	offers, err := r.flights.Search(ctx, flight.SearchRequest{
		Source:               p.Source,
		Destination:          p.Destination,
		DepartureDate:        p.DepartureDate,
		ReturnDate:           p.ReturnDate,
		Adults:               p.Adults,
		Children:             p.Children,
		Infants:              p.Infants,
		NonStop:              p.NonStop,
		CurrencyCode:         p.CurrencyCode,
		TravelClass:          p.TravelClass,
		IncludedAirlineCodes: p.IncludedAirlineCodes,
		ExcludedAirlineCodes: p.ExcludedAirlineCodes,
		MaxPrice:             p.MaxPrice,
		OneWay:               p.OneWay,
		Max:                  p.Max,
	})
	if err != nil {
		var invalid *flight.ErrInvalidDate
		if errors.As(err, &invalid) {
			return failure("Invalid date format. Use YYYY-MM-DD.")
		}
		log.ErrorContext(ctx, "flight search failed", "error", err)
		return failure("We are currently unable to search for flights. Please try again later.")
	}

	if len(offers) == 0 {
		return success(map[string]any{
			"message": "No flights found for the specified criteria.",
			"flights": []flight.Offer{},
		})
	}
	return success(map[string]any{
		"message": fmt.Sprintf("Found %d flights from %s to %s",
			len(offers), strings.ToUpper(p.Source), strings.ToUpper(p.Destination)),
		"flights": offers,
	})
}

// toolLogger tags log lines with the tool name and a fresh request id
// so concurrent invocations remain distinguishable.
func (r *Registry) toolLogger(tool string) *slog.Logger {
	return r.logger.With("tool", tool, "request_id", uuid.NewString())
}
