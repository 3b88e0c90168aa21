package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/roamnz/travelgo"
	"github.com/roamnz/travelgo/flight"
	"github.com/roamnz/travelgo/importer"
	"github.com/roamnz/travelgo/store"
	"github.com/roamnz/travelgo/tools"
)

var (
	// Global flags
	verbose             bool
	bookingsTable       string
	vehiclesTable       string
	accommodationsTable string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "travelgo",
	Short: "Travel-record lookup and booking engine",
	Long: `travelgo resolves customer records, searches accommodation with a
geo-proximity fallback, creates bookings, and serves auxiliary travel
tools. All commands print a {status, response} JSON envelope to stdout.

Table names default to the demo data set and can be overridden with
flags or the DYNAMODB_BOOKINGS_TABLE, DYNAMODB_VEHICLES_TABLE, and
DYNAMODB_ACCOMMODATION_TABLE environment variables.`,
	SilenceUsage: true,
}

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Look up a customer by identifier",
	RunE:  runLookup,
}

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Find accommodation near a location",
	RunE:  runFind,
}

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Create an accommodation booking",
	RunE:  runBook,
}

var flightsCmd = &cobra.Command{
	Use:   "flights",
	Short: "Search flight offers",
	Long: `Search flight offers between two airports. Requires AMADEUS_API_KEY
and AMADEUS_API_SECRET in the environment.`,
	RunE: runFlights,
}

var troubleshootCmd = &cobra.Command{
	Use:   "troubleshoot",
	Short: "Get appliance troubleshooting steps",
	RunE:  runTroubleshoot,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a CSV data set into the store",
	Long: `Import a CSV file into the table for its kind (bookings, vehicles,
or accommodations). The source may be a local path or an s3:// URI.`,
	RunE: runImport,
}

var (
	lookupIdentifier string
	lookupType       string

	findLocation       string
	findFamilyFriendly bool
	findPetFriendly    bool
	findPoweredSite    bool
	findMaxDistance    float64

	bookParams tools.BookingManagerParams

	flightParams tools.FlightSearchParams

	applianceType    string
	issueDescription string
	vehicleModel     string

	importKind   string
	importSource string
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&bookingsTable, "bookings-table",
		envOr("DYNAMODB_BOOKINGS_TABLE", "customer_bookings"), "bookings table name")
	rootCmd.PersistentFlags().StringVar(&vehiclesTable, "vehicles-table",
		envOr("DYNAMODB_VEHICLES_TABLE", "vehicle_information"), "vehicles table name")
	rootCmd.PersistentFlags().StringVar(&accommodationsTable, "accommodations-table",
		envOr("DYNAMODB_ACCOMMODATION_TABLE", "accommodation_options"), "accommodations table name")

	lookupCmd.Flags().StringVar(&lookupIdentifier, "identifier", "", "the identifier value")
	lookupCmd.Flags().StringVar(&lookupType, "type", "", "identifier type (contact_phone, booking_ref, vehicle_reg, customer_id)")
	lookupCmd.MarkFlagRequired("identifier")
	lookupCmd.MarkFlagRequired("type")

	findCmd.Flags().StringVar(&findLocation, "location", "", "location to search near")
	findCmd.Flags().BoolVar(&findFamilyFriendly, "family-friendly", false, "require family-friendly sites")
	findCmd.Flags().BoolVar(&findPetFriendly, "pet-friendly", false, "require pet-friendly sites")
	findCmd.Flags().BoolVar(&findPoweredSite, "powered-site", false, "require available powered sites")
	findCmd.Flags().Float64Var(&findMaxDistance, "max-distance", 0, "search radius in km (default 50)")
	findCmd.MarkFlagRequired("location")

	bookCmd.Flags().StringVar(&bookParams.ContactPhone, "contact-phone", "", "customer contact phone")
	bookCmd.Flags().StringVar(&bookParams.AccommodationID, "accommodation-id", "", "accommodation id")
	bookCmd.Flags().StringVar(&bookParams.TripStart, "trip-start", "", "trip start date (YYYY-MM-DD)")
	bookCmd.Flags().StringVar(&bookParams.TripEnd, "trip-end", "", "trip end date (YYYY-MM-DD)")
	bookCmd.Flags().StringVar(&bookParams.CustomerName, "customer-name", "", "customer full name")
	bookCmd.Flags().StringVar(&bookParams.SiteType, "site-type", "", "site type")
	bookCmd.Flags().StringVar(&bookParams.VehicleReg, "vehicle-reg", "", "vehicle registration")
	bookCmd.Flags().StringVar(&bookParams.CustomerBookingRef, "customer-booking-ref", "", "customer's own booking reference")
	bookCmd.Flags().IntVar(&bookParams.NumGuests, "num-guests", 0, "number of guests")
	bookCmd.Flags().StringVar(&bookParams.SpecialRequests, "special-requests", "", "special requests")

	flightsCmd.Flags().StringVar(&flightParams.Source, "source", "", "origin airport code")
	flightsCmd.Flags().StringVar(&flightParams.Destination, "destination", "", "destination airport code")
	flightsCmd.Flags().StringVar(&flightParams.DepartureDate, "departure-date", "", "departure date (YYYY-MM-DD)")
	flightsCmd.Flags().StringVar(&flightParams.ReturnDate, "return-date", "", "return date (YYYY-MM-DD)")
	flightsCmd.Flags().IntVar(&flightParams.Adults, "adults", 1, "number of adult travellers")
	flightsCmd.Flags().IntVar(&flightParams.Children, "children", 0, "number of child travellers")
	flightsCmd.Flags().IntVar(&flightParams.Infants, "infants", 0, "number of infant travellers")
	flightsCmd.Flags().BoolVar(&flightParams.NonStop, "non-stop", false, "direct flights only")
	flightsCmd.Flags().StringVar(&flightParams.CurrencyCode, "currency", "", "price currency (default NZD)")
	flightsCmd.Flags().StringVar(&flightParams.TravelClass, "travel-class", "", "cabin class")
	flightsCmd.Flags().StringSliceVar(&flightParams.IncludedAirlineCodes, "airlines", nil, "restrict to these airline codes")
	flightsCmd.Flags().StringSliceVar(&flightParams.ExcludedAirlineCodes, "exclude-airlines", nil, "exclude these airline codes")
	flightsCmd.Flags().IntVar(&flightParams.MaxPrice, "max-price", 0, "maximum total price")
	flightsCmd.Flags().BoolVar(&flightParams.OneWay, "one-way", false, "one-way trip")
	flightsCmd.Flags().IntVar(&flightParams.Max, "max", 0, "maximum offers to return (default 3)")
	flightsCmd.MarkFlagRequired("source")
	flightsCmd.MarkFlagRequired("destination")
	flightsCmd.MarkFlagRequired("departure-date")

	troubleshootCmd.Flags().StringVar(&applianceType, "appliance", "", "appliance type (fridge, stove, heater, water_pump, power_system)")
	troubleshootCmd.Flags().StringVar(&issueDescription, "issue", "", "description of the issue")
	troubleshootCmd.Flags().StringVar(&vehicleModel, "vehicle-model", "", "vehicle model, if known")
	troubleshootCmd.MarkFlagRequired("appliance")
	troubleshootCmd.MarkFlagRequired("issue")

	importCmd.Flags().StringVar(&importKind, "kind", "", "data set kind (bookings, vehicles, accommodations)")
	importCmd.Flags().StringVar(&importSource, "source", "", "CSV path or s3:// URI")
	importCmd.MarkFlagRequired("kind")
	importCmd.MarkFlagRequired("source")

	rootCmd.AddCommand(lookupCmd, findCmd, bookCmd, flightsCmd, troubleshootCmd, importCmd)
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func logLevel() slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func newEngine(ctx context.Context) (*travelgo.Engine, error) {
	ds, err := store.NewDynamoDB(ctx, nil)
	if err != nil {
		return nil, err
	}
	return travelgo.New(ds,
		travelgo.WithLogger(travelgo.NewJSONLogger(logLevel())),
		travelgo.WithTables(travelgo.Tables{
			Bookings:       bookingsTable,
			Vehicles:       vehiclesTable,
			Accommodations: accommodationsTable,
		}),
	), nil
}

func newRegistry(ctx context.Context) (*tools.Registry, error) {
	engine, err := newEngine(ctx)
	if err != nil {
		return nil, err
	}

	opts := []tools.RegistryOption{
		tools.WithLogger(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel()}))),
	}
	if key, secret := os.Getenv("AMADEUS_API_KEY"), os.Getenv("AMADEUS_API_SECRET"); key != "" && secret != "" {
		fc, err := flight.NewClient(key, secret)
		if err != nil {
			return nil, err
		}
		opts = append(opts, tools.WithFlightSearcher(fc))
	}
	return tools.NewRegistry(engine, opts...), nil
}

// printEnvelope writes the envelope to stdout. A non-success status
// becomes a non-zero exit without extra noise on stderr.
func printEnvelope(env tools.Envelope) error {
	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	if env.Status != tools.StatusSuccess {
		os.Exit(1)
	}
	return nil
}

func runLookup(cmd *cobra.Command, args []string) error {
	r, err := newRegistry(cmd.Context())
	if err != nil {
		return err
	}
	return printEnvelope(r.CustomerLookup(cmd.Context(), tools.CustomerLookupParams{
		Identifier:     lookupIdentifier,
		IdentifierType: lookupType,
	}))
}

func runFind(cmd *cobra.Command, args []string) error {
	r, err := newRegistry(cmd.Context())
	if err != nil {
		return err
	}

	// Filters are tri-state: only flags the caller actually set
	// constrain the search.
	params := tools.AccommodationFinderParams{
		Location:    findLocation,
		MaxDistance: findMaxDistance,
	}
	if cmd.Flags().Changed("family-friendly") {
		params.FamilyFriendly = &findFamilyFriendly
	}
	if cmd.Flags().Changed("pet-friendly") {
		params.PetFriendly = &findPetFriendly
	}
	if cmd.Flags().Changed("powered-site") {
		params.PoweredSite = &findPoweredSite
	}
	return printEnvelope(r.FindAccommodation(cmd.Context(), params))
}

func runBook(cmd *cobra.Command, args []string) error {
	r, err := newRegistry(cmd.Context())
	if err != nil {
		return err
	}
	bookParams.Action = "create"
	return printEnvelope(r.ManageBooking(cmd.Context(), bookParams))
}

func runFlights(cmd *cobra.Command, args []string) error {
	r, err := newRegistry(cmd.Context())
	if err != nil {
		return err
	}
	return printEnvelope(r.SearchFlights(cmd.Context(), flightParams))
}

func runTroubleshoot(cmd *cobra.Command, args []string) error {
	r, err := newRegistry(cmd.Context())
	if err != nil {
		return err
	}
	return printEnvelope(r.Troubleshoot(cmd.Context(), tools.TroubleshootingParams{
		ApplianceType:    applianceType,
		IssueDescription: issueDescription,
		VehicleModel:     vehicleModel,
	}))
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ds, err := store.NewDynamoDB(ctx, nil)
	if err != nil {
		return err
	}

	opts := []importer.Option{
		importer.WithLogger(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel()}))),
		importer.WithTable(importer.KindBookings, bookingsTable),
		importer.WithTable(importer.KindVehicles, vehiclesTable),
		importer.WithTable(importer.KindAccommodations, accommodationsTable),
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err == nil {
		opts = append(opts, importer.WithS3Client(s3.NewFromConfig(cfg)))
	}

	imp := importer.New(ds, opts...)
	result, err := imp.ImportCSV(ctx, importer.Kind(importKind), importSource)
	if err != nil {
		return err
	}
	return printEnvelope(tools.Envelope{
		Status: tools.StatusSuccess,
		Response: map[string]any{
			"imported": result.Imported,
			"skipped":  result.Skipped,
		},
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
