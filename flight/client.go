// Package flight provides a client for an external flight-offer search
// API (Amadeus-compatible). It handles OAuth2 client-credential tokens,
// request shaping, and trimming of the verbose offer payload down to
// the fields callers care about.
package flight

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the test environment of the flight-offer API.
const DefaultBaseURL = "https://test.api.amadeus.com"

// SearchRequest describes a flight search. Source, Destination, and
// DepartureDate are required; zero values elsewhere mean "unset".
type SearchRequest struct {
	Source        string
	Destination   string
	DepartureDate string
	ReturnDate    string
	Adults        int
	Children      int
	Infants       int
	NonStop       bool
	CurrencyCode  string
	TravelClass   string
	// IncludedAirlineCodes and ExcludedAirlineCodes are forwarded as
	// supplied by the caller.
	IncludedAirlineCodes []string
	ExcludedAirlineCodes []string
	MaxPrice             int
	OneWay               bool
	Max                  int
}

// Price is the total offer price.
type Price struct {
	Total    string `json:"total"`
	Currency string `json:"currency"`
}

// Endpoint is one end of a flight segment.
type Endpoint struct {
	Airport string `json:"airport"`
	Time    string `json:"time"`
}

// Segment is one leg of an itinerary, trimmed for presentation.
type Segment struct {
	Departure Endpoint `json:"departure"`
	Arrival   Endpoint `json:"arrival"`
	Flight    string   `json:"flight"`
	Duration  string   `json:"duration"`
}

// Offer is a formatted flight offer.
type Offer struct {
	Price    Price     `json:"price"`
	Segments []Segment `json:"segments"`
}

// ErrInvalidDate indicates a date not in YYYY-MM-DD form.
type ErrInvalidDate struct {
	Field string
	Value string
}

func (e *ErrInvalidDate) Error() string {
	return fmt.Sprintf("invalid %s %q: use YYYY-MM-DD", e.Field, e.Value)
}

// Client calls the flight-offer API.
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	limiter    *rate.Limiter

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL (tests point it at a local server).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// NewClient creates a flight search client with the given API credentials.
func NewClient(apiKey, apiSecret string, optFns ...ClientOption) (*Client, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("flight: api credentials are required")
	}
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(10), 10),
	}
	for _, fn := range optFns {
		fn(c)
	}
	return c, nil
}

// Search runs a flight-offer search and returns trimmed offers.
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]Offer, error) {
	if err := validateDates(req); err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(c.baseURL + "/v2/shopping/flight-offers")
	if err != nil {
		return nil, fmt.Errorf("flight: invalid base URL: %w", err)
	}
	u.RawQuery = buildQuery(req).Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("flight: create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("flight: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("flight: search returned status %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		Data []rawOffer `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("flight: parse response: %w", err)
	}
	return formatOffers(payload.Data), nil
}

func validateDates(req SearchRequest) error {
	if _, err := time.Parse("2006-01-02", req.DepartureDate); err != nil {
		return &ErrInvalidDate{Field: "departure_date", Value: req.DepartureDate}
	}
	if req.ReturnDate != "" && !req.OneWay {
		if _, err := time.Parse("2006-01-02", req.ReturnDate); err != nil {
			return &ErrInvalidDate{Field: "return_date", Value: req.ReturnDate}
		}
	}
	return nil
}

func buildQuery(req SearchRequest) url.Values {
	adults := req.Adults
	if adults <= 0 {
		adults = 1
	}
	max := req.Max
	if max <= 0 {
		max = 3
	}
	currency := req.CurrencyCode
	if currency == "" {
		currency = "NZD"
	}

	q := url.Values{}
	q.Set("originLocationCode", strings.ToUpper(req.Source))
	q.Set("destinationLocationCode", strings.ToUpper(req.Destination))
	q.Set("departureDate", req.DepartureDate)
	q.Set("adults", strconv.Itoa(adults))
	q.Set("nonStop", strconv.FormatBool(req.NonStop))
	q.Set("currencyCode", currency)
	q.Set("max", strconv.Itoa(max))

	if req.Children > 0 {
		q.Set("children", strconv.Itoa(req.Children))
	}
	if req.Infants > 0 {
		q.Set("infants", strconv.Itoa(req.Infants))
	}
	if req.TravelClass != "" {
		q.Set("travelClass", strings.ToUpper(req.TravelClass))
	}
	if req.ReturnDate != "" && !req.OneWay {
		q.Set("returnDate", req.ReturnDate)
	}
	if len(req.IncludedAirlineCodes) > 0 {
		q.Set("includedAirlineCodes", strings.Join(req.IncludedAirlineCodes, ","))
	}
	if len(req.ExcludedAirlineCodes) > 0 {
		q.Set("excludedAirlineCodes", strings.Join(req.ExcludedAirlineCodes, ","))
	}
	if req.MaxPrice > 0 {
		q.Set("maxPrice", strconv.Itoa(req.MaxPrice))
	}
	return q
}

// accessToken returns a cached OAuth token, fetching a new one when the
// cached token is missing or within a minute of expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Until(c.tokenExpiry) > time.Minute {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.apiKey)
	form.Set("client_secret", c.apiSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/security/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("flight: create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("flight: token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("flight: token endpoint returned status %d: %s", resp.StatusCode, body)
	}

	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("flight: parse token response: %w", err)
	}
	c.token = token.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	return c.token, nil
}

type rawOffer struct {
	Itineraries []struct {
		Segments []struct {
			Departure struct {
				IATACode string `json:"iataCode"`
				At       string `json:"at"`
			} `json:"departure"`
			Arrival struct {
				IATACode string `json:"iataCode"`
				At       string `json:"at"`
			} `json:"arrival"`
			CarrierCode string `json:"carrierCode"`
			Number      string `json:"number"`
			Duration    string `json:"duration"`
		} `json:"segments"`
	} `json:"itineraries"`
	Price struct {
		Total    string `json:"total"`
		Currency string `json:"currency"`
	} `json:"price"`
}

// formatOffers trims raw offers to the presentation shape. Offers with
// no segments are skipped rather than failing the whole result.
func formatOffers(raw []rawOffer) []Offer {
	offers := make([]Offer, 0, len(raw))
	for _, r := range raw {
		offer := Offer{
			Price: Price{Total: r.Price.Total, Currency: r.Price.Currency},
		}
		for _, it := range r.Itineraries {
			for _, seg := range it.Segments {
				offer.Segments = append(offer.Segments, Segment{
					Departure: Endpoint{Airport: seg.Departure.IATACode, Time: seg.Departure.At},
					Arrival:   Endpoint{Airport: seg.Arrival.IATACode, Time: seg.Arrival.At},
					Flight:    strings.TrimSpace(seg.CarrierCode + " " + seg.Number),
					Duration:  seg.Duration,
				})
			}
		}
		if len(offer.Segments) == 0 {
			continue
		}
		offers = append(offers, offer)
	}
	return offers
}
