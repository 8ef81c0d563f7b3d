// README: Ride-hail adapter; fetches product quotes and builds app deeplinks.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"wayfinder/internal/types"
)

// RideHailConfig configures one ride-hail product family. QuoteURL empty
// means the provider is unconfigured and the adapter reports ErrUnavailable.
type RideHailConfig struct {
	Provider string // "uber" or "lyft"
	Product  string // e.g. "UberX", "Lyft"
	QuoteURL string
	APIKey   string
}

// RideHailAdapter queries a quote endpoint for a single ride-hail product and
// decodes the answer into one candidate.
type RideHailAdapter struct {
	cfg    RideHailConfig
	client *http.Client
}

func NewRideHailAdapter(cfg RideHailConfig) *RideHailAdapter {
	return &RideHailAdapter{cfg: cfg, client: &http.Client{}}
}

func (a *RideHailAdapter) Name() string { return a.cfg.Provider }

// rideHailQuote is the quote endpoint's wire shape.
type rideHailQuote struct {
	Product      string  `json:"product"`
	ETAPickupMin int     `json:"eta_pickup_min"`
	DurationMin  int     `json:"duration_min"`
	DistanceM    float64 `json:"distance_m"`
	CostUSD      float64 `json:"cost_usd"`
}

func (a *RideHailAdapter) FetchOptions(ctx context.Context, origin, destination types.Point, when *time.Time) ([]RawCandidate, error) {
	if a.cfg.QuoteURL == "" {
		return nil, ErrUnavailable
	}

	u, err := url.Parse(a.cfg.QuoteURL)
	if err != nil {
		return nil, fmt.Errorf("%w: bad quote url: %v", ErrProviderError, err)
	}
	q := u.Query()
	q.Set("pickup_lat", strconv.FormatFloat(origin.Lat, 'f', -1, 64))
	q.Set("pickup_lng", strconv.FormatFloat(origin.Lng, 'f', -1, 64))
	q.Set("dropoff_lat", strconv.FormatFloat(destination.Lat, 'f', -1, 64))
	q.Set("dropoff_lng", strconv.FormatFloat(destination.Lng, 'f', -1, 64))
	if when != nil {
		q.Set("pickup_at", when.UTC().Format(time.RFC3339))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderError, err)
	}
	if a.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", classify(ctx, err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: quote endpoint returned %d", ErrProviderError, resp.StatusCode)
	}

	var quote rideHailQuote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return nil, fmt.Errorf("%w: decode quote: %v", ErrProviderError, err)
	}

	product := quote.Product
	if product == "" {
		product = a.cfg.Product
	}

	cand := RawCandidate{
		ID:              CandidateID(a.cfg.Provider, origin, destination),
		Mode:            ModeRideHail,
		Provider:        a.cfg.Provider,
		Product:         product,
		ETAPickupMin:    intPtr(quote.ETAPickupMin),
		DurationSeconds: quote.DurationMin * 60,
		DistanceMeters:  quote.DistanceM,
		CostUSD:         quote.CostUSD,
		Deeplink:        rideHailDeeplink(a.cfg.Provider, origin, destination),
	}
	return []RawCandidate{cand}, nil
}

// rideHailDeeplink builds the provider app's pickup deeplink.
func rideHailDeeplink(providerName string, origin, destination types.Point) string {
	switch providerName {
	case "lyft":
		return fmt.Sprintf("lyft://ridetype?id=lyft&pickup=%g,%g&dropoff=%g,%g",
			origin.Lat, origin.Lng, destination.Lat, destination.Lng)
	default:
		return fmt.Sprintf("uber://?action=setPickup"+
			"&pickup[latitude]=%g&pickup[longitude]=%g"+
			"&dropoff[latitude]=%g&dropoff[longitude]=%g",
			origin.Lat, origin.Lng, destination.Lat, destination.Lng)
	}
}
