// README: Baseline adapter; walk, bike and drive estimates via Google Directions.
package provider

import (
	"context"
	"fmt"
	"math"
	"time"

	"googlemaps.github.io/maps"

	"wayfinder/internal/types"
)

const (
	// Car ownership cost per mile, covering fuel and wear.
	driveCostPerMileUSD = 0.50
	metersPerMile       = 1609.34
	driveCO2PerKmGrams  = 200
	bikeCO2Grams        = 50
)

// BaselineAdapter produces the always-relevant walk, bike and drive options
// from the Google Directions API. These are reference points the scorer
// compares paid modes against.
type BaselineAdapter struct {
	client *maps.Client
}

func NewBaselineAdapter(apiKey string) (*BaselineAdapter, error) {
	a := &BaselineAdapter{}
	if apiKey == "" {
		return a, nil
	}
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	a.client = client
	return a, nil
}

func (a *BaselineAdapter) Name() string { return "baseline" }

var baselineModes = []struct {
	mode    Mode
	travel  maps.Mode
}{
	{ModeWalk, maps.TravelModeWalking},
	{ModeBike, maps.TravelModeBicycling},
	{ModeDrive, maps.TravelModeDriving},
}

func (a *BaselineAdapter) FetchOptions(ctx context.Context, origin, destination types.Point, when *time.Time) ([]RawCandidate, error) {
	if a.client == nil {
		return nil, ErrUnavailable
	}

	var candidates []RawCandidate
	var lastErr error
	for _, m := range baselineModes {
		routes, _, err := a.client.Directions(ctx, &maps.DirectionsRequest{
			Origin:      formatLatLng(origin),
			Destination: formatLatLng(destination),
			Mode:        m.travel,
		})
		if err != nil {
			lastErr = fmt.Errorf("%w: maps api (%s): %v", classify(ctx, err), m.mode, err)
			continue
		}
		if len(routes) == 0 || len(routes[0].Legs) == 0 {
			continue
		}
		leg := routes[0].Legs[0]
		candidates = append(candidates, a.decodeLeg(m.mode, leg, origin, destination))
	}
	if len(candidates) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return candidates, nil
}

func (a *BaselineAdapter) decodeLeg(mode Mode, leg *maps.Leg, origin, destination types.Point) RawCandidate {
	durationSec := int(leg.Duration.Seconds())
	distanceM := float64(leg.Distance.Meters)

	cand := RawCandidate{
		ID:              CandidateID(string(mode), origin, destination),
		Mode:            mode,
		Provider:        "baseline",
		DurationSeconds: durationSec,
		DistanceMeters:  distanceM,
	}

	switch mode {
	case ModeWalk:
		// The leg duration already is the walking time; a separate walk_min
		// would count it twice in the door-to-door total.
		cand.CO2Grams = intPtr(0)
	case ModeBike:
		cand.CO2Grams = intPtr(bikeCO2Grams)
	case ModeDrive:
		cand.CostUSD = math.Round(distanceM/metersPerMile*driveCostPerMileUSD*100) / 100
		cand.CO2Grams = intPtr(int(distanceM / 1000 * driveCO2PerKmGrams))
	}
	return cand
}
