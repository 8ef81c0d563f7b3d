// README: Micromobility adapter; reads a GBFS feed and prices a scooter leg.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"wayfinder/internal/modules/geo"
	"wayfinder/internal/types"
)

const (
	// GBFS vehicles beyond this radius are not worth the unlock walk.
	scooterSearchRadiusM = 400.0
	scooterSpeedKmh      = 20.0
	scooterUnlockUSD     = 1.00
	scooterPerMinUSD     = 0.55
	// Short walk from the parked scooter to the door.
	scooterDropWalkMin = 1
)

// ScooterAdapter finds the nearest available vehicle in a GBFS
// free_bike_status feed and builds a single scooter candidate.
type ScooterAdapter struct {
	providerName string
	feedURL      string
	client       *http.Client
}

func NewScooterAdapter(providerName, feedURL string) *ScooterAdapter {
	return &ScooterAdapter{providerName: providerName, feedURL: feedURL, client: &http.Client{}}
}

func (a *ScooterAdapter) Name() string { return a.providerName }

// gbfsFeed is the subset of GBFS free_bike_status this adapter reads.
type gbfsFeed struct {
	Data struct {
		Bikes []gbfsBike `json:"bikes"`
	} `json:"data"`
}

type gbfsBike struct {
	BikeID     string  `json:"bike_id"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	IsReserved bool    `json:"is_reserved"`
	IsDisabled bool    `json:"is_disabled"`
}

func (a *ScooterAdapter) FetchOptions(ctx context.Context, origin, destination types.Point, when *time.Time) ([]RawCandidate, error) {
	if a.feedURL == "" {
		return nil, ErrUnavailable
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderError, err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", classify(ctx, err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: gbfs feed returned %d", ErrProviderError, resp.StatusCode)
	}

	var feed gbfsFeed
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("%w: decode gbfs feed: %v", ErrProviderError, err)
	}

	nearestM := math.Inf(1)
	var nearest *gbfsBike
	for i := range feed.Data.Bikes {
		b := feed.Data.Bikes[i]
		if b.IsReserved || b.IsDisabled {
			continue
		}
		d := geo.Distance(origin, types.Point{Lat: b.Lat, Lng: b.Lon})
		if d < nearestM {
			nearestM = d
			nearest = &feed.Data.Bikes[i]
		}
	}
	if nearest == nil || nearestM > scooterSearchRadiusM {
		// No rideable vehicle in range; not an error, just no candidates.
		return nil, nil
	}

	rideM := geo.Distance(origin, destination)
	rideMin := rideM / 1000 / scooterSpeedKmh * 60
	durationSec := int(math.Round(rideMin * 60))

	unlockWalkMin := int(math.Max(1, math.Round(nearestM/1000/5*60))) // 5 km/h walk to the vehicle
	cost := math.Round((scooterUnlockUSD+rideMin*scooterPerMinUSD)*100) / 100

	cand := RawCandidate{
		ID:              CandidateID(a.providerName, origin, destination),
		Mode:            ModeMicromobility,
		Provider:        a.providerName,
		Product:         scooterProductName(a.providerName),
		WaitMin:         intPtr(unlockWalkMin),
		DurationSeconds: durationSec,
		WalkMin:         intPtr(scooterDropWalkMin),
		DistanceMeters:  rideM,
		CostUSD:         cost,
		Deeplink:        fmt.Sprintf("limebike://?lat=%g&lng=%g", destination.Lat, destination.Lng),
		Metadata:        map[string]string{"vehicle_id": nearest.BikeID},
	}
	return []RawCandidate{cand}, nil
}

func scooterProductName(provider string) string {
	if provider == "" {
		return "Scooter"
	}
	return strings.ToUpper(provider[:1]) + provider[1:] + " Scooter"
}
