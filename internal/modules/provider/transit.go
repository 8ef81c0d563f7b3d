// README: Transit adapter backed by the Google Directions API.
package provider

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"googlemaps.github.io/maps"

	"wayfinder/internal/types"
)

const (
	transitDefaultFareUSD = 2.50
	// Flat per-trip figure used when the feed reports no emission data.
	transitCO2Grams = 200
	// Directions can return many alternatives; three is plenty to compare.
	maxTransitRoutes = 3
)

// TransitAdapter fetches public transit itineraries and decodes each one into
// a candidate with line, riding time, transfer walks and wait.
type TransitAdapter struct {
	agency string
	client *maps.Client
}

// NewTransitAdapter creates the adapter. An empty API key leaves the adapter
// unconfigured; it then reports ErrUnavailable instead of failing requests.
func NewTransitAdapter(agency, apiKey string) (*TransitAdapter, error) {
	a := &TransitAdapter{agency: agency}
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

func (a *TransitAdapter) Name() string { return a.agency }

func (a *TransitAdapter) FetchOptions(ctx context.Context, origin, destination types.Point, when *time.Time) ([]RawCandidate, error) {
	if a.client == nil {
		return nil, ErrUnavailable
	}

	r := &maps.DirectionsRequest{
		Origin:       formatLatLng(origin),
		Destination:  formatLatLng(destination),
		Mode:         maps.TravelModeTransit,
		Alternatives: true,
	}
	if when != nil {
		r.DepartureTime = strconv.FormatInt(when.Unix(), 10)
	}

	routes, _, err := a.client.Directions(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("%w: maps api: %v", classify(ctx, err), err)
	}

	var candidates []RawCandidate
	for i, route := range routes {
		if i >= maxTransitRoutes {
			break
		}
		if len(route.Legs) == 0 {
			continue
		}
		leg := route.Legs[0]

		var rideSec, walkSec, stepSec int
		line := ""
		for _, step := range leg.Steps {
			stepSec += int(step.Duration.Seconds())
			switch step.TravelMode {
			case "WALKING":
				walkSec += int(step.Duration.Seconds())
			case "TRANSIT":
				rideSec += int(step.Duration.Seconds())
				if line == "" && step.TransitDetails != nil {
					line = step.TransitDetails.Line.ShortName
					if line == "" {
						line = step.TransitDetails.Line.Name
					}
				}
			}
		}
		// Gaps between steps are time spent waiting at stops.
		waitSec := int(leg.Duration.Seconds()) - stepSec
		if waitSec < 0 {
			waitSec = 0
		}

		cost := transitDefaultFareUSD
		if route.Fare != nil && route.Fare.Value > 0 {
			cost = route.Fare.Value
		}

		candidates = append(candidates, RawCandidate{
			ID:              fmt.Sprintf("%s-%d", CandidateID(a.agency, origin, destination), i),
			Mode:            ModeTransit,
			Provider:        a.agency,
			Line:            line,
			WaitMin:         intPtr(int(math.Round(float64(waitSec) / 60))),
			DurationSeconds: rideSec,
			WalkMin:         intPtr(int(math.Round(float64(walkSec) / 60))),
			DistanceMeters:  float64(leg.Distance.Meters),
			CostUSD:         math.Round(cost*100) / 100,
			CO2Grams:        intPtr(transitCO2Grams),
		})
	}
	return candidates, nil
}

func formatLatLng(p types.Point) string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lng, 'f', -1, 64)
}
