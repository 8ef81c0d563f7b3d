// README: Deterministic synthetic options used when no provider yields results.
package plan

import (
	"errors"
	"math"
	"sort"

	"wayfinder/internal/modules/geo"
	"wayfinder/internal/modules/provider"
	"wayfinder/internal/types"
)

// ErrInvalidInput is raised for out-of-range or non-finite coordinates. It is
// rejected before any provider dispatch.
var ErrInvalidInput = errors.New("invalid coordinates")

// fallbackRate is the synthetic pricing model for one archetypal mode.
// Time-billed modes set PerMin; the rest bill by distance.
type fallbackRate struct {
	Label    string
	Mode     provider.Mode
	Provider string
	BaseUSD  float64
	PerKmUSD float64
	PerMin   float64
	SpeedKmh float64
}

var fallbackRates = []fallbackRate{
	{Label: "Uber", Mode: provider.ModeRideHail, Provider: "uber", BaseUSD: 8.0, PerKmUSD: 1.5, SpeedKmh: 45},
	{Label: "Lyft", Mode: provider.ModeRideHail, Provider: "lyft", BaseUSD: 7.5, PerKmUSD: 1.4, SpeedKmh: 45},
	{Label: "Lime", Mode: provider.ModeMicromobility, Provider: "lime", BaseUSD: 1.0, PerMin: 0.3, SpeedKmh: 20},
	{Label: "Walking", Mode: provider.ModeWalk, Provider: "baseline", BaseUSD: 0, PerKmUSD: 0, SpeedKmh: 5},
	{Label: "Public Transit", Mode: provider.ModeTransit, Provider: "muni", BaseUSD: 2.5, PerKmUSD: 0, SpeedKmh: 30},
}

// GenerateFallback produces one synthetic candidate per archetypal mode,
// sorted fastest first. It is a pure function of the two endpoints: no
// randomness, no clock. The orchestrator relies on it as the always-available
// data source.
func GenerateFallback(origin, destination types.Point) ([]provider.RawCandidate, error) {
	if !origin.Valid() || !destination.Valid() {
		return nil, ErrInvalidInput
	}

	distanceM := geo.Distance(origin, destination)
	distanceKm := distanceM / 1000

	candidates := make([]provider.RawCandidate, 0, len(fallbackRates))
	for _, rate := range fallbackRates {
		// Billed riding minutes come straight from the distance model; the
		// 60-second floor applies only to the presented duration so that a
		// zero-length trip still costs exactly the base fare.
		billedMin := distanceKm / rate.SpeedKmh * 60
		durationSec := int(math.Round(distanceKm / rate.SpeedKmh * 3600))
		if durationSec < 60 {
			durationSec = 60
		}

		var cost float64
		if rate.PerMin > 0 {
			cost = rate.BaseUSD + billedMin*rate.PerMin
		} else {
			cost = rate.BaseUSD + distanceKm*rate.PerKmUSD
		}
		cost = math.Round(cost*100) / 100

		candidates = append(candidates, provider.RawCandidate{
			ID:              provider.CandidateID(slugify(rate.Label), origin, destination),
			Mode:            rate.Mode,
			Provider:        rate.Provider,
			Product:         rate.Label,
			DurationSeconds: durationSec,
			DistanceMeters:  distanceM,
			CostUSD:         cost,
			Metadata:        map[string]string{"synthetic": "true"},
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].DurationSeconds < candidates[j].DurationSeconds
	})
	return candidates, nil
}

func slugify(label string) string {
	out := make([]byte, len(label))
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case c >= 'A' && c <= 'Z':
			out[i] = c + 'a' - 'A'
		case c == ' ':
			out[i] = '_'
		default:
			out[i] = c
		}
	}
	return string(out)
}
