// README: Converts raw candidates into canonical options and presentation routes.
package plan

import (
	"fmt"
	"math"
	"strconv"

	"wayfinder/internal/modules/geo"
	"wayfinder/internal/modules/provider"
	"wayfinder/internal/types"
)

// Assumed speeds used to estimate a distance when a provider reports only a
// duration. These are coarse city averages, and any distance derived from
// them is flagged as an estimate in user-facing output.
var assumedSpeedKmh = map[provider.Mode]float64{
	provider.ModeWalk:    5,
	provider.ModeBike:    15,
	provider.ModeTransit: 30,
}

const defaultMotorizedSpeedKmh = 40.0

func speedForMode(mode provider.Mode) float64 {
	if v, ok := assumedSpeedKmh[mode]; ok {
		return v
	}
	return defaultMotorizedSpeedKmh
}

// Normalize reduces one raw candidate to the canonical option shape, filling
// missing fields with mode-aware estimates. Provider-reported distance is
// preserved in metadata so route projection does not have to re-estimate it.
func Normalize(c provider.RawCandidate, origin, destination types.Point) NormalizedOption {
	durationMin := 0
	if c.DurationSeconds > 0 {
		durationMin = int(math.Round(float64(c.DurationSeconds) / 60))
		if durationMin < 1 {
			durationMin = 1
		}
	}

	meta := make(map[string]string, len(c.Metadata)+2)
	for k, v := range c.Metadata {
		meta[k] = v
	}
	if c.DistanceMeters > 0 {
		meta["distance_m"] = strconv.FormatFloat(math.Round(c.DistanceMeters), 'f', -1, 64)
	} else if durationMin > 0 {
		estimated := float64(durationMin) / 60 * speedForMode(c.Mode) * 1000
		meta["distance_m"] = strconv.FormatFloat(math.Round(estimated), 'f', -1, 64)
		meta["distance_estimated"] = "true"
	}

	return NormalizedOption{
		ID:           types.ID(c.ID),
		Mode:         c.Mode,
		Provider:     c.Provider,
		Product:      c.Product,
		Line:         c.Line,
		ETAPickupMin: c.ETAPickupMin,
		WaitMin:      c.WaitMin,
		DurationMin:  durationMin,
		WalkMin:      c.WalkMin,
		CostUSD:      c.CostUSD,
		CO2Grams:     c.CO2Grams,
		Deeplink:     c.Deeplink,
		Metadata:     meta,
	}
}

// displayLabel resolves the user-facing name of an option. Resolution order
// is mode-specific: ride-hail prefers the product, transit the line,
// micromobility the provider; the baselines are fixed literals.
func displayLabel(o NormalizedOption) string {
	switch o.Mode {
	case provider.ModeRideHail:
		if o.Product != "" {
			return o.Product
		}
		if o.Provider != "" {
			return o.Provider
		}
		return "Ride"
	case provider.ModeTransit:
		if o.Line != "" {
			return o.Line
		}
		if o.Product != "" {
			return o.Product
		}
		return "Public Transit"
	case provider.ModeMicromobility:
		if o.Provider != "" {
			return o.Provider
		}
		return "Scooter"
	case provider.ModeWalk:
		return "Walking"
	case provider.ModeBike:
		return "Bike"
	case provider.ModeDrive:
		return "Drive"
	default:
		return string(o.Mode)
	}
}

// BuildRoute projects an option into its presentation route. The projection
// is deterministic and owns no state; callers recompute it per request.
func BuildRoute(o NormalizedOption, origin, destination types.Point) Route {
	distanceM, estimated := optionDistance(o)
	label := displayLabel(o)

	primaryInstr := fmt.Sprintf("Take %s to destination", label)
	if estimated {
		primaryInstr += " (distance estimated)"
	}

	var segments []RouteSegment
	modes := []string{}
	if o.WalkMin != nil && *o.WalkMin > 0 {
		// Coarse heuristic: the access walk is not a geocoded sub-route, so
		// its length is pegged at 10% of the primary leg.
		segments = append(segments, RouteSegment{
			TransportMode:   "Walking",
			DistanceMeters:  math.Round(distanceM * 0.10),
			DurationSeconds: *o.WalkMin * 60,
			Instructions:    fmt.Sprintf("Walk %d min to %s (distance estimated)", *o.WalkMin, label),
		})
		modes = append(modes, "Walking")
	}
	segments = append(segments, RouteSegment{
		TransportMode:   label,
		DistanceMeters:  math.Round(distanceM),
		DurationSeconds: o.DurationMin * 60,
		Instructions:    primaryInstr,
	})
	modes = append(modes, label)

	polyline := geo.EncodePolyline([]types.Point{
		origin,
		geo.Midpoint(origin, destination),
		destination,
	})

	return Route{
		ID:                   o.ID,
		TransportModes:       modes,
		TotalDistanceMeters:  math.Round(distanceM),
		TotalDurationSeconds: o.TotalTimeMin() * 60,
		CostUSD:              o.CostUSD,
		Segments:             segments,
		Polyline:             polyline,
	}
}

func optionDistance(o NormalizedOption) (meters float64, estimated bool) {
	if v, ok := o.Metadata["distance_m"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f, o.Metadata["distance_estimated"] == "true"
		}
	}
	// No recorded distance at all; estimate from duration and mode speed.
	return float64(o.DurationMin) / 60 * speedForMode(o.Mode) * 1000, true
}
