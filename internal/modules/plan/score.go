// README: Per-criterion recommendation scoring (speed, cost, eco, safety).
package plan

import (
	"fmt"

	"wayfinder/internal/modules/provider"
)

// Cheapest options slower than this multiple of the fastest total time are
// not worth recommending on price alone.
const costTimeCapFactor = 2.0

// Mode weights for the eco criterion; higher is cleaner.
var ecoModeWeights = map[provider.Mode]float64{
	provider.ModeWalk:          1.0,
	provider.ModeBike:          0.95,
	provider.ModeTransit:       0.9,
	provider.ModeMicromobility: 0.85,
	provider.ModeRideHail:      0.5,
	provider.ModeDrive:         0.3,
}

// DefaultSafetyWeights is a placeholder policy, not a contractual one:
// enclosed and staffed modes rank above exposed ones. Callers override it
// through Config.SafetyWeights.
var DefaultSafetyWeights = map[provider.Mode]float64{
	provider.ModeWalk:          1.0,
	provider.ModeTransit:       0.9,
	provider.ModeRideHail:      0.7,
	provider.ModeDrive:         0.65,
	provider.ModeBike:          0.5,
	provider.ModeMicromobility: 0.4,
}

// ScoreOptions computes one recommendation per criterion over the full
// option set. Ties resolve to the earliest option in input order. An empty
// set produces no recommendations at all.
func ScoreOptions(options []NormalizedOption, safetyWeights map[provider.Mode]float64) Agents {
	if len(options) == 0 {
		return Agents{}
	}
	if safetyWeights == nil {
		safetyWeights = DefaultSafetyWeights
	}
	return Agents{
		Speed:  scoreSpeed(options),
		Cost:   scoreCost(options),
		Eco:    scoreEco(options),
		Safety: scoreSafety(options, safetyWeights),
	}
}

func scoreSpeed(options []NormalizedOption) *AgentRecommendation {
	best := options[0]
	minT := best.TotalTimeMin()
	for _, o := range options[1:] {
		if t := o.TotalTimeMin(); t < minT {
			minT = t
			best = o
		}
	}
	return &AgentRecommendation{
		OptionID: best.ID,
		Score:    1.0,
		Why:      fmt.Sprintf("Fastest door-to-door at %d minutes", minT),
	}
}

func scoreCost(options []NormalizedOption) *AgentRecommendation {
	fastest := options[0].TotalTimeMin()
	for _, o := range options[1:] {
		if t := o.TotalTimeMin(); t < fastest {
			fastest = t
		}
	}
	timeCap := float64(fastest) * costTimeCapFactor

	viable := make([]NormalizedOption, 0, len(options))
	for _, o := range options {
		if float64(o.TotalTimeMin()) <= timeCap {
			viable = append(viable, o)
		}
	}
	if len(viable) == 0 {
		// Nothing meets the cap; recommend the cheapest outright.
		viable = options
	}

	best := viable[0]
	for _, o := range viable[1:] {
		if o.CostUSD < best.CostUSD {
			best = o
		}
	}
	// The criterion winner always scores 1.0; only waiving the time cap
	// discounts it.
	score := 1.0
	if float64(best.TotalTimeMin()) > timeCap {
		score *= 0.5
	}
	return &AgentRecommendation{
		OptionID: best.ID,
		Score:    score,
		Why:      fmt.Sprintf("Lowest fare at $%.2f with reasonable time", best.CostUSD),
	}
}

func scoreEco(options []NormalizedOption) *AgentRecommendation {
	// Missing emission data is treated as worst-in-set for the CO2 term; the
	// mode weight still differentiates a walk with no figure from a car.
	worstCO2 := 0
	for _, o := range options {
		if o.CO2Grams != nil && *o.CO2Grams > worstCO2 {
			worstCO2 = *o.CO2Grams
		}
	}

	var best NormalizedOption
	bestScore := -1.0
	for _, o := range options {
		co2 := worstCO2
		if o.CO2Grams != nil {
			co2 = *o.CO2Grams
		}
		s := ecoModeWeights[o.Mode] - 0.0001*float64(co2)
		s = clamp01(s)
		if s > bestScore {
			bestScore = s
			best = o
		}
	}

	why := fmt.Sprintf("Eco-friendly %s option", ecoModeName(best.Mode))
	if best.CO2Grams != nil && *best.CO2Grams < 500 {
		why += fmt.Sprintf(" with low emissions (%dg CO2)", *best.CO2Grams)
	}
	return &AgentRecommendation{OptionID: best.ID, Score: bestScore, Why: why}
}

func scoreSafety(options []NormalizedOption, weights map[provider.Mode]float64) *AgentRecommendation {
	var best NormalizedOption
	bestScore := -1.0
	for _, o := range options {
		walkPenalty := 0.0
		if o.WalkMin != nil && *o.WalkMin > 0 {
			walkPenalty = float64(*o.WalkMin) * 0.05
			if walkPenalty > 0.2 {
				walkPenalty = 0.2
			}
		}
		s := clamp01(weights[o.Mode] - walkPenalty)
		if s > bestScore {
			bestScore = s
			best = o
		}
	}

	var why string
	switch {
	case best.WalkMin != nil && *best.WalkMin > 5:
		why = fmt.Sprintf("Minimal walking (%d min) reduces exposure", *best.WalkMin)
	case best.Mode == provider.ModeRideHail:
		why = "Door-to-door service avoids walking"
	default:
		why = "Balanced route with safety considerations"
	}
	return &AgentRecommendation{OptionID: best.ID, Score: bestScore, Why: why}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func ecoModeName(m provider.Mode) string {
	switch m {
	case provider.ModeWalk:
		return "walking"
	case provider.ModeBike:
		return "biking"
	case provider.ModeTransit:
		return "public transit"
	case provider.ModeMicromobility:
		return "scooter"
	case provider.ModeRideHail:
		return "ridehail"
	case provider.ModeDrive:
		return "driving"
	default:
		return string(m)
	}
}
