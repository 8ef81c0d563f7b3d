// README: Canonical plan entities; request-scoped, never mutated after construction.
package plan

import (
	"wayfinder/internal/modules/provider"
	"wayfinder/internal/types"
)

// NormalizedOption is the canonical, mode-agnostic trip option every
// candidate is reduced to before scoring. Total trip time is always
// recomputed from its parts, never stored pre-summed.
type NormalizedOption struct {
	ID       types.ID      `json:"id"`
	Mode     provider.Mode `json:"mode"`
	Provider string        `json:"provider"`
	Product  string        `json:"product,omitempty"`
	Line     string        `json:"line,omitempty"`

	ETAPickupMin *int `json:"eta_pickup_min,omitempty"`
	WaitMin      *int `json:"wait_min,omitempty"`
	DurationMin  int  `json:"duration_min"`
	WalkMin      *int `json:"walk_min,omitempty"`

	CostUSD  float64 `json:"cost_usd"`
	CO2Grams *int    `json:"co2_g,omitempty"`

	Deeplink string            `json:"deeplink,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// TotalTimeMin is pickup/wait + duration + walk.
func (o NormalizedOption) TotalTimeMin() int {
	lead := 0
	switch {
	case o.ETAPickupMin != nil:
		lead = *o.ETAPickupMin
	case o.WaitMin != nil:
		lead = *o.WaitMin
	}
	walk := 0
	if o.WalkMin != nil {
		walk = *o.WalkMin
	}
	return lead + o.DurationMin + walk
}

// RouteSegment is one leg of a presentation route.
type RouteSegment struct {
	TransportMode   string  `json:"transport_mode"`
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds int     `json:"duration_seconds"`
	Instructions    string  `json:"instructions"`
}

// Route is the presentation form of a NormalizedOption: a pure projection of
// the option plus the trip endpoints, recomputed per request.
type Route struct {
	ID                   types.ID       `json:"id"`
	TransportModes       []string       `json:"transport_modes"`
	TotalDistanceMeters  float64        `json:"total_distance_meters"`
	TotalDurationSeconds int            `json:"total_duration_seconds"`
	CostUSD              float64        `json:"cost_usd"`
	Segments             []RouteSegment `json:"segments"`
	Polyline             string         `json:"polyline"`
}

// AgentRecommendation references the winning option of one criterion.
type AgentRecommendation struct {
	OptionID types.ID `json:"option_id"`
	Score    float64  `json:"score"`
	Why      string   `json:"why"`
}

// Agents holds one recommendation per criterion. All four fields are absent
// when the option set is empty.
type Agents struct {
	Speed  *AgentRecommendation `json:"speed,omitempty"`
	Cost   *AgentRecommendation `json:"cost,omitempty"`
	Eco    *AgentRecommendation `json:"eco,omitempty"`
	Safety *AgentRecommendation `json:"safety,omitempty"`
}

// PlanResponse is what the engine hands back to the caller. Every option id
// referenced by Agents exists in Options.
type PlanResponse struct {
	Options []NormalizedOption `json:"options"`
	Agents  Agents             `json:"agents"`
}

// State is the orchestrator's terminal state for one plan request.
type State string

const (
	StateIdle        State = "idle"
	StateDispatching State = "dispatching"
	StateCollecting  State = "collecting"
	StateSucceeded   State = "succeeded"
	StateDegraded    State = "degraded"
	StateFailed      State = "failed"
)
