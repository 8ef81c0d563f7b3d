package ai

import (
	"context"

	"wayfinder/internal/modules/plan"
)

// Summarizer turns a scored plan into a short natural-language briefing.
// The interface allows swapping model vendors without touching the HTTP layer.
type Summarizer interface {
	// SummarizePlan explains the option set and the per-criterion picks in a
	// couple of sentences a rider can act on.
	SummarizePlan(ctx context.Context, response plan.PlanResponse) (*Summary, error)
}
