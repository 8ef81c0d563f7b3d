package ai

// Summary is the structured output of the model.
type Summary struct {
	// Headline is a one-line verdict, e.g. which option to take and why.
	Headline string `json:"headline"`

	// Detail expands on trade-offs between the recommended options.
	Detail string `json:"detail"`

	// RecommendedOptionID names the single option the model would pick
	// overall. It must be one of the ids it was shown.
	RecommendedOptionID string `json:"recommended_option_id"`
}
