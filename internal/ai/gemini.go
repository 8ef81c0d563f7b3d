package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"wayfinder/internal/modules/plan"
)

// GeminiSummarizer implements Summarizer using Google's Gemini models.
type GeminiSummarizer struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiSummarizer initializes a new Gemini client.
// apiKey should be provided from environment variables.
func NewGeminiSummarizer(ctx context.Context, apiKey string) (*GeminiSummarizer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Gemini 2.0 Flash for low latency and cost efficiency.
	model := client.GenerativeModel("gemini-2.0-flash")

	// Force JSON response for structured parsing.
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.4)

	return &GeminiSummarizer{client: client, model: model}, nil
}

// Close cleans up the Gemini client resources.
func (s *GeminiSummarizer) Close() {
	s.client.Close()
}

// SummarizePlan renders the option set into a prompt and parses the model's
// structured verdict. The plan data is authoritative; the model only narrates.
func (s *GeminiSummarizer) SummarizePlan(ctx context.Context, response plan.PlanResponse) (*Summary, error) {
	payload, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("encode plan: %w", err)
	}

	fullPrompt := fmt.Sprintf("%s\n\nPlan data:\n%s", summaryPrompt, payload)

	resp, err := s.model.GenerateContent(ctx, genai.Text(fullPrompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no response candidates from Gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		}
	}

	// Strip markdown fences in case JSON mode is not honored.
	cleanJSON := cleanJSONString(responseText.String())

	var summary Summary
	if err := json.Unmarshal([]byte(cleanJSON), &summary); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w. Raw: %s", err, cleanJSON)
	}

	if !knownOptionID(response, summary.RecommendedOptionID) {
		return nil, fmt.Errorf("model recommended unknown option %q", summary.RecommendedOptionID)
	}
	return &summary, nil
}

func knownOptionID(response plan.PlanResponse, id string) bool {
	for _, o := range response.Options {
		if string(o.ID) == id {
			return true
		}
	}
	return false
}

const summaryPrompt = `Role: You are the trip briefing assistant for a multi-modal trip planner.
You receive a JSON plan: a list of trip options (id, mode, times in minutes,
cost in USD, CO2 in grams) plus one recommendation per criterion (speed, cost,
eco, safety).

RULES:
1. Work ONLY from the data given. Never invent options, prices, or times.
2. Pick exactly one option as the overall recommendation. Prefer the option
   that wins the most criteria; break ties toward the speed pick.
3. "headline" is one sentence naming the pick and its strongest reason.
4. "detail" is at most three sentences covering the main trade-off the rider
   gives up by following the headline (e.g. cheaper but slower alternative).
5. Keep plain, conversational English. No markdown, no all-caps tokens.

Output JSON Schema:
{
  "headline": "string",
  "detail": "string",
  "recommended_option_id": "string (must be an id from the plan data)"
}
`

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
