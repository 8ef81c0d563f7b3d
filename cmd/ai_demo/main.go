package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"wayfinder/internal/ai"
	"wayfinder/internal/modules/plan"
	"wayfinder/internal/types"
)

func main() {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal("GEMINI_API_KEY environment variable not set")
	}

	ctx := context.Background()
	summarizer, err := ai.NewGeminiSummarizer(ctx, apiKey)
	if err != nil {
		log.Fatalf("Failed to initialize summarizer: %v", err)
	}
	defer summarizer.Close()

	// Offline plan: no provider calls, just the synthetic cross-bay options.
	origin := types.Point{Lat: 37.7749, Lng: -122.4194}
	destination := types.Point{Lat: 37.8044, Lng: -122.2712}

	svc := plan.NewService(nil, nil, plan.Config{}, nil)
	res, err := svc.Plan(ctx, plan.PlanCommand{Origin: origin, Destination: destination})
	if err != nil {
		log.Fatalf("Error planning trip: %v", err)
	}

	fmt.Printf("Options (%s):\n", res.State)
	for _, o := range res.Response.Options {
		fmt.Printf("  %-40s %3d min  $%.2f\n", o.ID, o.TotalTimeMin(), o.CostUSD)
	}

	summary, err := summarizer.SummarizePlan(ctx, res.Response)
	if err != nil {
		log.Fatalf("Error generating summary: %v", err)
	}

	fmt.Printf("\nHeadline: %s\n", summary.Headline)
	fmt.Printf("Detail: %s\n", summary.Detail)
	fmt.Printf("Pick: %s\n", summary.RecommendedOptionID)
}
