package plan

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wayfinder/internal/modules/provider"
	"wayfinder/internal/types"
)

type fakeAdapter struct {
	name  string
	calls atomic.Int32
	fetch func(ctx context.Context) ([]provider.RawCandidate, error)
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) FetchOptions(ctx context.Context, _, _ types.Point, _ *time.Time) ([]provider.RawCandidate, error) {
	f.calls.Add(1)
	return f.fetch(ctx)
}

func staticAdapter(name string, candidates ...provider.RawCandidate) *fakeAdapter {
	return &fakeAdapter{name: name, fetch: func(context.Context) ([]provider.RawCandidate, error) {
		return candidates, nil
	}}
}

func failingAdapter(name string, err error) *fakeAdapter {
	return &fakeAdapter{name: name, fetch: func(context.Context) ([]provider.RawCandidate, error) {
		return nil, err
	}}
}

func blockingAdapter(name string) *fakeAdapter {
	return &fakeAdapter{name: name, fetch: func(ctx context.Context) ([]provider.RawCandidate, error) {
		<-ctx.Done()
		return nil, provider.ErrTimeout
	}}
}

func rawCandidate(id string, mode provider.Mode) provider.RawCandidate {
	return provider.RawCandidate{
		ID:              id,
		Mode:            mode,
		Provider:        "test",
		DurationSeconds: 600,
		DistanceMeters:  5000,
		CostUSD:         3.25,
	}
}

func TestPlanRejectsInvalidInputBeforeDispatch(t *testing.T) {
	adapter := staticAdapter("uber", rawCandidate("a", provider.ModeRideHail))
	svc := NewService([]provider.Adapter{adapter}, nil, Config{}, nil)

	_, err := svc.Plan(context.Background(), PlanCommand{
		Origin:      types.Point{Lat: 99, Lng: 0},
		Destination: oakland,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, int32(0), adapter.calls.Load())
}

func TestPlanAbsorbsPartialFailures(t *testing.T) {
	svc := NewService([]provider.Adapter{
		staticAdapter("uber", rawCandidate("uber-a", provider.ModeRideHail), rawCandidate("uber-b", provider.ModeRideHail)),
		staticAdapter("bart", rawCandidate("bart-a", provider.ModeTransit)),
		failingAdapter("lime", provider.ErrProviderError),
	}, nil, Config{}, nil)

	res, err := svc.Plan(context.Background(), PlanCommand{Origin: sfDowntown, Destination: oakland})
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, res.State)
	assert.Len(t, res.Response.Options, 3)
	assert.Equal(t, map[string]string{"lime": "error"}, res.Failures)
}

func TestPlanDegradesToFallbackWhenAllProvidersFail(t *testing.T) {
	svc := NewService([]provider.Adapter{
		failingAdapter("uber", provider.ErrUnavailable),
		failingAdapter("bart", provider.ErrProviderError),
	}, nil, Config{}, nil)

	res, err := svc.Plan(context.Background(), PlanCommand{Origin: sfDowntown, Destination: oakland})
	require.NoError(t, err)
	assert.Equal(t, StateDegraded, res.State)
	assert.Len(t, res.Response.Options, 5)
	assert.Equal(t, "unavailable", res.Failures["uber"])
	assert.Equal(t, "error", res.Failures["bart"])
	for _, o := range res.Response.Options {
		assert.Equal(t, "true", o.Metadata["synthetic"])
	}
}

func TestPlanWorksWithNoAdaptersAtAll(t *testing.T) {
	svc := NewService(nil, nil, Config{}, nil)
	res, err := svc.Plan(context.Background(), PlanCommand{Origin: sfDowntown, Destination: oakland})
	require.NoError(t, err)
	assert.Equal(t, StateDegraded, res.State)
	assert.Len(t, res.Response.Options, 5)
	require.NotNil(t, res.Response.Agents.Speed)
	require.NotNil(t, res.Response.Agents.Cost)
}

func TestPlanTimesOutSlowProvider(t *testing.T) {
	slow := blockingAdapter("slow")
	svc := NewService([]provider.Adapter{
		slow,
		staticAdapter("bart", rawCandidate("bart-a", provider.ModeTransit)),
	}, nil, Config{ProviderTimeout: 30 * time.Millisecond, OverallDeadline: time.Second}, nil)

	res, err := svc.Plan(context.Background(), PlanCommand{Origin: sfDowntown, Destination: oakland})
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, res.State)
	assert.Len(t, res.Response.Options, 1)
	assert.Equal(t, "timeout", res.Failures["slow"])
	assert.Equal(t, int32(1), slow.calls.Load())
}

func TestPlanIsIdempotent(t *testing.T) {
	svc := NewService(nil, nil, Config{}, nil)
	cmd := PlanCommand{Origin: sfDowntown, Destination: oakland}

	first, err := svc.Plan(context.Background(), cmd)
	require.NoError(t, err)
	second, err := svc.Plan(context.Background(), cmd)
	require.NoError(t, err)

	assert.Equal(t, first.Response, second.Response)
}

func TestPlanAlwaysIncludeFallbackAppendsSynthetics(t *testing.T) {
	svc := NewService([]provider.Adapter{
		staticAdapter("uber", rawCandidate("uber-a", provider.ModeRideHail)),
	}, nil, Config{AlwaysIncludeFallback: true}, nil)

	res, err := svc.Plan(context.Background(), PlanCommand{Origin: sfDowntown, Destination: oakland})
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, res.State)
	assert.Len(t, res.Response.Options, 6)

	synthetic := 0
	for _, o := range res.Response.Options {
		if o.Metadata["synthetic"] == "true" {
			synthetic++
		}
	}
	assert.Equal(t, 5, synthetic)
}

func TestPlanDeduplicatesOptionIDs(t *testing.T) {
	svc := NewService([]provider.Adapter{
		staticAdapter("uber", rawCandidate("dup", provider.ModeRideHail)),
		staticAdapter("lyft", rawCandidate("dup", provider.ModeRideHail)),
	}, nil, Config{}, nil)

	res, err := svc.Plan(context.Background(), PlanCommand{Origin: sfDowntown, Destination: oakland})
	require.NoError(t, err)
	require.Len(t, res.Response.Options, 2)

	seen := make(map[types.ID]bool)
	for _, o := range res.Response.Options {
		assert.False(t, seen[o.ID], "duplicate id %s", o.ID)
		seen[o.ID] = true
	}
}

func TestPlanRecommendationsReferenceReturnedOptions(t *testing.T) {
	svc := NewService(nil, nil, Config{}, nil)
	res, err := svc.Plan(context.Background(), PlanCommand{Origin: sfDowntown, Destination: oakland})
	require.NoError(t, err)

	ids := make(map[types.ID]bool)
	for _, o := range res.Response.Options {
		ids[o.ID] = true
	}
	for _, rec := range []*AgentRecommendation{
		res.Response.Agents.Speed,
		res.Response.Agents.Cost,
		res.Response.Agents.Eco,
		res.Response.Agents.Safety,
	} {
		require.NotNil(t, rec)
		assert.True(t, ids[rec.OptionID], "recommendation references unknown option %s", rec.OptionID)
	}
}
