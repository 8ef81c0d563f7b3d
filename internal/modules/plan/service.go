// README: Plan orchestrator; fans out to providers, falls back, normalizes, scores.
package plan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wayfinder/internal/modules/provider"
	"wayfinder/internal/types"
)

// ErrAllSourcesFailed means even the fallback generator could not produce
// options. It is the only failure beyond ErrInvalidInput that reaches the
// caller.
var ErrAllSourcesFailed = errors.New("all sources failed")

// Config is the explicit orchestrator configuration; there is no ambient
// environment lookup inside the engine.
type Config struct {
	// ProviderTimeout bounds each adapter call independently.
	ProviderTimeout time.Duration
	// OverallDeadline bounds the whole plan request; outstanding provider
	// calls are abandoned when it expires.
	OverallDeadline time.Duration
	// AlwaysIncludeFallback appends synthetic options even when providers
	// returned candidates.
	AlwaysIncludeFallback bool
	// SafetyWeights overrides the safety criterion's per-mode weights.
	SafetyWeights map[provider.Mode]float64
}

const (
	defaultProviderTimeout = 4 * time.Second
	defaultOverallDeadline = 8 * time.Second
)

// Service coordinates provider fan-out and the fallback path for one plan
// request at a time. It holds no per-request state; concurrent Plan calls
// share nothing but the adapter list.
type Service struct {
	adapters []provider.Adapter
	store    *Store
	cfg      Config
	log      *zap.Logger
}

func NewService(adapters []provider.Adapter, store *Store, cfg Config, log *zap.Logger) *Service {
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = defaultProviderTimeout
	}
	if cfg.OverallDeadline <= 0 {
		cfg.OverallDeadline = defaultOverallDeadline
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{adapters: adapters, store: store, cfg: cfg, log: log}
}

// PlanCommand is one trip request.
type PlanCommand struct {
	Origin      types.Point
	Destination types.Point
	When        *time.Time
}

// Result carries the response plus the orchestrator's terminal state and the
// aggregate failure reasons kept for diagnostics.
type Result struct {
	State    State
	Response PlanResponse
	// Failures maps adapter name to the failure kind that excluded it.
	Failures map[string]string
}

type providerOutcome struct {
	name       string
	candidates []provider.RawCandidate
	err        error
}

// Plan validates the request, fans it out to every configured adapter,
// merges real candidates with the fallback policy, and scores the result.
// Provider failures never fail the request; they are absorbed here.
func (s *Service) Plan(ctx context.Context, cmd PlanCommand) (*Result, error) {
	started := time.Now()
	requestID := uuid.NewString()
	log := s.log.With(zap.String("request_id", requestID))

	if !cmd.Origin.Valid() || !cmd.Destination.Valid() {
		return nil, ErrInvalidInput
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.OverallDeadline)
	defer cancel()

	// Dispatching: one task per adapter, each with its own timeout. The
	// buffered channel lets abandoned calls finish without leaking.
	outcomes := make(chan providerOutcome, len(s.adapters))
	for _, a := range s.adapters {
		go func(a provider.Adapter) {
			callCtx, callCancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
			defer callCancel()
			cands, err := a.FetchOptions(callCtx, cmd.Origin, cmd.Destination, cmd.When)
			outcomes <- providerOutcome{name: a.Name(), candidates: cands, err: err}
		}(a)
	}

	// Collecting: record each settled call; stop early on the overall
	// deadline and discard whatever arrives later.
	var raw []provider.RawCandidate
	failures := make(map[string]string)
collect:
	for i := 0; i < len(s.adapters); i++ {
		select {
		case out := <-outcomes:
			if out.err != nil {
				failures[out.name] = failureKind(out.err)
				log.Info("provider excluded",
					zap.String("provider", out.name),
					zap.String("reason", failures[out.name]),
					zap.Error(out.err))
				continue
			}
			raw = append(raw, out.candidates...)
		case <-ctx.Done():
			log.Warn("overall deadline expired, abandoning outstanding providers",
				zap.Int("settled", i))
			break collect
		}
	}

	state := StateSucceeded
	if len(raw) == 0 {
		state = StateDegraded
	}
	if len(raw) == 0 || s.cfg.AlwaysIncludeFallback {
		synthetic, err := GenerateFallback(cmd.Origin, cmd.Destination)
		if err != nil {
			s.record(requestID, cmd, StateFailed, 0, failures, started)
			return nil, fmt.Errorf("%w: %v", ErrAllSourcesFailed, err)
		}
		raw = append(raw, synthetic...)
	}

	options := make([]NormalizedOption, 0, len(raw))
	seen := make(map[types.ID]int, len(raw))
	for _, c := range raw {
		o := Normalize(c, cmd.Origin, cmd.Destination)
		// Ids must be unique within one response even if two providers
		// collide on the same slug.
		if n := seen[o.ID]; n > 0 {
			o.ID = types.ID(fmt.Sprintf("%s-%d", o.ID, n+1))
		}
		seen[types.ID(c.ID)]++
		options = append(options, o)
	}

	agents := ScoreOptions(options, s.cfg.SafetyWeights)

	log.Info("plan complete",
		zap.String("state", string(state)),
		zap.Int("options", len(options)),
		zap.Int("provider_failures", len(failures)),
		zap.Duration("elapsed", time.Since(started)))

	s.record(requestID, cmd, state, len(options), failures, started)

	return &Result{
		State:    state,
		Response: PlanResponse{Options: options, Agents: agents},
		Failures: failures,
	}, nil
}

// record persists the aggregate diagnostics row; best effort, never blocks
// the response.
func (s *Service) record(requestID string, cmd PlanCommand, state State, optionCount int, failures map[string]string, started time.Time) {
	if s.store == nil {
		return
	}
	rec := Record{
		RequestID:   requestID,
		Origin:      cmd.Origin,
		Destination: cmd.Destination,
		State:       state,
		OptionCount: optionCount,
		Failures:    failures,
		LatencyMS:   time.Since(started).Milliseconds(),
		CreatedAt:   started,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.store.RecordPlan(ctx, rec); err != nil {
		s.log.Warn("diagnostics record failed", zap.Error(err))
	}
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, provider.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, provider.ErrTimeout):
		return "timeout"
	default:
		return "error"
	}
}
