// README: Smoke test cases for the plan API; includes HTTP, DB, Redis, and performance checks.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name  string
	Focus string
	Run   func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 15 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		res := tc.Run(ctx, r)
		results = append(results, res)
		fmt.Printf("%-7s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}

	return results
}

var crossBayTrip = map[string]any{
	"origin":      map[string]float64{"latitude": 37.7749, "longitude": -122.4194},
	"destination": map[string]float64{"latitude": 37.8044, "longitude": -122.2712},
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	return []TestCase{
		{
			Name:  "Env: Postgres connect",
			Focus: "diagnostics store reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "SKIP", Note: "dsn not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Env: plan_requests table exists",
			Focus: "diagnostics schema applied",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "SKIP", Note: "dsn not configured"}
				}
				var exists bool
				err := r.db.QueryRow(ctx,
					"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
					"plan_requests",
				).Scan(&exists)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				if !exists {
					return Result{Status: "FAIL", Note: "missing table: plan_requests"}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Env: Redis connect",
			Focus: "rate limiter backend reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: "SKIP", Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "API: health",
			Focus: "server reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				start := time.Now()
				resp, err := r.httpc.Get(base + "/health")
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				_ = resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					return Result{Status: "FAIL", Note: fmt.Sprintf("status=%d", resp.StatusCode)}
				}
				return Result{Status: "PASS", Latency: time.Since(start)}
			},
		},

		httpCase("Plan: cross-bay trip", base+"/api/plan", crossBayTrip, []int{200}),
		httpCase("Plan: missing destination -> 400", base+"/api/plan", map[string]any{
			"origin": map[string]float64{"latitude": 37.7749, "longitude": -122.4194},
		}, []int{400}),
		httpCase("Plan: out-of-range coords -> 400", base+"/api/plan", map[string]any{
			"origin":      map[string]float64{"latitude": 99, "longitude": 0},
			"destination": map[string]float64{"latitude": 37.8044, "longitude": -122.2712},
		}, []int{400}),
		httpCase("Routes: cross-bay trip", base+"/api/routes", crossBayTrip, []int{200}),
		httpCase("Summary: cross-bay trip", base+"/api/plan/summary", crossBayTrip, []int{200, 503}),

		{
			Name:  "Plan: options non-empty and agents present",
			Focus: "fallback guarantees a usable response",
			Run:   planShapeCase(base),
		},
		{
			Name:  "Plan: repeated request is stable",
			Focus: "same trip twice yields identical option ids",
			Run:   planStabilityCase(base),
		},
		{
			Name:  "Perf: plan throughput",
			Focus: "sustained concurrent planning",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, base+"/api/plan", crossBayTrip)
			},
		},
	}
}

func httpCase(name, url string, body any, okStatuses []int) TestCase {
	return TestCase{
		Name:  name,
		Focus: "HTTP API",
		Run: func(ctx context.Context, r *Runner) Result {
			b, _ := json.Marshal(body)
			req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
			req.Header.Set("Content-Type", "application/json")
			start := time.Now()
			resp, err := r.httpc.Do(req)
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			latency := time.Since(start)

			if contains(okStatuses, resp.StatusCode) {
				return Result{Status: "PASS", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
			}
			return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
		},
	}
}

type planResponseShape struct {
	State   string `json:"state"`
	Options []struct {
		ID string `json:"id"`
	} `json:"options"`
	Agents map[string]struct {
		OptionID string `json:"option_id"`
	} `json:"agents"`
}

func fetchPlan(ctx context.Context, r *Runner, url string) (*planResponseShape, error) {
	b, _ := json.Marshal(crossBayTrip)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status=%d", resp.StatusCode)
	}
	var shape planResponseShape
	if err := json.NewDecoder(resp.Body).Decode(&shape); err != nil {
		return nil, err
	}
	return &shape, nil
}

func planShapeCase(base string) func(ctx context.Context, r *Runner) Result {
	return func(ctx context.Context, r *Runner) Result {
		shape, err := fetchPlan(ctx, r, base+"/api/plan")
		if err != nil {
			return Result{Status: "FAIL", Note: err.Error()}
		}
		if len(shape.Options) == 0 {
			return Result{Status: "FAIL", Note: "no options"}
		}
		ids := make(map[string]bool, len(shape.Options))
		for _, o := range shape.Options {
			ids[o.ID] = true
		}
		for criterion, rec := range shape.Agents {
			if !ids[rec.OptionID] {
				return Result{Status: "FAIL", Note: fmt.Sprintf("%s references unknown option %s", criterion, rec.OptionID)}
			}
		}
		return Result{Status: "PASS", Note: fmt.Sprintf("options=%d state=%s", len(shape.Options), shape.State)}
	}
}

func planStabilityCase(base string) func(ctx context.Context, r *Runner) Result {
	return func(ctx context.Context, r *Runner) Result {
		first, err := fetchPlan(ctx, r, base+"/api/plan")
		if err != nil {
			return Result{Status: "FAIL", Note: err.Error()}
		}
		second, err := fetchPlan(ctx, r, base+"/api/plan")
		if err != nil {
			return Result{Status: "FAIL", Note: err.Error()}
		}
		if len(first.Options) != len(second.Options) {
			// Live provider data can shift between calls; only a fully
			// degraded (fallback-only) response is required to be stable.
			if first.State == "degraded" && second.State == "degraded" {
				return Result{Status: "FAIL", Note: "degraded responses differ in size"}
			}
			return Result{Status: "PENDING", Note: "live provider data changed between calls"}
		}
		for i := range first.Options {
			if first.Options[i].ID != second.Options[i].ID {
				if first.State == "degraded" && second.State == "degraded" {
					return Result{Status: "FAIL", Note: "degraded responses differ in ids"}
				}
				return Result{Status: "PENDING", Note: "live provider data changed between calls"}
			}
		}
		return Result{Status: "PASS"}
	}
}

func perfLoad(ctx context.Context, r *Runner, url string, payload any) Result {
	b, _ := json.Marshal(payload)
	end := time.Now().Add(r.cfg.Duration)
	var count int64
	var errCount int64
	var mu sync.Mutex
	wg := sync.WaitGroup{}

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) {
				req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(b)))
				req.Header.Set("Content-Type", "application/json")
				resp, err := r.httpc.Do(req)
				if err != nil {
					mu.Lock()
					errCount++
					mu.Unlock()
					continue
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				mu.Lock()
				count++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: "FAIL", Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: "PASS", Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}

func contains(list []int, v int) bool {
	for _, i := range list {
		if i == v {
			return true
		}
	}
	return false
}
