package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Exercises a running API plus its Postgres diagnostics store: plans a trip,
// then verifies a plan_requests row landed for it.
func TestPlanEndpointWritesDiagnostics(t *testing.T) {
	loadDotEnv(t)

	dsn := strings.TrimSpace(os.Getenv("WAYFINDER_DB_DSN"))
	if dsn == "" {
		t.Skip("WAYFINDER_DB_DSN not set; skipping integration test")
	}
	baseURL := strings.TrimRight(envOrDefault("WAYFINDER_API_BASE_URL", "http://localhost:8080"), "/")
	client := &http.Client{Timeout: 30 * time.Second}
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect postgres (%s): %v", redactedDSN(dsn), err)
	}
	t.Cleanup(db.Close)
	if err := db.Ping(ctx); err != nil {
		t.Fatalf("ping postgres (%s): %v", redactedDSN(dsn), err)
	}

	if _, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS plan_requests (
			request_id TEXT PRIMARY KEY,
			origin_lat DOUBLE PRECISION NOT NULL,
			origin_lng DOUBLE PRECISION NOT NULL,
			dest_lat DOUBLE PRECISION NOT NULL,
			dest_lng DOUBLE PRECISION NOT NULL,
			state TEXT NOT NULL,
			option_count INT NOT NULL,
			failures JSONB,
			latency_ms BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)
	`); err != nil {
		t.Fatalf("ensure plan_requests table: %v", err)
	}

	waitForAPIReady(t, client, baseURL)

	// Distinct endpoints per run so the row lookup below is unambiguous.
	originLat := 37.70 + float64(time.Now().UnixNano()%1000)/100000

	status, body := callPlan(t, client, baseURL, originLat)
	if status != http.StatusOK {
		t.Fatalf("plan call: expected %d, got %d, body=%s", http.StatusOK, status, string(body))
	}
	var planResp struct {
		State   string `json:"state"`
		Options []struct {
			ID string `json:"id"`
		} `json:"options"`
	}
	if err := json.Unmarshal(body, &planResp); err != nil {
		t.Fatalf("unmarshal plan response: %v, raw=%s", err, string(body))
	}
	if len(planResp.Options) == 0 {
		t.Fatalf("expected options, raw=%s", string(body))
	}

	var state string
	var optionCount int
	deadline := time.Now().Add(10 * time.Second)
	for {
		err := db.QueryRow(ctx, `
			SELECT state, option_count FROM plan_requests
			WHERE origin_lat = $1
			ORDER BY created_at DESC
			LIMIT 1`, originLat).Scan(&state, &optionCount)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("diagnostics row not found: %v", err)
		}
		time.Sleep(500 * time.Millisecond)
	}
	if state != planResp.State {
		t.Fatalf("diagnostics state %q, response state %q", state, planResp.State)
	}
	if optionCount != len(planResp.Options) {
		t.Fatalf("diagnostics option_count %d, response had %d", optionCount, len(planResp.Options))
	}
}

// Requires GEMINI_API_KEY to be configured on the server; otherwise the
// endpoint legitimately reports 503 and the test skips.
func TestSummaryEndpoint(t *testing.T) {
	loadDotEnv(t)

	baseURL := strings.TrimRight(envOrDefault("WAYFINDER_API_BASE_URL", "http://localhost:8080"), "/")
	client := &http.Client{Timeout: 30 * time.Second}
	waitForAPIReady(t, client, baseURL)

	payload := []byte(`{
		"origin": {"latitude": 37.7749, "longitude": -122.4194},
		"destination": {"latitude": 37.8044, "longitude": -122.2712}
	}`)
	resp, err := client.Post(baseURL+"/api/plan/summary", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("call /api/plan/summary: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusServiceUnavailable {
		t.Skip("summarizer not configured on server")
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", resp.StatusCode, string(body))
	}

	var sumResp struct {
		Summary struct {
			Headline            string `json:"headline"`
			RecommendedOptionID string `json:"recommended_option_id"`
		} `json:"summary"`
		Options []struct {
			ID string `json:"id"`
		} `json:"options"`
	}
	if err := json.Unmarshal(body, &sumResp); err != nil {
		t.Fatalf("unmarshal summary response: %v, raw=%s", err, string(body))
	}
	if strings.TrimSpace(sumResp.Summary.Headline) == "" {
		t.Fatalf("expected non-empty headline, raw=%s", string(body))
	}
	found := false
	for _, o := range sumResp.Options {
		if o.ID == sumResp.Summary.RecommendedOptionID {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("recommended option %q not in options, raw=%s", sumResp.Summary.RecommendedOptionID, string(body))
	}
}

func callPlan(t *testing.T, client *http.Client, baseURL string, originLat float64) (int, []byte) {
	t.Helper()

	payload, err := json.Marshal(map[string]any{
		"origin":      map[string]float64{"latitude": originLat, "longitude": -122.4194},
		"destination": map[string]float64{"latitude": 37.8044, "longitude": -122.2712},
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/plan", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("call /api/plan: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}

	return resp.StatusCode, body
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func redactedDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at == -1 || scheme == -1 || at <= scheme+3 {
		return dsn
	}
	return dsn[:scheme+3] + "***:***" + dsn[at:]
}

func waitForAPIReady(t *testing.T, client *http.Client, baseURL string) {
	t.Helper()

	deadline := time.Now().Add(20 * time.Second)
	for time.Now().Before(deadline) {
		req, err := http.NewRequest(http.MethodGet, baseURL+"/health", nil)
		if err == nil {
			resp, err := client.Do(req)
			if err == nil {
				_ = resp.Body.Close()
				if resp.StatusCode == http.StatusOK {
					return
				}
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Skipf("api not ready: GET %s/health did not return 200 in time", baseURL)
}

func loadDotEnv(t *testing.T) {
	t.Helper()

	dir, err := os.Getwd()
	if err != nil {
		return
	}
	path := ""
	for i := 0; i < 8; i++ {
		candidate := filepath.Join(dir, ".env")
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	if path == "" {
		return
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		k := strings.TrimSpace(parts[0])
		v := strings.TrimSpace(parts[1])
		if k == "" {
			continue
		}
		if _, ok := os.LookupEnv(k); ok {
			continue
		}
		_ = os.Setenv(k, v)
	}
}
