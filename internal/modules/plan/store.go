// README: Diagnostics persistence; one row per plan request.
package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"wayfinder/internal/types"
)

// Record is the diagnostics row written after each plan request settles.
type Record struct {
	RequestID   string            `json:"request_id"`
	Origin      types.Point       `json:"origin"`
	Destination types.Point       `json:"destination"`
	State       State             `json:"state"`
	OptionCount int               `json:"option_count"`
	Failures    map[string]string `json:"failures,omitempty"`
	LatencyMS   int64             `json:"latency_ms"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Store writes plan diagnostics to Postgres. A nil *Store is a no-op, so the
// engine runs unchanged without a database configured.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

func (s *Store) RecordPlan(ctx context.Context, rec Record) error {
	if s == nil {
		return nil
	}
	failures, err := json.Marshal(rec.Failures)
	if err != nil {
		return fmt.Errorf("marshal failures: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO plan_requests
			(request_id, origin_lat, origin_lng, dest_lat, dest_lng,
			 state, option_count, failures, latency_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.RequestID,
		rec.Origin.Lat, rec.Origin.Lng,
		rec.Destination.Lat, rec.Destination.Lng,
		string(rec.State), rec.OptionCount, failures, rec.LatencyMS, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert plan request: %w", err)
	}
	return nil
}

// RecentFailures returns the latest degraded or failed requests, newest
// first, for operational inspection.
func (s *Store) RecentFailures(ctx context.Context, limit int) ([]Record, error) {
	if s == nil {
		return nil, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT request_id, origin_lat, origin_lng, dest_lat, dest_lng,
		       state, option_count, failures, latency_ms, created_at
		FROM plan_requests
		WHERE state IN ('degraded', 'failed')
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query plan requests: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var state string
		var failures []byte
		if err := rows.Scan(
			&rec.RequestID,
			&rec.Origin.Lat, &rec.Origin.Lng,
			&rec.Destination.Lat, &rec.Destination.Lng,
			&state, &rec.OptionCount, &failures, &rec.LatencyMS, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan plan request: %w", err)
		}
		rec.State = State(state)
		if len(failures) > 0 {
			if err := json.Unmarshal(failures, &rec.Failures); err != nil {
				return nil, fmt.Errorf("decode failures: %w", err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
