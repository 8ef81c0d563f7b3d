// README: Provider adapter contract and the raw candidate shape adapters decode into.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmcloughlin/geohash"

	"wayfinder/internal/types"
)

// Mode tags a candidate with its transportation category.
type Mode string

const (
	ModeRideHail      Mode = "ridehail"
	ModeTransit       Mode = "transit"
	ModeMicromobility Mode = "micromobility"
	ModeWalk          Mode = "walk"
	ModeBike          Mode = "bike"
	ModeDrive         Mode = "drive"
)

var (
	// ErrUnavailable means the adapter has no credentials or endpoint and
	// cannot participate. Absence is not a request failure.
	ErrUnavailable = errors.New("provider not configured")
	// ErrTimeout means the adapter exceeded its allotted time.
	ErrTimeout = errors.New("provider timed out")
	// ErrProviderError means the provider answered with a non-2xx status or a
	// payload the adapter could not decode.
	ErrProviderError = errors.New("provider error")
)

// RawCandidate is one unnormalized trip option decoded from a single
// provider's payload. Every field beyond Mode and Provider is optional;
// the normalizer fills the gaps with mode-aware estimates.
type RawCandidate struct {
	ID       string
	Mode     Mode
	Provider string
	Product  string
	Line     string

	ETAPickupMin *int
	WaitMin      *int
	// DurationSeconds is the in-vehicle or walking time only, exclusive of
	// pickup, wait and transfer walks.
	DurationSeconds int
	WalkMin         *int

	// DistanceMeters is zero when the provider did not report a distance.
	DistanceMeters float64

	CostUSD  float64
	CO2Grams *int
	Deeplink string
	Metadata map[string]string
}

// Adapter turns a plan request into a provider-specific call and the
// provider's response into zero or more raw candidates. Implementations are
// stateless across requests and return only ErrUnavailable, ErrTimeout or
// ErrProviderError.
type Adapter interface {
	Name() string
	FetchOptions(ctx context.Context, origin, destination types.Point, when *time.Time) ([]RawCandidate, error)
}

// classify maps transport-level failures onto the adapter error taxonomy.
func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return ErrTimeout
	}
	if errors.Is(err, context.Canceled) {
		return ErrTimeout
	}
	return ErrProviderError
}

// CandidateID derives a stable candidate id from the trip endpoints. Two
// identical requests yield identical ids, which keeps the plan path
// idempotent when providers are down.
func CandidateID(label string, origin, destination types.Point) string {
	return fmt.Sprintf("%s-%s-%s",
		label,
		geohash.EncodeWithPrecision(origin.Lat, origin.Lng, 7),
		geohash.EncodeWithPrecision(destination.Lat, destination.Lng, 7),
	)
}

func intPtr(v int) *int { return &v }
