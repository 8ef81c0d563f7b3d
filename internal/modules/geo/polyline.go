// README: Pipe-separated polyline codec for map previews.
package geo

import (
	"fmt"
	"strconv"
	"strings"

	"wayfinder/internal/types"
)

// EncodePolyline renders points as pipe-separated "lat,lng" tokens. The
// format is the wire format the mobile client draws from; it is not the
// Google encoded-polyline scheme.
func EncodePolyline(points []types.Point) string {
	tokens := make([]string, len(points))
	for i, p := range points {
		tokens[i] = strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lng, 'f', -1, 64)
	}
	return strings.Join(tokens, "|")
}

// DecodePolyline is the exact inverse of EncodePolyline.
func DecodePolyline(s string) ([]types.Point, error) {
	if s == "" {
		return nil, fmt.Errorf("empty polyline")
	}
	tokens := strings.Split(s, "|")
	points := make([]types.Point, len(tokens))
	for i, tok := range tokens {
		lat, lng, ok := strings.Cut(tok, ",")
		if !ok {
			return nil, fmt.Errorf("malformed polyline token %q", tok)
		}
		latF, err := strconv.ParseFloat(lat, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed latitude %q: %w", lat, err)
		}
		lngF, err := strconv.ParseFloat(lng, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed longitude %q: %w", lng, err)
		}
		points[i] = types.Point{Lat: latF, Lng: lngF}
	}
	return points, nil
}
