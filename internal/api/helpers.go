package api

import (
	"math"
	"net/http"
	"strconv"

	apperrors "github.com/echomapapp/echomap-server/internal/errors"
)

// queryFloat reads a float query parameter. Absent or unparsable
// values come back as zero, which the services treat as "use the
// default".
func queryFloat(r *http.Request, key string) float64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}

// queryInt reads an int query parameter with the same zero-default
// convention.
func queryInt(r *http.Request, key string) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}

// requireCoord reads a mandatory coordinate query parameter. Unlike
// the tunable knobs there is no sensible default for a center, so
// absence is a client error.
func requireCoord(r *http.Request, key string) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, apperrors.InvalidCoordinates(key + " is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, apperrors.InvalidCoordinates(key + " must be a finite number")
	}
	return v, nil
}
