// Package geo provides geographic points and spherical distance math for
// proximity queries over play events.
package geo

import (
	"encoding/json/v2"
	"fmt"
	"math"
)

// EarthRadiusM is the standard mean Earth radius in meters used for
// spherical distances.
const EarthRadiusM = 6371000.0

// Point is a geographic coordinate pair.
//
// JSON form is a GeoJSON Point ({"type":"Point","coordinates":[lng,lat]})
// so stored events and API payloads stay wire-compatible with clients that
// read coordinates[0]=lng, coordinates[1]=lat.
type Point struct {
	Lat float64
	Lng float64
}

// geoJSONPoint is the wire representation of Point.
type geoJSONPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"` // [lng, lat]
}

// MarshalJSON encodes the point as a GeoJSON Point.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(geoJSONPoint{
		Type:        "Point",
		Coordinates: [2]float64{p.Lng, p.Lat},
	})
}

// UnmarshalJSON decodes a GeoJSON Point.
func (p *Point) UnmarshalJSON(data []byte) error {
	var g geoJSONPoint
	if err := json.Unmarshal(data, &g); err != nil {
		return err
	}
	if g.Type != "" && g.Type != "Point" {
		return fmt.Errorf("unsupported geometry type %q", g.Type)
	}
	p.Lng = g.Coordinates[0]
	p.Lat = g.Coordinates[1]
	return nil
}

// Valid reports whether both coordinates are finite numbers.
// Range checks (lat in [-90,90], lng in [-180,180]) are deliberately not
// performed; out-of-range values are accepted as-is.
func (p Point) Valid() bool {
	return isFinite(p.Lat) && isFinite(p.Lng)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// DistanceM returns the great-circle distance between two points in meters,
// computed with the haversine formula on a sphere of radius EarthRadiusM.
func DistanceM(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng

	return 2 * EarthRadiusM * math.Asin(math.Min(1, math.Sqrt(h)))
}

// DistanceKm returns the great-circle distance between two points in kilometers.
func DistanceKm(a, b Point) float64 {
	return DistanceM(a, b) / 1000
}
