// File: /utils/polyline.go
package utils

import (
	"math"

	"github.com/twpayne/go-polyline"
)

const earthRadiusMeters = 6371000.0

// LatLng is one decoded polyline point.
type LatLng struct {
	Latitude  float64
	Longitude float64
}

// DecodePolyline decodes an encoded polyline string into points.
func DecodePolyline(encoded string) ([]LatLng, error) {
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, err
	}

	points := make([]LatLng, 0, len(coords))
	for _, c := range coords {
		points = append(points, LatLng{Latitude: c[0], Longitude: c[1]})
	}
	return points, nil
}

// PolylineLength returns the summed haversine distance over the points, in
// meters.
func PolylineLength(points []LatLng) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += haversine(points[i-1], points[i])
	}
	return total
}

// BoundingCenterAndRadius returns the center of the points' bounding box and
// the distance from that center to the farthest corner. ok is false when
// there are no points to bound.
func BoundingCenterAndRadius(points []LatLng) (center LatLng, radius float64, ok bool) {
	if len(points) == 0 {
		return LatLng{}, 0, false
	}

	minLat, maxLat := points[0].Latitude, points[0].Latitude
	minLng, maxLng := points[0].Longitude, points[0].Longitude
	for _, p := range points[1:] {
		minLat = math.Min(minLat, p.Latitude)
		maxLat = math.Max(maxLat, p.Latitude)
		minLng = math.Min(minLng, p.Longitude)
		maxLng = math.Max(maxLng, p.Longitude)
	}

	center = LatLng{
		Latitude:  (minLat + maxLat) / 2,
		Longitude: (minLng + maxLng) / 2,
	}
	radius = haversine(center, LatLng{Latitude: maxLat, Longitude: maxLng})
	return center, radius, true
}

func haversine(a, b LatLng) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
