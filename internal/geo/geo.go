package geo

import (
	"math"
	"sort"
	"strings"

	"karenta/internal/models"
)

const earthRadiusKm = 6371.0

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64
	Lng float64
}

// NearbyPoint pairs a catalog entry with its distance from the query origin.
type NearbyPoint struct {
	models.PickupPoint
	DistanceKm float64 `json:"distance_km"`
}

// HaversineKm returns the great-circle distance between two coordinates.
func HaversineKm(a, b Coordinate) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// ClampRadius normalizes a requested radius into the allowed range, using
// the default when the caller passes zero.
func ClampRadius(km float64) float64 {
	if km == 0 {
		return models.DefaultNearbyRadiusKm
	}
	if km < models.MinNearbyRadiusKm {
		return models.MinNearbyRadiusKm
	}
	if km > models.MaxNearbyRadiusKm {
		return models.MaxNearbyRadiusKm
	}
	return km
}

// Nearest filters the catalog by distance from origin within radiusKm and
// sorts ascending by distance. A nil origin returns the catalog in its
// original order with zero distances. The text query matches name or
// category case-insensitively in both cases.
func Nearest(catalog []models.PickupPoint, origin *Coordinate, radiusKm float64, query string) []NearbyPoint {
	query = strings.ToLower(strings.TrimSpace(query))
	matches := func(p models.PickupPoint) bool {
		if query == "" {
			return true
		}
		return strings.Contains(strings.ToLower(p.Name), query) ||
			strings.Contains(strings.ToLower(p.Category), query)
	}

	out := make([]NearbyPoint, 0, len(catalog))
	if origin == nil {
		for _, p := range catalog {
			if matches(p) {
				out = append(out, NearbyPoint{PickupPoint: p})
			}
		}
		return out
	}

	radiusKm = ClampRadius(radiusKm)
	for _, p := range catalog {
		if !matches(p) {
			continue
		}
		d := HaversineKm(*origin, Coordinate{Lat: p.Lat, Lng: p.Lng})
		if d <= radiusKm {
			out = append(out, NearbyPoint{PickupPoint: p, DistanceKm: d})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out
}
