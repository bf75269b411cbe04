// Package geo ranks riders by great-circle distance.
package geo

import (
	"math"
	"sort"

	"github.com/polkiloo/agristar/internal/domain/model"
)

// EarthRadiusKm is the mean Earth radius used for haversine distances.
const EarthRadiusKm = 6371.0

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Valid reports whether the point lies within latitude/longitude bounds.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Distance returns the haversine distance between a and b in kilometers.
func Distance(a, b Point) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// Nearby returns the dispatchable riders within radiusKm of origin,
// inclusive, nearest first. Equal distances are ordered by rider id.
func Nearby(origin Point, radiusKm float64, riders []model.RiderProfile) []model.NearbyRider {
	result := make([]model.NearbyRider, 0, len(riders))
	for _, r := range riders {
		if !r.Dispatchable() || r.Latitude == nil || r.Longitude == nil {
			continue
		}
		d := Distance(origin, Point{Lat: *r.Latitude, Lon: *r.Longitude})
		if d <= radiusKm {
			result = append(result, model.NearbyRider{Rider: r, DistanceKm: d})
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].DistanceKm != result[j].DistanceKm {
			return result[i].DistanceKm < result[j].DistanceKm
		}
		return result[i].Rider.UserID < result[j].Rider.UserID
	})
	return result
}

// Round2 rounds a distance to two decimals for display.
func Round2(km float64) float64 {
	return math.Round(km*100) / 100
}
