package models

import "math"

const earthRadiusKm = 6371.0

// Location is a geographic point; depth is in km, positive down.
type Location struct {
	Latitude  float64
	Longitude float64
	Depth     float64
}

// DistanceKm returns the great-circle surface distance between two locations.
func DistanceKm(a, b Location) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// TraceLength sums the segment lengths of an ordered trace.
func TraceLength(trace []Location) float64 {
	var total float64
	for i := 1; i < len(trace); i++ {
		total += DistanceKm(trace[i-1], trace[i])
	}
	return total
}

// PolygonArea approximates the area in km² of a simple polygon by projecting
// it onto a plane tangent at the mean latitude.
func PolygonArea(poly []Location) float64 {
	if len(poly) < 3 {
		return 0
	}

	var meanLat float64
	for _, p := range poly {
		meanLat += p.Latitude
	}
	meanLat /= float64(len(poly))

	kmPerDeg := earthRadiusKm * math.Pi / 180
	cosLat := math.Cos(meanLat * math.Pi / 180)

	var sum float64
	for i := range poly {
		j := (i + 1) % len(poly)
		xi := poly[i].Longitude * kmPerDeg * cosLat
		yi := poly[i].Latitude * kmPerDeg
		xj := poly[j].Longitude * kmPerDeg * cosLat
		yj := poly[j].Latitude * kmPerDeg
		sum += xi*yj - xj*yi
	}
	return math.Abs(sum) / 2
}
