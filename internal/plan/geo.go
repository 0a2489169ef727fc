package plan

import "math"

// Haversine returns the great-circle distance in meters between two
// coordinates.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}

// SyntheticMatrix builds a straight-line travel matrix from place
// coordinates at the given speed. Used when the caller supplies no
// provider matrix; real deployments pass one in.
func SyntheticMatrix(places []*Place, speedKph float64) Matrix {
	if speedKph <= 0 {
		speedKph = 5 // walking pace
	}
	n := len(places)
	m := make(Matrix, n)
	for i := range m {
		m[i] = make([]Leg, n)
		for j := range m[i] {
			dist := Haversine(places[i].Lat, places[i].Lng, places[j].Lat, places[j].Lng)
			m[i][j] = Leg{
				Status:      StatusOK,
				DurationMin: dist / (speedKph * 1000 / 60),
				DistanceM:   dist,
			}
		}
	}
	return m
}
