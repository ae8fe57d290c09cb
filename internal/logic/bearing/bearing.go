// Package bearing answers "where is the target relative to north, as seen
// from the camera" for a pair of geographic coordinates. Callers use it to
// decide when to re-aim the head; it plays no part in enumerating scan
// positions.
package bearing

import (
	"fmt"
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

const (
	// KmPerDegreeLatitude approximates the length of one degree of latitude.
	KmPerDegreeLatitude = 111.32
	// EarthRadiusKm is the mean Earth radius used for distances.
	EarthRadiusKm = 6371.0
)

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", c.Latitude, c.Longitude)
}

// LatLng converts c to an s2 point on the unit sphere.
func (c Coordinate) LatLng() s2.LatLng {
	return s2.LatLngFromDegrees(c.Latitude, c.Longitude)
}

// MoveNorth returns c shifted km kilometres north along its meridian.
func MoveNorth(c Coordinate, km float64) Coordinate {
	return Coordinate{Latitude: c.Latitude + km/KmPerDegreeLatitude, Longitude: c.Longitude}
}

// Bearing is the initial great-circle compass bearing from start to end,
// in degrees within [0, 360).
func Bearing(start, end Coordinate) float64 {
	a, b := start.LatLng(), end.LatLng()
	lat1, lat2 := a.Lat.Radians(), b.Lat.Radians()
	dlon := (b.Lng - a.Lng).Radians()

	x := math.Sin(dlon) * math.Cos(lat2)
	y := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dlon)
	deg := (s1.Angle(math.Atan2(x, y)) * s1.Radian).Degrees()
	return math.Mod(deg+360, 360)
}

// Angle is the unsigned angle, in radians within [0, π], between north and
// the target as seen from the camera. North is the bearing to a point 1 km
// up the camera's meridian.
func Angle(camera, object Coordinate) float64 {
	toNorth := Bearing(camera, MoveNorth(camera, 1))
	toObject := Bearing(camera, object)

	diff := math.Abs(toObject - toNorth)
	diff = math.Min(diff, 360-diff)
	return (s1.Angle(diff) * s1.Degree).Radians()
}

// DistanceKm is the great-circle distance between a and b.
func DistanceKm(a, b Coordinate) float64 {
	return a.LatLng().Distance(b.LatLng()).Radians() * EarthRadiusKm
}

// CompassPoint names the 8-point compass sector containing bearingDeg.
func CompassPoint(bearingDeg float64) string {
	points := [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}
	b := math.Mod(math.Mod(bearingDeg, 360)+360, 360)
	return points[int((b+22.5)/45)%8]
}
