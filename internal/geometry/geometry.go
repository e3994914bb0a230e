// Package geometry provides the plane-geometry helpers the simulation is built on:
// distances, uniform sampling inside a circle, and walk-time computation.
// All coordinates are in game units.
package geometry

import (
	"math"
	"math/rand"
	"time"
)

// Point is a position in game units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between two points.
func Distance(x1, y1, x2, y2 float64) float64 {
	dx := x1 - x2
	dy := y1 - y2
	return math.Sqrt(dx*dx + dy*dy)
}

// Dist returns the Euclidean distance between two Points.
func Dist(a, b Point) float64 {
	return Distance(a.X, a.Y, b.X, b.Y)
}

// RandomPointWithinRadius returns a point uniformly distributed inside the
// circle of the given radius around (targetX, targetY). Polar sampling: the
// angle is uniform in [0, 2π) and the radius is √U·R, which makes the density
// uniform over the disc area rather than clustered at the center.
func RandomPointWithinRadius(rng *rand.Rand, targetX, targetY, radius float64) Point {
	angle := rng.Float64() * 2 * math.Pi
	r := math.Sqrt(rng.Float64()) * radius
	return Point{
		X: targetX + r*math.Cos(angle),
		Y: targetY + r*math.Sin(angle),
	}
}

// TravelTime returns how long a walk over the given distance takes at
// speed units per second.
func TravelTime(dist, speedPerSecond float64) time.Duration {
	if speedPerSecond <= 0 {
		return 0
	}
	return time.Duration(dist / speedPerSecond * float64(time.Second))
}
