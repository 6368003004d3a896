// Package finder answers nearest-airport queries over a fixed airport
// sequence. Three interchangeable strategies implement the same contract:
// an R-Tree index for general nearest-neighbor lookups, an exact-hash map
// for bit-identical round trips, and a brute-force scan that serves as the
// ground-truth oracle for the other two.
//
// All strategies measure distance in the same projected coordinate space,
// so their answers are directly comparable. Every finder is built once from
// the full sequence and is immutable afterwards; concurrent queries against
// a built finder are safe.
package finder

import (
	"errors"
	"math"
)

// AirportFinder resolves a query coordinate to the 0-based position of the
// nearest airport in the sequence the finder was built from. The position is
// not the airport's source-data ID.
type AirportFinder interface {
	ClosestInd(lat, long float64) (int, error)
}

var (
	// ErrEmptyDataset is returned when a finder is built over zero records.
	ErrEmptyDataset = errors.New("cannot build finder over empty airport dataset")

	// ErrCoordCollision is returned by NewHash when two distinct records
	// share the exact same coordinate bit patterns.
	ErrCoordCollision = errors.New("two airports share the same exact coordinates, use the r-tree finder instead")

	// ErrNoExactMatch is returned by the hash finder when the query
	// coordinate is not bit-identical to any stored one.
	ErrNoExactMatch = errors.New("no airport at the exact query coordinates, use the r-tree finder instead")
)

// Project maps a latitude/longitude pair in degrees to the 3-component
// vector all finders use as their distance surrogate.
//
// Note the sin(la) factor: this is not the standard spherical-to-Cartesian
// transform and does not yield great-circle distance. It is kept as the
// reference metric because every strategy must rank candidates identically,
// and "nearest" is defined relative to this projection.
func Project(lat, long float64) [3]float64 {
	la := lat * math.Pi / 180.0
	lo := long * math.Pi / 180.0

	return [3]float64{
		math.Cos(lo) * math.Sin(la),
		math.Sin(lo) * math.Sin(la),
		math.Cos(la),
	}
}

// sqDist returns the squared Euclidean distance between two projected points.
func sqDist(a, b [3]float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return dx*dx + dy*dy + dz*dz
}
