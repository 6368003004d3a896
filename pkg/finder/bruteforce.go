package finder

import (
	"github.com/kass/go-airport-index/pkg/models"
)

// BruteForceFinder scans every projected point on each query. O(n) per query
// with no auxiliary structure, which makes it the ground-truth oracle for
// validating the RTreeFinder and the simplest correct choice for small
// datasets.
type BruteForceFinder struct {
	points [][3]float64
}

// NewBruteForce builds a BruteForceFinder from the airport sequence.
func NewBruteForce(records []models.Airport) (*BruteForceFinder, error) {
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}

	points := make([][3]float64, len(records))
	for i, airport := range records {
		points[i] = Project(airport.Lat, airport.Long)
	}

	return &BruteForceFinder{points: points}, nil
}

// ClosestInd returns the sequence position minimizing squared Euclidean
// distance in projected space. The scan runs from position 0 and only a
// strictly smaller distance replaces the current best, so the earliest
// position wins on exact ties.
func (f *BruteForceFinder) ClosestInd(lat, long float64) (int, error) {
	query := Project(lat, long)

	best := 0
	bestDist := sqDist(query, f.points[0])
	for i := 1; i < len(f.points); i++ {
		if d := sqDist(query, f.points[i]); d < bestDist {
			best = i
			bestDist = d
		}
	}

	return best, nil
}

// Size returns the number of indexed airports.
func (f *BruteForceFinder) Size() int {
	return len(f.points)
}
