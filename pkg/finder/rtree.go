package finder

import (
	"runtime"
	"sync"

	"github.com/dhconnelly/rtreego"

	"github.com/kass/go-airport-index/pkg/models"
)

const (
	// tolerance is the half-side of the degenerate rect each projected
	// point is stored as. It must stay far below any real inter-airport
	// distance so rect distance and point distance rank candidates the
	// same way.
	tolerance   = 1e-9
	minChildren = 25
	maxChildren = 50
	dimensions  = 3
)

// spatialItem pairs a projected airport coordinate with its position in the
// original sequence for R-Tree indexing.
type spatialItem struct {
	index int
	rect  *rtreego.Rect
}

func (si *spatialItem) Bounds() *rtreego.Rect {
	return si.rect
}

// RTreeFinder answers nearest-airport queries with an R-Tree built over the
// projected coordinates of the full airport sequence. This is the intended
// production strategy: O(n log n) construction, O(log n) expected queries.
type RTreeFinder struct {
	tree *rtreego.Rtree
}

// NewRTree builds an RTreeFinder from the airport sequence. The sequence
// order is frozen into the index; queries return positions in it.
func NewRTree(records []models.Airport) (*RTreeFinder, error) {
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}

	// Project records in parallel batches, then insert sequentially.
	items := make([]rtreego.Spatial, len(records))
	numCPU := runtime.NumCPU()
	batchSize := len(records) / numCPU
	if batchSize < 1 {
		batchSize = 1
		numCPU = len(records)
	}

	var wg sync.WaitGroup
	for i := 0; i < numCPU && i*batchSize < len(records); i++ {
		wg.Add(1)
		start := i * batchSize
		end := start + batchSize
		if i == numCPU-1 || end > len(records) {
			end = len(records)
		}

		go func(start, end int) {
			defer wg.Done()
			for j := start; j < end; j++ {
				point := Project(records[j].Lat, records[j].Long)
				rtPoint := rtreego.Point{point[0], point[1], point[2]}
				items[j] = &spatialItem{index: j, rect: rtPoint.ToRect(tolerance)}
			}
		}(start, end)
	}
	wg.Wait()

	tree := rtreego.NewTree(dimensions, minChildren, maxChildren)
	for _, item := range items {
		tree.Insert(item)
	}

	return &RTreeFinder{tree: tree}, nil
}

// ClosestInd returns the sequence position of the airport whose projected
// point is nearest to the query's projected point.
func (f *RTreeFinder) ClosestInd(lat, long float64) (int, error) {
	point := Project(lat, long)
	queryPoint := rtreego.Point{point[0], point[1], point[2]}

	results := f.tree.NearestNeighbors(1, queryPoint)
	if len(results) == 0 || results[0] == nil {
		// Unreachable for a finder built through NewRTree, which rejects
		// empty datasets.
		return 0, ErrEmptyDataset
	}

	return results[0].(*spatialItem).index, nil
}

// Size returns the number of indexed airports.
func (f *RTreeFinder) Size() int {
	return f.tree.Size()
}
