package finder

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/kass/go-airport-index/pkg/models"
)

// HashFinder resolves queries by exact coordinate identity. It is not a
// nearest-neighbor search: a query succeeds only when its (lat, long) pair
// is bit-identical to a stored record's, which makes it a fast path for
// re-querying coordinates taken verbatim from the dataset. Anything else
// needs the RTreeFinder.
type HashFinder struct {
	buckets map[[16]byte]int
}

// NewHash builds a HashFinder from the airport sequence. It fails if two
// distinct records carry the same exact coordinates, since the strategy has
// no way to distinguish them.
func NewHash(records []models.Airport) (*HashFinder, error) {
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}

	buckets := make(map[[16]byte]int, len(records))
	for i, airport := range records {
		key := coordKey(airport.Lat, airport.Long)
		if prev, ok := buckets[key]; ok {
			return nil, fmt.Errorf("%w: airports %d and %d at (%v, %v)",
				ErrCoordCollision, prev, i, airport.Lat, airport.Long)
		}
		buckets[key] = i
	}

	return &HashFinder{buckets: buckets}, nil
}

// coordKey concatenates the IEEE 754 bit patterns of both coordinates into a
// fixed-width key. Extracting the bits explicitly keeps exact-match
// semantics without reinterpreting memory.
func coordKey(lat, long float64) [16]byte {
	var key [16]byte
	binary.BigEndian.PutUint64(key[:8], math.Float64bits(lat))
	binary.BigEndian.PutUint64(key[8:], math.Float64bits(long))
	return key
}

// ClosestInd returns the sequence position stored for the exact query
// coordinates, or ErrNoExactMatch if the pair was never stored.
func (f *HashFinder) ClosestInd(lat, long float64) (int, error) {
	index, ok := f.buckets[coordKey(lat, long)]
	if !ok {
		return 0, fmt.Errorf("%w: query (%v, %v)", ErrNoExactMatch, lat, long)
	}
	return index, nil
}

// Size returns the number of indexed airports.
func (f *HashFinder) Size() int {
	return len(f.buckets)
}
