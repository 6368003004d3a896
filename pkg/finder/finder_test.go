package finder

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kass/go-airport-index/pkg/models"
)

// testAirports is a small fixture of real airports with distinct coordinates.
func testAirports() []models.Airport {
	return []models.Airport{
		{Name: "John F Kennedy Intl", Abbr: "JFK", Lat: 40.64, Long: -73.78, ID: 0},
		{Name: "Los Angeles Intl", Abbr: "LAX", Lat: 33.94, Long: -118.41, ID: 1},
		{Name: "Heathrow", Abbr: "LHR", Lat: 51.47, Long: -0.45, ID: 2},
		{Name: "Charles de Gaulle", Abbr: "CDG", Lat: 49.01, Long: 2.55, ID: 3},
		{Name: "Narita Intl", Abbr: "NRT", Lat: 35.76, Long: 140.39, ID: 4},
		{Name: "Sydney Kingsford Smith", Abbr: "SYD", Lat: -33.95, Long: 151.18, ID: 5},
	}
}

// randomAirports generates a deterministic random dataset for the
// equivalence and benchmark tests.
func randomAirports(n int, seed int64) []models.Airport {
	r := rand.New(rand.NewSource(seed))
	records := make([]models.Airport, n)
	for i := range records {
		records[i] = models.Airport{
			Name: fmt.Sprintf("Airport %d", i),
			Abbr: fmt.Sprintf("A%04d", i),
			Lat:  r.Float64()*180 - 90,
			Long: r.Float64()*360 - 180,
			ID:   uint64(i),
		}
	}
	return records
}

// allFinders builds every strategy over the same records.
func allFinders(t *testing.T, records []models.Airport) map[string]AirportFinder {
	t.Helper()

	tree, err := NewRTree(records)
	require.NoError(t, err)
	hash, err := NewHash(records)
	require.NoError(t, err)
	brute, err := NewBruteForce(records)
	require.NoError(t, err)

	return map[string]AirportFinder{
		"rtree": tree,
		"hash":  hash,
		"brute": brute,
	}
}

func TestProjectDeterminism(t *testing.T) {
	coords := []struct{ lat, long float64 }{
		{0, 0},
		{40.64, -73.78},
		{-33.95, 151.18},
		{90, 0},
		{-90, 180},
	}

	for _, c := range coords {
		first := Project(c.lat, c.long)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, Project(c.lat, c.long))
		}
	}
}

func TestProjectKnownValues(t *testing.T) {
	// The metric uses sin(lat) where the spherical transform would use
	// cos(lat); these pins guard against anyone "fixing" the formula.
	p := Project(0, 0)
	assert.InDelta(t, 0, p[0], 1e-12)
	assert.InDelta(t, 0, p[1], 1e-12)
	assert.InDelta(t, 1, p[2], 1e-12)

	p = Project(90, 0)
	assert.InDelta(t, 1, p[0], 1e-12)
	assert.InDelta(t, 0, p[1], 1e-12)
	assert.InDelta(t, 0, p[2], 1e-12)

	p = Project(90, 90)
	assert.InDelta(t, 0, p[0], 1e-12)
	assert.InDelta(t, 1, p[1], 1e-12)
	assert.InDelta(t, 0, p[2], 1e-12)
}

func TestExactRoundTrip(t *testing.T) {
	records := testAirports()

	for name, f := range allFinders(t, records) {
		for i, airport := range records {
			got, err := f.ClosestInd(airport.Lat, airport.Long)
			require.NoError(t, err, "%s: query for %s", name, airport.Abbr)
			assert.Equal(t, i, got, "%s: query for %s", name, airport.Abbr)
		}
	}
}

func TestRepeatedQueriesAreStable(t *testing.T) {
	records := testAirports()

	for name, f := range allFinders(t, records) {
		first, err := f.ClosestInd(records[2].Lat, records[2].Long)
		require.NoError(t, err)
		for i := 0; i < 10; i++ {
			got, err := f.ClosestInd(records[2].Lat, records[2].Long)
			require.NoError(t, err)
			assert.Equal(t, first, got, "%s: repeated query diverged", name)
		}
	}
}

func TestNearestNotExact(t *testing.T) {
	records := testAirports()

	tree, err := NewRTree(records)
	require.NoError(t, err)
	brute, err := NewBruteForce(records)
	require.NoError(t, err)

	// Downtown LA: near LAX but not any stored coordinate.
	got, err := tree.ClosestInd(34.05, -118.24)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	got, err = brute.ClosestInd(34.05, -118.24)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	// Same query must fail on the exact-hash finder.
	hash, err := NewHash(records)
	require.NoError(t, err)
	_, err = hash.ClosestInd(34.05, -118.24)
	assert.ErrorIs(t, err, ErrNoExactMatch)
}

func TestTreeMatchesBruteForce(t *testing.T) {
	records := randomAirports(2000, 1)

	tree, err := NewRTree(records)
	require.NoError(t, err)
	brute, err := NewBruteForce(records)
	require.NoError(t, err)

	r := rand.New(rand.NewSource(2))
	for i := 0; i < 500; i++ {
		lat := r.Float64()*180 - 90
		long := r.Float64()*360 - 180

		want, err := brute.ClosestInd(lat, long)
		require.NoError(t, err)
		got, err := tree.ClosestInd(lat, long)
		require.NoError(t, err)

		assert.Equal(t, want, got, "query (%v, %v)", lat, long)
	}
}

func TestSingleAirport(t *testing.T) {
	records := testAirports()[:1]

	for name, f := range allFinders(t, records) {
		if name == "hash" {
			// Only the exact coordinate resolves on the hash finder.
			got, err := f.ClosestInd(records[0].Lat, records[0].Long)
			require.NoError(t, err)
			assert.Equal(t, 0, got)
			continue
		}

		for _, q := range []struct{ lat, long float64 }{
			{records[0].Lat, records[0].Long},
			{0, 0},
			{-89.9, 179.9},
		} {
			got, err := f.ClosestInd(q.lat, q.long)
			require.NoError(t, err, "%s: query (%v, %v)", name, q.lat, q.long)
			assert.Equal(t, 0, got, "%s: query (%v, %v)", name, q.lat, q.long)
		}
	}
}

func TestEmptyDataset(t *testing.T) {
	_, err := NewRTree(nil)
	assert.ErrorIs(t, err, ErrEmptyDataset)

	_, err = NewHash(nil)
	assert.ErrorIs(t, err, ErrEmptyDataset)

	_, err = NewBruteForce(nil)
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestBruteForceTieBreak(t *testing.T) {
	// Two records at the same coordinates: the earliest position must win.
	records := []models.Airport{
		{Name: "First", Abbr: "FST", Lat: 10, Long: 20, ID: 7},
		{Name: "Second", Abbr: "SND", Lat: 10, Long: 20, ID: 8},
		{Name: "Elsewhere", Abbr: "ELS", Lat: -40, Long: 100, ID: 9},
	}

	brute, err := NewBruteForce(records)
	require.NoError(t, err)

	got, err := brute.ClosestInd(10, 20)
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	got, err = brute.ClosestInd(11, 21)
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}

func TestHashCollision(t *testing.T) {
	records := []models.Airport{
		{Name: "First", Abbr: "FST", Lat: 10, Long: 20, ID: 7},
		{Name: "Second", Abbr: "SND", Lat: 10, Long: 20, ID: 8},
	}

	_, err := NewHash(records)
	assert.ErrorIs(t, err, ErrCoordCollision)
}

func TestHashDistinguishesSignedZero(t *testing.T) {
	// 0 and -0 compare equal as floats but have distinct bit patterns, so
	// the bit-key treats them as different coordinates.
	records := []models.Airport{
		{Name: "Zero", Abbr: "ZRO", Lat: 0, Long: 0, ID: 0},
	}

	hash, err := NewHash(records)
	require.NoError(t, err)

	got, err := hash.ClosestInd(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	_, err = hash.ClosestInd(negZero(), 0)
	assert.ErrorIs(t, err, ErrNoExactMatch)
}

func negZero() float64 {
	z := 0.0
	return -z
}

func TestFinderSizes(t *testing.T) {
	records := testAirports()

	tree, err := NewRTree(records)
	require.NoError(t, err)
	hash, err := NewHash(records)
	require.NoError(t, err)
	brute, err := NewBruteForce(records)
	require.NoError(t, err)

	assert.Equal(t, len(records), tree.Size())
	assert.Equal(t, len(records), hash.Size())
	assert.Equal(t, len(records), brute.Size())
}

func BenchmarkRTreeBuild(b *testing.B) {
	records := randomAirports(10000, 3)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = NewRTree(records)
	}
}

func BenchmarkRTreeClosestInd(b *testing.B) {
	records := randomAirports(10000, 3)
	tree, err := NewRTree(records)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		lat := rand.Float64()*180 - 90
		long := rand.Float64()*360 - 180
		_, _ = tree.ClosestInd(lat, long)
	}
}

func BenchmarkBruteForceClosestInd(b *testing.B) {
	records := randomAirports(10000, 3)
	brute, err := NewBruteForce(records)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		lat := rand.Float64()*180 - 90
		long := rand.Float64()*360 - 180
		_, _ = brute.ClosestInd(lat, long)
	}
}

func BenchmarkHashClosestInd(b *testing.B) {
	records := randomAirports(10000, 3)
	hash, err := NewHash(records)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		a := records[i%len(records)]
		_, _ = hash.ClosestInd(a.Lat, a.Long)
	}
}
