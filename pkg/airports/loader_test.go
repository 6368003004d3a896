package airports

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kass/go-airport-index/pkg/models"
)

const sampleCSV = `name,abbreviation,latitude,longitude,id
John F Kennedy Intl,JFK,40.64,-73.78,0
Los Angeles Intl,LAX,33.94,-118.41,1
Heathrow,LHR,51.47,-0.45,2
`

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "airports.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeTempCSV(t, sampleCSV)

	records, err := Load(path)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, models.Airport{
		Name: "John F Kennedy Intl",
		Abbr: "JFK",
		Lat:  40.64,
		Long: -73.78,
		ID:   0,
	}, records[0])

	assert.Equal(t, "LAX", records[1].Abbr)
	assert.Equal(t, uint64(2), records[2].ID)
}

func TestLoadRowCountMatchesFile(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("name,abbreviation,latitude,longitude,id\n")
	for i := 0; i < 100; i++ {
		sb.WriteString("Airport,AAA,1.5,-2.5,")
		sb.WriteString(strings.Repeat("1", 1+i%3))
		sb.WriteString("\n")
	}

	records, err := Read(strings.NewReader(sb.String()))
	require.NoError(t, err)
	assert.Len(t, records, 100)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadHeaderOnly(t *testing.T) {
	records, err := Read(strings.NewReader("name,abbreviation,latitude,longitude,id\n"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLoadRejectsWrongFieldCount(t *testing.T) {
	input := "name,abbreviation,latitude,longitude,id\nJFK,40.64,-73.78,0\n"
	_, err := Read(strings.NewReader(input))
	assert.ErrorIs(t, err, ErrBadRow)
}

func TestLoadRejectsBadLatitude(t *testing.T) {
	input := "name,abbreviation,latitude,longitude,id\nJFK Intl,JFK,north,-73.78,0\n"
	_, err := Read(strings.NewReader(input))
	require.ErrorIs(t, err, ErrBadRow)
	assert.Contains(t, err.Error(), "row 2")
}

func TestLoadRejectsBadLongitude(t *testing.T) {
	input := "name,abbreviation,latitude,longitude,id\nJFK Intl,JFK,40.64,west,0\n"
	_, err := Read(strings.NewReader(input))
	assert.ErrorIs(t, err, ErrBadRow)
}

func TestLoadRejectsNegativeID(t *testing.T) {
	input := "name,abbreviation,latitude,longitude,id\nJFK Intl,JFK,40.64,-73.78,-1\n"
	_, err := Read(strings.NewReader(input))
	assert.ErrorIs(t, err, ErrBadRow)
}

func TestLoadRejectsBadRowInMiddle(t *testing.T) {
	input := sampleCSV + "Broken,BRK,oops,0.0,4\n"
	_, err := Read(strings.NewReader(input))
	require.ErrorIs(t, err, ErrBadRow)
	assert.Contains(t, err.Error(), "row 5")
}

func TestLoadEmptyInput(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrBadRow)
}

func TestSnapshotRoundTrip(t *testing.T) {
	records := []models.Airport{
		{Name: "John F Kennedy Intl", Abbr: "JFK", Lat: 40.64, Long: -73.78, ID: 0},
		{Name: "Los Angeles Intl", Abbr: "LAX", Lat: 33.94, Long: -118.41, ID: 1},
	}

	path := filepath.Join(t.TempDir(), "airports.gob")
	require.NoError(t, SaveSnapshot(path, records))

	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, records, loaded)
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "nope.gob"))
	assert.Error(t, err)
}
