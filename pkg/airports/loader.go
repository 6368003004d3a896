// Package airports loads the fixed airport reference dataset consumed by the
// finder strategies. The dataset is trusted: any row that fails to parse is
// treated as corrupt reference data and aborts the whole load.
package airports

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/kass/go-airport-index/pkg/models"
)

// fieldsPerRecord is the exact shape of a data row:
// name, abbreviation, latitude, longitude, id.
const fieldsPerRecord = 5

// ErrBadRow indicates a row that could not be tokenized or decoded into the
// expected (text, text, real, real, unsigned integer) shape.
var ErrBadRow = errors.New("malformed airport row")

// Load reads the airport reference file at path and returns the records in
// file order. The first row is a header and is skipped. Any I/O, tokenize or
// decode failure returns an error; there is no skip-on-error behavior.
func Load(path string) ([]models.Airport, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open airport location file: %w", err)
	}
	defer file.Close()

	return Read(file)
}

// Read decodes airport records from r. Split out of Load so tests and the
// snapshot tooling can feed arbitrary readers.
func Read(r io.Reader) ([]models.Airport, error) {
	csvReader := csv.NewReader(r)
	csvReader.FieldsPerRecord = fieldsPerRecord

	// Header row carries column names, not data.
	if _, err := csvReader.Read(); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: missing header row", ErrBadRow)
		}
		return nil, fmt.Errorf("%w: header: %v", ErrBadRow, err)
	}

	var airports []models.Airport
	for row := 2; ; row++ {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrBadRow, row, err)
		}

		airport, err := decodeRecord(record)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrBadRow, row, err)
		}
		airports = append(airports, airport)
	}

	return airports, nil
}

func decodeRecord(record []string) (models.Airport, error) {
	lat, err := strconv.ParseFloat(record[2], 64)
	if err != nil {
		return models.Airport{}, fmt.Errorf("invalid latitude %q: %v", record[2], err)
	}

	long, err := strconv.ParseFloat(record[3], 64)
	if err != nil {
		return models.Airport{}, fmt.Errorf("invalid longitude %q: %v", record[3], err)
	}

	id, err := strconv.ParseUint(record[4], 10, 64)
	if err != nil {
		return models.Airport{}, fmt.Errorf("invalid id %q: %v", record[4], err)
	}

	return models.Airport{
		Name: record[0],
		Abbr: record[1],
		Lat:  lat,
		Long: long,
		ID:   id,
	}, nil
}
