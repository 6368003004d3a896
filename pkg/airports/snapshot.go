package airports

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/kass/go-airport-index/pkg/models"
)

// Snapshot is the serializable form of a loaded airport sequence. Keeping the
// records rather than any built index lets every finder strategy be rebuilt
// from the same snapshot.
type Snapshot struct {
	Airports []models.Airport
	Count    int64
}

// SaveSnapshot writes the loaded record sequence to a binary file.
func SaveSnapshot(filename string, records []models.Airport) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	data := Snapshot{
		Airports: records,
		Count:    int64(len(records)),
	}

	encoder := gob.NewEncoder(file)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	return nil
}

// LoadSnapshot reads a record sequence previously written by SaveSnapshot.
func LoadSnapshot(filename string) ([]models.Airport, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var data Snapshot
	decoder := gob.NewDecoder(file)
	if err := decoder.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	return data.Airports, nil
}
