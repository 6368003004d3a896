// Package postgis mirrors the airport reference dataset into a PostGIS table
// so the in-memory finder strategies can be compared against a server-side
// spatial index. It is a comparison backend, not one of the finder
// strategies: PostGIS ranks by geometric distance on raw coordinates, not by
// the projected metric the finders share.
package postgis

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/kass/go-airport-index/pkg/models"
)

type AirportCatalog struct {
	db *sql.DB
}

// NewAirportCatalog opens a PostGIS connection.
func NewAirportCatalog(host, user, password, dbname string, port int) (*AirportCatalog, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &AirportCatalog{db: db}, nil
}

// InitSchema creates the airports table.
func (c *AirportCatalog) InitSchema() error {
	queries := []string{
		`CREATE EXTENSION IF NOT EXISTS postgis;`,

		`DROP TABLE IF EXISTS airports;`,

		// pos is the record's position in the loaded sequence; source_id is
		// the id column carried by the reference file.
		`CREATE TABLE airports (
			pos INTEGER PRIMARY KEY,
			source_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			abbr TEXT NOT NULL,
			location GEOMETRY(POINT, 4326)
		);`,
	}

	for _, query := range queries {
		if _, err := c.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}

	return nil
}

// CreateSpatialIndex creates a GIST index on the geometry column.
func (c *AirportCatalog) CreateSpatialIndex() error {
	if _, err := c.db.Exec(`CREATE INDEX idx_airports_location ON airports USING GIST(location);`); err != nil {
		return fmt.Errorf("failed to create spatial index: %w", err)
	}

	// Analyze table for better query planning
	if _, err := c.db.Exec("ANALYZE airports;"); err != nil {
		return fmt.Errorf("failed to analyze table: %w", err)
	}

	return nil
}

// BulkInsert loads the airport sequence in batches, preserving each record's
// sequence position.
func (c *AirportCatalog) BulkInsert(records []models.Airport) error {
	const batchSize = 10000

	stmt, err := c.db.Prepare(`
		INSERT INTO airports (pos, source_id, name, abbr, location)
		VALUES ($1, $2, $3, $4, ST_SetSRID(ST_MakePoint($5, $6), 4326))
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txStmt := tx.Stmt(stmt)

	for i, airport := range records {
		_, err := txStmt.Exec(i, airport.ID, airport.Name, airport.Abbr, airport.Long, airport.Lat)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert airport %d: %w", i, err)
		}

		if (i+1)%batchSize == 0 {
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("failed to commit batch: %w", err)
			}

			tx, err = c.db.Begin()
			if err != nil {
				return fmt.Errorf("failed to begin new transaction: %w", err)
			}
			txStmt = tx.Stmt(stmt)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit final batch: %w", err)
	}

	return nil
}

// ClosestInd returns the sequence position of the airport nearest to the
// query coordinates according to PostGIS's KNN distance operator.
func (c *AirportCatalog) ClosestInd(lat, long float64) (int, error) {
	query := `
		SELECT pos
		FROM airports
		ORDER BY location <-> ST_SetSRID(ST_MakePoint($1, $2), 4326)
		LIMIT 1
	`

	var pos int
	if err := c.db.QueryRow(query, long, lat).Scan(&pos); err != nil {
		return 0, fmt.Errorf("failed to query nearest airport: %w", err)
	}

	return pos, nil
}

// Count returns the number of airports in the table.
func (c *AirportCatalog) Count() (int64, error) {
	var count int64
	err := c.db.QueryRow("SELECT COUNT(*) FROM airports").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count airports: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (c *AirportCatalog) Close() error {
	return c.db.Close()
}
