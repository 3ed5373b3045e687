package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/wnusair/miami-MTI/pkg/logging"
	"github.com/wnusair/miami-MTI/pkg/models"
)

const readingColumns = "id, timestamp, sensor_name, value, unit, status"

// ReadingStore persists sensor readings. Readings are append-only: they are
// never updated, and deletion is an external retention concern.
type ReadingStore struct {
	db     *sql.DB
	logger logging.Logger
}

// NewReadingStore creates a reading store over an open connection.
func NewReadingStore(db *sql.DB, logger logging.Logger) *ReadingStore {
	return &ReadingStore{db: db, logger: logger}
}

// InsertBatch appends readings in a single transaction. Either every reading
// is committed or none is; the returned slice carries the stored rows with
// their assigned IDs.
func (s *ReadingStore) InsertBatch(ctx context.Context, readings []models.Reading) ([]models.Reading, error) {
	if len(readings) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert transaction: %w", err)
	}
	defer tx.Rollback()

	stored := make([]models.Reading, 0, len(readings))
	for _, r := range readings {
		row := tx.QueryRowContext(ctx, `
			INSERT INTO sensor_data (timestamp, sensor_name, value, unit, status)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, r.Timestamp, r.SensorName, r.Value, r.Unit, r.Status)
		if err := row.Scan(&r.ID); err != nil {
			return nil, fmt.Errorf("insert reading for %s: %w", r.SensorName, err)
		}
		stored = append(stored, r)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit readings: %w", err)
	}
	return stored, nil
}

// Insert appends a single reading.
func (s *ReadingStore) Insert(ctx context.Context, reading models.Reading) (models.Reading, error) {
	stored, err := s.InsertBatch(ctx, []models.Reading{reading})
	if err != nil {
		return models.Reading{}, err
	}
	return stored[0], nil
}

// Query returns readings newer than now-hours, optionally filtered by
// sensor, capped at limit newest entries and ordered oldest-first for
// charting.
func (s *ReadingStore) Query(ctx context.Context, sensorName string, hours, limit int) ([]models.Reading, error) {
	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	query := "SELECT " + readingColumns + " FROM sensor_data WHERE timestamp >= $1"
	args := []interface{}{since}
	if sensorName != "" {
		query += " AND sensor_name = $2"
		args = append(args, sensorName)
	}
	query += fmt.Sprintf(" ORDER BY timestamp DESC LIMIT %d", limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	readings, err := scanReadings(rows)
	if err != nil {
		return nil, err
	}

	// Newest-first from the index, oldest-first to the caller
	for i, j := 0, len(readings)-1; i < j; i, j = i+1, j-1 {
		readings[i], readings[j] = readings[j], readings[i]
	}
	return readings, nil
}

// Latest returns the most recent reading per distinct sensor.
func (s *ReadingStore) Latest(ctx context.Context) ([]models.Reading, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT ON (sensor_name) `+readingColumns+`
		FROM sensor_data
		ORDER BY sensor_name, timestamp DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query latest readings: %w", err)
	}
	defer rows.Close()

	return scanReadings(rows)
}

// Stats summarizes the window [now-hours, now] for the KPI panel. An empty
// window yields zeros and an empty status map.
func (s *ReadingStore) Stats(ctx context.Context, hours int) (models.SensorStats, error) {
	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	stats := models.SensorStats{StatusSummary: make(map[string]int)}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT sensor_name), COALESCE(AVG(value), 0)
		FROM sensor_data
		WHERE timestamp >= $1
	`, since).Scan(&stats.TotalReadings, &stats.SensorCount, &stats.AvgValue)
	if err != nil {
		return models.SensorStats{}, fmt.Errorf("query reading stats: %w", err)
	}
	stats.AvgValue = math.Round(stats.AvgValue*100) / 100

	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM sensor_data
		WHERE timestamp >= $1
		GROUP BY status
	`, since)
	if err != nil {
		return models.SensorStats{}, fmt.Errorf("query status summary: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return models.SensorStats{}, fmt.Errorf("scan status summary: %w", err)
		}
		stats.StatusSummary[status] = count
	}
	return stats, rows.Err()
}

// Range returns readings between the optional bounds, newest-first, for
// export. Zero times mean an open end.
func (s *ReadingStore) Range(ctx context.Context, start, end time.Time) ([]models.Reading, error) {
	query := "SELECT " + readingColumns + " FROM sensor_data"
	args := []interface{}{}

	clause := " WHERE"
	if !start.IsZero() {
		args = append(args, start)
		query += fmt.Sprintf("%s timestamp >= $%d", clause, len(args))
		clause = " AND"
	}
	if !end.IsZero() {
		args = append(args, end)
		query += fmt.Sprintf("%s timestamp <= $%d", clause, len(args))
	}
	query += " ORDER BY timestamp DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reading range: %w", err)
	}
	defer rows.Close()

	return scanReadings(rows)
}

func scanReadings(rows *sql.Rows) ([]models.Reading, error) {
	var readings []models.Reading
	for rows.Next() {
		var r models.Reading
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.SensorName, &r.Value, &r.Unit, &r.Status); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}
