package store

import (
	"context"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/wnusair/miami-MTI/pkg/logging"
	"github.com/wnusair/miami-MTI/pkg/models"
)

func newMockReadingStore(t *testing.T) (*ReadingStore, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	logger := logging.NewLogger()
	logger.SetOutput(io.Discard)
	return NewReadingStore(db, logger), mock, func() { db.Close() }
}

func readingRows(readings ...models.Reading) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "timestamp", "sensor_name", "value", "unit", "status"})
	for _, r := range readings {
		rows.AddRow(r.ID, r.Timestamp, r.SensorName, r.Value, r.Unit, r.Status)
	}
	return rows
}

func TestQueryReversesToChartOrder(t *testing.T) {
	s, mock, done := newMockReadingStore(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, timestamp, sensor_name, value, unit, status FROM sensor_data WHERE timestamp >= $1 ORDER BY timestamp DESC LIMIT 100")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(readingRows(
			models.Reading{ID: 2, Timestamp: now, SensorName: "Motor_Temp", Value: 73, Unit: "C", Status: "OK"},
			models.Reading{ID: 1, Timestamp: now.Add(-time.Minute), SensorName: "Motor_Temp", Value: 72, Unit: "C", Status: "OK"},
		))

	readings, err := s.Query(context.Background(), "", 1, 100)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("got %d readings, want 2", len(readings))
	}
	if readings[0].ID != 1 || readings[1].ID != 2 {
		t.Fatalf("readings not in oldest-first order: %+v", readings)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestQueryWithSensorFilter(t *testing.T) {
	s, mock, done := newMockReadingStore(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("AND sensor_name = $2 ORDER BY timestamp DESC LIMIT 50")).
		WithArgs(sqlmock.AnyArg(), "Battery_Voltage").
		WillReturnRows(readingRows())

	if _, err := s.Query(context.Background(), "Battery_Voltage", 2, 50); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestLatestOnePerSensor(t *testing.T) {
	s, mock, done := newMockReadingStore(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT DISTINCT ON \\(sensor_name\\)").
		WillReturnRows(readingRows(
			models.Reading{ID: 5, Timestamp: now, SensorName: "Battery_Voltage", Value: 12.4, Unit: "V", Status: "OK"},
			models.Reading{ID: 7, Timestamp: now, SensorName: "Motor_Temp", Value: 72.5, Unit: "C", Status: "OK"},
		))

	readings, err := s.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("got %d readings, want 2", len(readings))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestStats(t *testing.T) {
	s, mock, done := newMockReadingStore(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*), COUNT(DISTINCT sensor_name), COALESCE(AVG(value), 0)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "sensors", "avg"}).AddRow(12, 3, 45.6789))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("OK", 10).
			AddRow("WARNING", 2))

	stats, err := s.Stats(context.Background(), 1)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalReadings != 12 || stats.SensorCount != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.AvgValue != 45.68 {
		t.Fatalf("AvgValue = %v, want rounded 45.68", stats.AvgValue)
	}
	if stats.StatusSummary["OK"] != 10 || stats.StatusSummary["WARNING"] != 2 {
		t.Fatalf("unexpected status summary: %+v", stats.StatusSummary)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestStatsEmptyWindow(t *testing.T) {
	s, mock, done := newMockReadingStore(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*), COUNT(DISTINCT sensor_name), COALESCE(AVG(value), 0)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "sensors", "avg"}).AddRow(0, 0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}))

	stats, err := s.Stats(context.Background(), 1)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalReadings != 0 || stats.SensorCount != 0 || stats.AvgValue != 0 {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
	if len(stats.StatusSummary) != 0 {
		t.Fatalf("expected empty summary, got %+v", stats.StatusSummary)
	}
}

func TestInsertBatchCommits(t *testing.T) {
	s, mock, done := newMockReadingStore(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sensor_data")).
		WithArgs(now, "Motor_Temp", 72.5, "C", "OK").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(41))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sensor_data")).
		WithArgs(now, "System_Load", 55.0, "%", "OK").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectCommit()

	stored, err := s.InsertBatch(context.Background(), []models.Reading{
		{Timestamp: now, SensorName: "Motor_Temp", Value: 72.5, Unit: "C", Status: "OK"},
		{Timestamp: now, SensorName: "System_Load", Value: 55.0, Unit: "%", Status: "OK"},
	})
	if err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}
	if len(stored) != 2 || stored[0].ID != 41 || stored[1].ID != 42 {
		t.Fatalf("unexpected stored readings: %+v", stored)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestInsertBatchRollsBackWholesale(t *testing.T) {
	s, mock, done := newMockReadingStore(t)
	defer done()

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sensor_data")).
		WithArgs(now, "Motor_Temp", 72.5, "C", "OK").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(41))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sensor_data")).
		WithArgs(now, "System_Load", 55.0, "%", "OK").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := s.InsertBatch(context.Background(), []models.Reading{
		{Timestamp: now, SensorName: "Motor_Temp", Value: 72.5, Unit: "C", Status: "OK"},
		{Timestamp: now, SensorName: "System_Load", Value: 55.0, Unit: "%", Status: "OK"},
	})
	if err == nil {
		t.Fatal("expected error from failed batch")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestInsertBatchEmptyIsNoop(t *testing.T) {
	s, mock, done := newMockReadingStore(t)
	defer done()

	stored, err := s.InsertBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("InsertBatch(nil): %v", err)
	}
	if stored != nil {
		t.Fatalf("expected nil result, got %+v", stored)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRangeBounds(t *testing.T) {
	s, mock, done := newMockReadingStore(t)
	defer done()

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE timestamp >= $1 AND timestamp <= $2 ORDER BY timestamp DESC")).
		WithArgs(start, end).
		WillReturnRows(readingRows())

	if _, err := s.Range(context.Background(), start, end); err != nil {
		t.Fatalf("Range: %v", err)
	}

	// Open-ended range has no WHERE clause at all
	mock.ExpectQuery(regexp.QuoteMeta("FROM sensor_data ORDER BY timestamp DESC")).
		WillReturnRows(readingRows())

	if _, err := s.Range(context.Background(), time.Time{}, time.Time{}); err != nil {
		t.Fatalf("Range open: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
