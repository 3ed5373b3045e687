package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/wnusair/miami-MTI/pkg/models"
)

func TestFilename(t *testing.T) {
	at := time.Date(2026, 8, 26, 15, 30, 45, 0, time.UTC)
	got := Filename(at)
	want := "sensor_data_20260826_153045.xlsx"
	if got != want {
		t.Fatalf("Filename = %q, want %q", got, want)
	}
}

func TestWriteWorkbook(t *testing.T) {
	readings := []models.Reading{
		{
			Timestamp:  time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC),
			SensorName: "Motor_Temp",
			Value:      72.5,
			Unit:       "C",
			Status:     models.StatusOK,
		},
		{
			Timestamp:  time.Date(2026, 8, 26, 10, 0, 5, 0, time.UTC),
			SensorName: "Battery_Voltage",
			Value:      13.9,
			Unit:       "V",
			Status:     models.StatusWarning,
		},
	}

	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, readings); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 1 || sheets[0] != "Sensor Data" {
		t.Fatalf("sheets = %v, want single Sensor Data sheet", sheets)
	}

	rows, err := f.GetRows("Sensor Data")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header plus 2", len(rows))
	}

	wantHeader := []string{"Timestamp", "Sensor_ID", "Value", "Unit", "Status"}
	for i, h := range wantHeader {
		if rows[0][i] != h {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], h)
		}
	}

	if rows[1][0] != "2026-08-26 10:00:00" {
		t.Errorf("timestamp cell = %q", rows[1][0])
	}
	if rows[1][1] != "Motor_Temp" || rows[1][2] != "72.5" {
		t.Errorf("unexpected first data row: %v", rows[1])
	}
	if rows[2][4] != models.StatusWarning {
		t.Errorf("status cell = %q, want WARNING", rows[2][4])
	}
}

func TestWriteWorkbookEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, nil); err != nil {
		t.Fatalf("WriteWorkbook(nil): %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Sensor Data")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want header only", len(rows))
	}
}
