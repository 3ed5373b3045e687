// Package export renders stored sensor readings as an XLSX workbook for
// offline analysis. Export is capability gated at the handler layer; this
// package only shapes the file.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/wnusair/miami-MTI/pkg/models"
)

const (
	sheetName       = "Sensor Data"
	timestampLayout = "2006-01-02 15:04:05"
	widthPadding    = 2
)

var headers = []string{"Timestamp", "Sensor_ID", "Value", "Unit", "Status"}

// Filename returns the download name for an export taken at the given time,
// e.g. sensor_data_20260826_153045.xlsx.
func Filename(at time.Time) string {
	return fmt.Sprintf("sensor_data_%s.xlsx", at.Format("20060102_150405"))
}

// WriteWorkbook streams readings as a single-sheet workbook. Rows keep the
// order they were given in; column widths are fitted to the longest cell.
func WriteWorkbook(w io.Writer, readings []models.Reading) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	widths := make([]int, len(headers))
	headerRow := make([]interface{}, len(headers))
	for col, header := range headers {
		widths[col] = len(header)
		headerRow[col] = header
	}
	if err := writeRow(f, 1, headerRow); err != nil {
		return err
	}

	for i, r := range readings {
		cells := []interface{}{
			r.Timestamp.Format(timestampLayout),
			r.SensorName,
			r.Value,
			r.Unit,
			r.Status,
		}
		for col, cell := range cells {
			if n := len(fmt.Sprint(cell)); n > widths[col] {
				widths[col] = n
			}
		}
		if err := writeRow(f, i+2, cells); err != nil {
			return err
		}
	}

	for col, width := range widths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return fmt.Errorf("column name: %w", err)
		}
		if err := f.SetColWidth(sheetName, name, name, float64(width+widthPadding)); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell coordinates: %w", err)
	}
	if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}
