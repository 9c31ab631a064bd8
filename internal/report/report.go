// Package report renders readings as CSV, XLSX and single-reading PDF
// documents.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"vitalmine-server/internal/models"
)

// Columns is the export column order shared by CSV and XLSX.
var Columns = []string{"ID", "Timestamp", "Name", "Temp", "HR", "RR", "WBC", "Status", "Advice"}

// TimestampLayout formats reading times in exports.
const TimestampLayout = "2006-01-02 15:04:05"

// Filenames used in Content-Disposition headers.
const (
	CSVFilename  = "ward_report.csv"
	XLSXFilename = "ward_report.xlsx"
)

// PDFFilename names the report for one reading.
func PDFFilename(r *models.Reading) string {
	return fmt.Sprintf("Report_%s.pdf", r.ID)
}

func row(r *models.Reading, loc *time.Location) []string {
	return []string{
		r.ID,
		r.RecordedAt.In(loc).Format(TimestampLayout),
		r.DisplayName,
		strconv.FormatFloat(r.Temperature, 'f', -1, 64),
		strconv.Itoa(r.HeartRate),
		strconv.Itoa(r.RespRate),
		strconv.FormatFloat(r.WBCCount, 'f', -1, 64),
		string(r.RiskLabel),
		r.Advice,
	}
}

// WriteCSV writes readings in the given order with a header row.
func WriteCSV(w io.Writer, readings []models.Reading, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := range readings {
		if err := cw.Write(row(&readings[i], loc)); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
