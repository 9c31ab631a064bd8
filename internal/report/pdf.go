package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"vitalmine-server/internal/models"
	"vitalmine-server/internal/risk"
)

const (
	pdfTitle      = "VitalMine Hospital System"
	pdfSubtitle   = "Clinical Decision Support Report"
	pdfDisclaimer = "This report was generated by VitalMine AI. Please consult a physician."
	pdfSignature  = "Signature: __________________________"
)

// LabelColor is the colour the assessment is printed in.
func LabelColor(l risk.Label) (r, g, b int) {
	switch l {
	case risk.High:
		return 255, 0, 0
	case risk.Warning:
		return 255, 128, 0
	default:
		return 0, 128, 0
	}
}

// PDF renders the clinical report for one reading.
func PDF(r *models.Reading, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}
	pdf := fpdf.New("P", "mm", "Letter", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(pdfTitle, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 10, pdfTitle, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 6, pdfSubtitle, "", 1, "L", false, 0, "")
	y := pdf.GetY() + 2
	pdf.Line(18, y, 198, y)
	pdf.Ln(12)

	pdf.CellFormat(0, 7, tr("Patient Name: "+strings.ToUpper(r.DisplayName)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Date/Time: "+r.RecordedAt.In(loc).Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Report ID: #"+r.ID, "", 1, "L", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Clinical Vitals:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	for _, line := range []string{
		fmt.Sprintf("Temperature: %s °C", strconv.FormatFloat(r.Temperature, 'f', -1, 64)),
		fmt.Sprintf("Heart Rate: %d bpm", r.HeartRate),
		fmt.Sprintf("Respiratory Rate: %d /min", r.RespRate),
		fmt.Sprintf("WBC Count: %s /mcL", strconv.FormatFloat(r.WBCCount, 'f', -1, 64)),
	} {
		pdf.CellFormat(8, 7, "", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, tr("• "+line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(8)

	boxY := pdf.GetY()
	pdf.Rect(18, boxY, 180, 26, "D")
	pdf.SetXY(22, boxY+4)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(62, 8, "AI RISK ASSESSMENT:", "", 0, "L", false, 0, "")
	pdf.SetTextColor(LabelColor(r.RiskLabel))
	pdf.CellFormat(0, 8, strings.ToUpper(string(r.RiskLabel)), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetX(22)
	pdf.SetFont("Helvetica", "I", 12)
	pdf.MultiCell(172, 6, tr("Recommendation: "+r.Advice), "", "L", false)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(18, 235)
	pdf.CellFormat(0, 6, pdfDisclaimer, "", 1, "L", false, 0, "")
	pdf.SetXY(18, 255)
	pdf.CellFormat(0, 6, pdfSignature, "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
