package handlers

import (
	"bytes"
	"time"

	"github.com/gin-gonic/gin"

	"vitalmine-server/internal/report"
	"vitalmine-server/internal/repository"
	"vitalmine-server/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler serves ward-wide downloads.
type ExportHandler struct {
	Readings repository.ReadingRepository
	Location *time.Location
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(readings repository.ReadingRepository) *ExportHandler {
	return &ExportHandler{Readings: readings, Location: time.UTC}
}

// ExportCSV downloads every reading as CSV.
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	readings, err := h.Readings.ListAll(c.Request.Context(), 0)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch readings: "+err.Error())
		return
	}
	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, readings, h.Location); err != nil {
		utils.InternalServerError(c, "Failed to write CSV: "+err.Error())
		return
	}
	utils.Attachment(c, report.CSVFilename, "text/csv", buf.Bytes())
}

// ExportXLSX downloads every reading as a spreadsheet.
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	readings, err := h.Readings.ListAll(c.Request.Context(), 0)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch readings: "+err.Error())
		return
	}
	data, err := report.XLSX(readings, h.Location)
	if err != nil {
		utils.InternalServerError(c, "Failed to write spreadsheet: "+err.Error())
		return
	}
	utils.Attachment(c, report.XLSXFilename, xlsxContentType, data)
}
