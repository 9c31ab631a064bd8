package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"vitalmine-server/internal/models"
	"vitalmine-server/internal/report"
	"vitalmine-server/internal/repository"
	"vitalmine-server/internal/service"
	"vitalmine-server/internal/utils"
	"vitalmine-server/internal/vitals"
)

// ReadingHandler records and serves vitals readings.
type ReadingHandler struct {
	Recorder *service.Recorder
	Trends   *service.Trends
	Readings repository.ReadingRepository
	Users    repository.UserRepository
	Location *time.Location
}

// NewReadingHandler creates a new ReadingHandler. Report timestamps are
// rendered in UTC.
func NewReadingHandler(recorder *service.Recorder, trends *service.Trends, readings repository.ReadingRepository, users repository.UserRepository) *ReadingHandler {
	return &ReadingHandler{Recorder: recorder, Trends: trends, Readings: readings, Users: users, Location: time.UTC}
}

// ReadingForm is the form-encoded submission used by the dashboard and the
// HTTP device transport.
type ReadingForm struct {
	Temperature string `form:"temperature"`
	HeartRate   string `form:"heart_rate"`
	RespRate    string `form:"resp_rate"`
	WBCCount    string `form:"wbc_count"`
	Name        string `form:"name"`
	SubjectID   string `form:"subjectId"`
}

// ReadingRequest is the JSON submission.
type ReadingRequest struct {
	Temperature *float64 `json:"temperature" binding:"required"`
	HeartRate   *int     `json:"heartRate" binding:"required"`
	RespRate    *int     `json:"respRate" binding:"required"`
	WBCCount    *float64 `json:"wbcCount" binding:"required"`
	Name        string   `json:"name"`
	SubjectID   string   `json:"subjectId"`
}

// RecordReading scores and stores one set of vitals.
func (h *ReadingHandler) RecordReading(c *gin.Context) {
	who, ok := currentCaller(c)
	if !ok {
		return
	}

	var (
		outcome *service.Outcome
		err     error
	)
	if c.ContentType() == binding.MIMEJSON {
		var req ReadingRequest
		if !utils.BindAndValidate(c, &req) {
			return
		}
		subjectID, name, ok := h.attribute(c, who, req.SubjectID, req.Name)
		if !ok {
			return
		}
		outcome, err = h.Recorder.Record(c.Request.Context(), service.Submission{
			Vitals: vitals.Vitals{
				Temperature: *req.Temperature,
				HeartRate:   *req.HeartRate,
				RespRate:    *req.RespRate,
				WBCCount:    *req.WBCCount,
			},
			SubjectID:   subjectID,
			DisplayName: name,
			Actor:       who.Username,
		})
	} else {
		var form ReadingForm
		if !utils.BindAny(c, &form) {
			return
		}
		subjectID, name, ok := h.attribute(c, who, form.SubjectID, form.Name)
		if !ok {
			return
		}
		raw := vitals.Raw{
			Temperature: form.Temperature,
			HeartRate:   form.HeartRate,
			RespRate:    form.RespRate,
			WBCCount:    form.WBCCount,
		}
		outcome, err = h.Recorder.RecordRaw(c.Request.Context(), raw, subjectID, name, who.Username)
	}

	if err != nil {
		if errors.Is(err, vitals.ErrInvalidVitals) {
			utils.BadRequest(c, err.Error())
		} else {
			utils.InternalServerError(c, "Failed to record reading: "+err.Error())
		}
		return
	}
	utils.Created(c, "Reading recorded successfully", outcome.Reading)
}

// attribute decides whose reading this is. A subject's own submission is
// always filed under it with its username. Staff entries are ad-hoc unless
// they name a subject.
func (h *ReadingHandler) attribute(c *gin.Context, who caller, requested, name string) (*string, string, bool) {
	if who.Role == models.RoleSubject {
		id := who.ID
		return &id, who.Username, true
	}

	requested = strings.TrimSpace(requested)
	if requested == "" {
		return nil, name, true
	}
	subject, err := h.Users.GetByID(c.Request.Context(), requested)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.BadRequest(c, "Unknown subject: "+requested)
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return nil, "", false
	}
	if subject.Role != models.RoleSubject {
		utils.BadRequest(c, "User "+subject.Username+" is not a subject")
		return nil, "", false
	}
	if strings.TrimSpace(name) == "" {
		name = subject.Username
	}
	return &subject.ID, name, true
}

// GetWard returns every reading with summary counts.
func (h *ReadingHandler) GetWard(c *gin.Context) {
	overview, err := h.Trends.Ward(c.Request.Context())
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch readings: "+err.Error())
		return
	}
	utils.Success(c, "Readings fetched successfully", overview)
}

// GetReading fetches one reading.
func (h *ReadingHandler) GetReading(c *gin.Context) {
	r, ok := h.visibleReading(c)
	if !ok {
		return
	}
	utils.Success(c, "Reading fetched successfully", r)
}

// GetReadingPDF renders one reading as a printable report.
func (h *ReadingHandler) GetReadingPDF(c *gin.Context) {
	r, ok := h.visibleReading(c)
	if !ok {
		return
	}
	data, err := report.PDF(r, h.Location)
	if err != nil {
		utils.InternalServerError(c, "Failed to render report: "+err.Error())
		return
	}
	utils.Attachment(c, report.PDFFilename(r), "application/pdf", data)
}

func (h *ReadingHandler) visibleReading(c *gin.Context) (*models.Reading, bool) {
	who, ok := currentCaller(c)
	if !ok {
		return nil, false
	}
	r, err := h.Readings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.NotFound(c, "Reading not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return nil, false
	}
	if who.Role == models.RoleSubject && !r.BelongsTo(who.ID) {
		utils.Forbidden(c, "You can only access your own readings")
		return nil, false
	}
	return r, true
}
