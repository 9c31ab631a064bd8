package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"vitalmine-server/internal/service"
	"vitalmine-server/internal/utils"
)

// MaxSeriesLimit caps ?limit= on series requests.
const MaxSeriesLimit = 500

// SubjectHandler serves per-subject views.
type SubjectHandler struct {
	Trends *service.Trends
}

// NewSubjectHandler creates a new SubjectHandler.
func NewSubjectHandler(trends *service.Trends) *SubjectHandler {
	return &SubjectHandler{Trends: trends}
}

// GetDirectory lists every subject with its latest status.
func (h *SubjectHandler) GetDirectory(c *gin.Context) {
	entries, err := h.Trends.Directory(c.Request.Context())
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch subjects: "+err.Error())
		return
	}
	utils.Success(c, "Subjects fetched successfully", entries)
}

// GetMyDashboard is GetDashboard for the caller.
func (h *SubjectHandler) GetMyDashboard(c *gin.Context) {
	h.dashboard(c, "")
}

// GetDashboard returns a subject's history and latest status.
func (h *SubjectHandler) GetDashboard(c *gin.Context) {
	h.dashboard(c, c.Param("id"))
}

func (h *SubjectHandler) dashboard(c *gin.Context, requested string) {
	who, ok := currentCaller(c)
	if !ok {
		return
	}
	if requested == "" {
		requested = who.ID
	}
	subjectID, ok := subjectFor(c, who, requested)
	if !ok {
		return
	}

	d, err := h.Trends.Dashboard(c.Request.Context(), subjectID)
	if err != nil {
		utils.InternalServerError(c, "Failed to build dashboard: "+err.Error())
		return
	}
	utils.Success(c, "Dashboard fetched successfully", d)
}

// GetMySeries is GetSeries for the caller.
func (h *SubjectHandler) GetMySeries(c *gin.Context) {
	h.series(c, "")
}

// GetSeries returns the subject's recent readings oldest first.
func (h *SubjectHandler) GetSeries(c *gin.Context) {
	h.series(c, c.Param("id"))
}

func (h *SubjectHandler) series(c *gin.Context, requested string) {
	who, ok := currentCaller(c)
	if !ok {
		return
	}
	if requested == "" {
		requested = who.ID
	}
	subjectID, ok := subjectFor(c, who, requested)
	if !ok {
		return
	}

	limit := h.Trends.Window()
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxSeriesLimit {
			utils.BadRequest(c, "limit must be an integer between 1 and "+strconv.Itoa(MaxSeriesLimit))
			return
		}
		limit = n
	}

	s, err := h.Trends.Series(c.Request.Context(), subjectID, limit)
	if err != nil {
		utils.InternalServerError(c, "Failed to build series: "+err.Error())
		return
	}
	utils.Success(c, "Series fetched successfully", s)
}
