package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"vitalmine-server/internal/assistant"
	"vitalmine-server/internal/models"
	"vitalmine-server/internal/repository"
	"vitalmine-server/internal/utils"
)

// AssistantHandler answers free-text questions about a subject.
type AssistantHandler struct {
	Assistant *assistant.Service
	Readings  repository.ReadingRepository
}

// NewAssistantHandler creates a new AssistantHandler.
func NewAssistantHandler(svc *assistant.Service, readings repository.ReadingRepository) *AssistantHandler {
	return &AssistantHandler{Assistant: svc, Readings: readings}
}

// AskRequest represents the request body for a question.
type AskRequest struct {
	Question  string `json:"question" binding:"required,max=1000"`
	SubjectID string `json:"subjectId"`
}

// AskResponse carries the answer.
type AskResponse struct {
	Answer string `json:"answer"`
}

// Ask answers a question using the subject's latest reading as context.
// Assistant failures come back as the apology, never as an error status.
func (h *AssistantHandler) Ask(c *gin.Context) {
	who, ok := currentCaller(c)
	if !ok {
		return
	}
	var req AskRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	pc := assistant.Context{Name: who.Username}
	subjectID := req.SubjectID
	if who.Role == models.RoleSubject {
		if subjectID != "" && subjectID != who.ID {
			utils.Forbidden(c, "You can only ask about your own readings")
			return
		}
		subjectID = who.ID
	}
	if subjectID != "" {
		latest, err := h.Readings.Latest(c.Request.Context(), subjectID)
		switch {
		case err == nil:
			pc = assistant.Context{
				Name:        latest.DisplayName,
				Temperature: latest.Temperature,
				HeartRate:   latest.HeartRate,
				RiskLabel:   latest.RiskLabel,
			}
		case !errors.Is(err, repository.ErrNotFound):
			utils.InternalServerError(c, "Database error: "+err.Error())
			return
		}
	}

	answer := h.Assistant.Answer(c.Request.Context(), req.Question, pc)
	utils.Success(c, "Answer generated", AskResponse{Answer: answer})
}
