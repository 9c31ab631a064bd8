package handlers

import (
	"github.com/gin-gonic/gin"

	"vitalmine-server/internal/middleware"
	"vitalmine-server/internal/models"
	"vitalmine-server/internal/utils"
)

// caller is the authenticated identity of a request.
type caller struct {
	ID       string
	Username string
	Role     models.Role
}

func currentCaller(c *gin.Context) (caller, bool) {
	id, ok := middleware.GetUserIDFromContext(c)
	if !ok || id == "" {
		utils.Unauthorized(c, "User not authenticated")
		return caller{}, false
	}
	username, _ := middleware.GetUsernameFromContext(c)
	role, _ := middleware.GetUserRoleFromContext(c)
	return caller{ID: id, Username: username, Role: role.OrDefault()}, true
}

// subjectFor resolves which subject a request may look at. Subjects only
// ever see themselves. Staff see whichever subject they name.
func subjectFor(c *gin.Context, who caller, requested string) (string, bool) {
	if !who.Role.IsStaff() {
		if requested != "" && requested != who.ID {
			utils.Forbidden(c, "You can only access your own readings")
			return "", false
		}
		return who.ID, true
	}
	if requested == "" {
		utils.BadRequest(c, "subjectId is required")
		return "", false
	}
	return requested, true
}
