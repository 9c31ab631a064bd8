package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"vitalmine-server/internal/middleware"
	"vitalmine-server/internal/models"
	"vitalmine-server/internal/repository"
	"vitalmine-server/internal/utils"
)

// UserHandler handles account administration.
type UserHandler struct {
	Users repository.UserRepository
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users repository.UserRepository) *UserHandler {
	return &UserHandler{Users: users}
}

// CreateUserRequest represents the request body for creating a user by an admin.
type CreateUserRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=50"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"firstName" binding:"max=100"`
	LastName  string `json:"lastName" binding:"max=100"`
	Role      string `json:"role" binding:"omitempty,oneof=admin clinician data-entry subject"`
}

// CreateUser creates an account. A missing role creates a subject.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user := models.User{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      models.Role(req.Role).OrDefault(),
	}
	if err := user.SetPassword(req.Password); err != nil {
		utils.InternalServerError(c, "Failed to hash password: "+err.Error())
		return
	}

	if err := h.Users.Create(c.Request.Context(), &user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			utils.Conflict(c, "User with this username already exists")
		} else {
			utils.InternalServerError(c, "Failed to create user: "+err.Error())
		}
		return
	}
	utils.Created(c, "User created successfully", user.Sanitize())
}

// GetUsers lists accounts, optionally filtered by ?role=.
func (h *UserHandler) GetUsers(c *gin.Context) {
	var (
		users []models.User
		err   error
	)
	if role := c.Query("role"); role != "" {
		if !models.Role(role).Valid() {
			utils.BadRequest(c, "Unknown role: "+role)
			return
		}
		users, err = h.Users.ListByRole(c.Request.Context(), models.Role(role))
	} else {
		users, err = h.Users.List(c.Request.Context())
	}
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch users: "+err.Error())
		return
	}

	sanitized := make([]models.UserSanitized, len(users))
	for i := range users {
		sanitized[i] = users[i].Sanitize()
	}
	utils.Success(c, "Users fetched successfully", sanitized)
}

// GetUserByID fetches one account.
func (h *UserHandler) GetUserByID(c *gin.Context) {
	user, err := h.Users.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.NotFound(c, "User not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}
	utils.Success(c, "User fetched successfully", user.Sanitize())
}

// DeleteUser removes an account. Admins cannot delete themselves.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	if self, _ := middleware.GetUserIDFromContext(c); self == id {
		utils.BadRequest(c, "You cannot delete your own account")
		return
	}

	if err := h.Users.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.NotFound(c, "User not found")
		} else {
			utils.InternalServerError(c, "Failed to delete user: "+err.Error())
		}
		return
	}
	utils.Success(c, "User deleted successfully", nil)
}
