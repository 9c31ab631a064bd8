package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ResponseData is the envelope every JSON endpoint answers with.
type ResponseData struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respond(c *gin.Context, code int, message string, data any, errMsg string) {
	c.JSON(code, ResponseData{Status: code, Message: message, Data: data, Error: errMsg})
}

// Success answers 200 with data.
func Success(c *gin.Context, message string, data any) {
	respond(c, http.StatusOK, message, data, "")
}

// Created answers 201 with the new resource.
func Created(c *gin.Context, message string, data any) {
	respond(c, http.StatusCreated, message, data, "")
}

// Error answers statusCode with errorMessage.
func Error(c *gin.Context, statusCode int, errorMessage string) {
	respond(c, statusCode, "An error occurred", nil, errorMessage)
}

func BadRequest(c *gin.Context, errorMessage string) {
	Error(c, http.StatusBadRequest, errorMessage)
}

func Unauthorized(c *gin.Context, errorMessage string) {
	Error(c, http.StatusUnauthorized, errorMessage)
}

func Forbidden(c *gin.Context, errorMessage string) {
	Error(c, http.StatusForbidden, errorMessage)
}

func NotFound(c *gin.Context, errorMessage string) {
	Error(c, http.StatusNotFound, errorMessage)
}

func Conflict(c *gin.Context, errorMessage string) {
	Error(c, http.StatusConflict, errorMessage)
}

func InternalServerError(c *gin.Context, errorMessage string) {
	Error(c, http.StatusInternalServerError, errorMessage)
}

// Attachment sends data as a file download.
func Attachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}
