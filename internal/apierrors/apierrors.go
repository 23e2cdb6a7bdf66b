// Package apierrors maps service failures onto the HTTP error body contract:
// {"message": ...} for single errors, {"errors": [...]} for field-level
// validation failures.
package apierrors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MessageResponse is the single-error body.
type MessageResponse struct {
	Message string `json:"message"`
}

// ValidationResponse carries field-level validation failures.
type ValidationResponse struct {
	Errors []string `json:"errors"`
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	c.JSON(http.StatusBadRequest, MessageResponse{Message: message})
}

// ValidationFailed sends a 400 response with field-level details
func ValidationFailed(c *gin.Context, errs []string) {
	c.JSON(http.StatusBadRequest, ValidationResponse{Errors: errs})
}

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	c.JSON(http.StatusUnauthorized, MessageResponse{Message: message})
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "Access denied"
	}
	c.JSON(http.StatusForbidden, MessageResponse{Message: message})
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	c.JSON(http.StatusNotFound, MessageResponse{Message: message})
}

// InternalError sends a 500 response. Internal detail is never exposed to the
// caller; log the cause at the call site.
func InternalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, MessageResponse{Message: "Internal server error"})
}
