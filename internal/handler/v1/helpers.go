package v1

import (
	"errors"
	"net/http"

	"github.com/dmehra2102/prod-golang-projects/medix/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medix/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/medix/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

type ValidationErrorResponse struct {
	Detail string   `json:"detail"`
	Fields []string `json:"fields"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, MessageResponse{Message: message})
}

func respondError(c *gin.Context, status int, detail string) {
	c.JSON(status, ErrorResponse{Detail: detail})
}

// respondServiceError maps a service failure onto exactly one status code.
// Unknown errors are logged and hidden behind a 500.
func respondServiceError(c *gin.Context, log *zap.Logger, err error) {
	_ = c.Error(err)

	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Detail: "validation failed",
			Fields: validErr.Fields,
		})
		return
	}

	var argErr *service.InvalidArgumentError
	if errors.As(err, &argErr) {
		respondError(c, http.StatusBadRequest, argErr.Message)
		return
	}

	switch {
	case errors.Is(err, patient.ErrPatientNotFound):
		respondError(c, http.StatusNotFound, "Patient not found")

	case errors.Is(err, patient.ErrPatientAlreadyExists):
		respondError(c, http.StatusBadRequest, "Patient already exists")

	case errors.Is(err, domain.ErrDoctorAlreadyExists):
		respondError(c, http.StatusBadRequest, "Username already registered")

	case errors.Is(err, service.ErrInvalidCredentials):
		c.Header("WWW-Authenticate", "Bearer")
		respondError(c, http.StatusUnauthorized, "Incorrect username or password")

	case errors.Is(err, service.ErrUnauthorized):
		c.Header("WWW-Authenticate", "Bearer")
		respondError(c, http.StatusUnauthorized, "Invalid authentication credentials")

	default:
		log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return false
	}

	return true
}
