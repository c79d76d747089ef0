package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/devops-offer/offer/internal/database"
	"github.com/devops-offer/offer/internal/pagination"
	"github.com/devops-offer/offer/internal/validation"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"` // field-level messages for validation errors
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondValidation sends field-level messages with a 400.
func respondValidation(c *gin.Context, errs validation.Errors) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: errs})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, log logrus.FieldLogger, err error, context string) {
	log.WithError(err).WithField("context", context).Error("Internal error")
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondError maps service and repository errors onto status codes:
// validation 400, not found 404, conflict 400 with its reason, anything else 500.
func respondError(c *gin.Context, log logrus.FieldLogger, err error, context string) {
	if verr, ok := validation.As(err); ok {
		respondValidation(c, verr)
		return
	}
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, database.ErrConflict):
		log.WithField("context", context).Info(err.Error())
		respondBadRequest(c, database.Reason(err))
	default:
		respondInternalError(c, log, err, context)
	}
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// parsePageParams reads page and page_size strictly.
// On failure it responds with 400 and returns false.
func parsePageParams(c *gin.Context) (pagination.Params, bool) {
	p, err := pagination.Parse(c.Query("page"), c.Query("page_size"))
	if err != nil {
		verr, _ := validation.As(err)
		respondValidation(c, verr)
		return p, false
	}
	return p, true
}

// uiPageParams reads page and page_size, falling back to the first page.
func uiPageParams(c *gin.Context) pagination.Params {
	return pagination.ParseOrDefault(c.Query("page"), c.Query("page_size"))
}

// bindJSON binds the request body, responding with field errors on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondValidation(c, validation.FromBinding(err))
		return false
	}
	return true
}
