package handler

import (
	"errors"
	"net/http"
	"strconv"

	"change-aggregator/internal/adapter/http/dto"
	"change-aggregator/internal/adapter/http/middleware"
	"change-aggregator/pkg/apperror"
	"change-aggregator/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const maxListLimit = 1000

// bindJSON decodes and validates the body into req, then sanitizes its
// string fields. On failure the error response is already written.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, bindError(err))
		return false
	}
	dto.SanitizeStruct(req)
	return true
}

func bindError(err error) *apperror.AppError {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperror.ErrPayloadTooLarge(tooLarge.Limit)
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) {
		return apperror.Validation(dto.DescribeValidation(fields))
	}
	return apperror.Validation("malformed request body: " + err.Error())
}

// pathID parses the :id route parameter. A malformed id cannot name an
// existing record, so it is reported as not found.
func pathID(c *gin.Context, entity string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrNotFound(entity))
		return uuid.Nil, false
	}
	return id, true
}

// subjectID returns the authenticated merchant or customer id.
func subjectID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.SubjectID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return uuid.Nil, false
	}
	return id, true
}

// queryLimit reads ?limit=, returning 0 when absent.
func queryLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxListLimit {
		response.Error(c, apperror.Validation("limit must be between 1 and 1000"))
		return 0, false
	}
	return n, true
}
