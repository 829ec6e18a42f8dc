package response

import (
	"errors"
	"net/http"
	"time"

	"change-aggregator/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey is the gin context key holding the per-request id.
const RequestIDKey = "request_id"

// SuccessResponse is the envelope of every 2xx body.
type SuccessResponse struct {
	Data      interface{} `json:"data"`
	RequestID string      `json:"request_id"`
	Timestamp string      `json:"timestamp"`
}

// ListPayload wraps collection results with their count.
type ListPayload struct {
	Items interface{} `json:"items"`
	Total int         `json:"total"`
}

// ErrorResponse is the envelope of every 4xx/5xx body.
type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

func OK(c *gin.Context, data interface{}) {
	send(c, http.StatusOK, data)
}

func Created(c *gin.Context, data interface{}) {
	send(c, http.StatusCreated, data)
}

// List sends items with their count. A nil slice is sent as [].
func List[T any](c *gin.Context, items []T, total int) {
	if items == nil {
		items = []T{}
	}
	send(c, http.StatusOK, ListPayload{Items: items, Total: total})
}

// Error writes err as an error envelope. Errors that are not AppErrors become
// SYS_001. For 5xx responses the cause is attached to the gin context for the
// request logger; clients only see the AppError message.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		appErr = apperror.InternalError(err)
	}
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(appErr.HTTPStatus, ErrorResponse{
		ErrorCode: appErr.Code,
		Message:   appErr.Message,
		RequestID: RequestID(c),
		Timestamp: now(),
	})
}

// RequestID returns the id set by the request-id middleware, or a fresh one
// when the middleware did not run.
func RequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	return uuid.NewString()
}

func send(c *gin.Context, status int, data interface{}) {
	c.JSON(status, SuccessResponse{
		Data:      data,
		RequestID: RequestID(c),
		Timestamp: now(),
	})
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
