package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"change-aggregator/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newContext(requestID string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	if requestID != "" {
		c.Set(RequestIDKey, requestID)
	}
	return c, w
}

func TestSuccessEnvelopes(t *testing.T) {
	tests := []struct {
		name   string
		send   func(c *gin.Context)
		status int
	}{
		{"ok", func(c *gin.Context) { OK(c, map[string]string{"status": "completed"}) }, http.StatusOK},
		{"created", func(c *gin.Context) { Created(c, map[string]string{"status": "completed"}) }, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newContext("req-" + tt.name)
			tt.send(c)

			assert.Equal(t, tt.status, w.Code)
			var resp SuccessResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "req-"+tt.name, resp.RequestID)
			assert.NotEmpty(t, resp.Timestamp)
			assert.Equal(t, "completed", resp.Data.(map[string]interface{})["status"])
		})
	}
}

func TestList(t *testing.T) {
	c, w := newContext("")
	List(c, []string{"pending", "paid"}, 2)

	var resp struct {
		Data ListPayload `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Data.Total)
	assert.Len(t, resp.Data.Items, 2)
}

func TestList_NilSliceIsEmptyArray(t *testing.T) {
	c, w := newContext("")
	var none []int
	List(c, none, 0)

	assert.JSONEq(t, `{"items":[],"total":0}`, mustData(t, w))
}

func TestError_AppError(t *testing.T) {
	c, w := newContext("req-789")
	Error(c, apperror.ErrInsufficientPayment())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "VAL_003", resp.ErrorCode)
	assert.Equal(t, "insufficient payment", resp.Message)
	assert.Equal(t, "req-789", resp.RequestID)
	assert.Empty(t, c.Errors, "client errors are not attached for logging")
}

func TestError_WrappedAppError(t *testing.T) {
	c, w := newContext("")
	Error(c, fmt.Errorf("resolve: %w", apperror.ErrInvalidState("transaction is already completed")))

	assert.Equal(t, http.StatusConflict, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "STATE_001", resp.ErrorCode)
}

func TestError_UnknownErrorIsInternal(t *testing.T) {
	c, w := newContext("")
	Error(c, errors.New("pq: relation \"payouts\" does not exist"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "SYS_001", resp.ErrorCode)
	assert.NotContains(t, resp.Message, "payouts")
	require.Len(t, c.Errors, 1)
	assert.Contains(t, c.Errors.String(), "payouts")
}

func TestRequestID_GeneratedWhenMissing(t *testing.T) {
	c, _ := newContext("")
	_, err := uuid.Parse(RequestID(c))
	assert.NoError(t, err)

	c, _ = newContext("abc")
	assert.Equal(t, "abc", RequestID(c))
}

func mustData(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return string(resp.Data)
}
