package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"change-aggregator/internal/adapter/http/dto"
	"change-aggregator/internal/adapter/http/middleware"
	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports"
	"change-aggregator/internal/core/ports/mocks"
	"change-aggregator/pkg/apperror"
	"change-aggregator/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newContext(method, path, body string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	c.Request = httptest.NewRequest(method, path, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func authenticate(c *gin.Context, role domain.Role, subject string) {
	c.Set(middleware.CtxRole, role)
	c.Set(middleware.CtxSubject, subject)
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "body: %s", w.Body.String())
	return data
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	code, _ := resp["error_code"].(string)
	return code
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// --- Auth Handler Tests ---

func TestSignupMerchant_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	merchantID := uuid.New()
	mockAuth.EXPECT().SignupMerchant(gomock.Any(), ports.MerchantSignupRequest{
		Name:         "Cafe Nour",
		Email:        "nour@mail.dz",
		Phone:        "0661000000",
		Address:      "12 rue Didouche Mourad",
		BusinessType: "cafe",
		Password:     " secret pass ",
	}).Return(&domain.Merchant{
		ID:     merchantID,
		Name:   "Cafe Nour",
		Status: domain.MerchantStatusPending,
	}, nil)

	c, w := newContext(http.MethodPost, "/api/v1/auth/merchants/signup", `{
		"name": " Cafe Nour ", "email": "nour@mail.dz", "phone": "0661000000",
		"address": "12 rue Didouche Mourad", "business_type": "cafe", "password": " secret pass "
	}`)
	h.SignupMerchant(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, merchantID.String(), data["id"])
	assert.Equal(t, "pending", data["status"])
	assert.NotContains(t, w.Body.String(), "password")
}

func TestSignupMerchant_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewAuthHandler(mocks.NewMockAuthService(ctrl))

	// Empty body => binding error
	c, w := newContext(http.MethodPost, "/api/v1/auth/merchants/signup", "{}")
	h.SignupMerchant(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VAL_001", errorCode(t, w))
}

func TestSignupMerchant_EmailExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)
	mockAuth.EXPECT().SignupMerchant(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrEmailExists())

	c, w := newContext(http.MethodPost, "/", `{"name":"A","email":"a@b.dz","phone":"0661000000","address":"x","business_type":"shop","password":"password123"}`)
	h.SignupMerchant(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CON_001", errorCode(t, w))
}

func TestLoginMerchant_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	expiry := time.Now().Add(24 * time.Hour)
	mockAuth.EXPECT().LoginMerchant(gomock.Any(), "shop@mail.dz", "password123").Return(&ports.LoginResult{
		Token:     "jwt_token",
		ExpiresAt: expiry,
		Role:      domain.RoleMerchant,
		Merchant:  &domain.Merchant{Name: "Shop", Status: domain.MerchantStatusApproved},
	}, nil)

	c, w := newContext(http.MethodPost, "/", `{"email":"shop@mail.dz","password":"password123"}`)
	h.LoginMerchant(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "jwt_token", data["token"])
	assert.Equal(t, "merchant", data["role"])
	assert.Equal(t, float64(expiry.Unix()), data["expiry"])
	assert.NotNil(t, data["merchant"])
	assert.Nil(t, data["customer"])
}

func TestLoginMerchant_Pending(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)
	mockAuth.EXPECT().LoginMerchant(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, apperror.ErrMerchantPending())

	c, w := newContext(http.MethodPost, "/", `{"email":"shop@mail.dz","password":"password123"}`)
	h.LoginMerchant(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "AUTH_002", errorCode(t, w))
}

func TestLoginCustomer_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)
	mockAuth.EXPECT().LoginCustomer(gomock.Any(), "amina@mail.dz").Return(&ports.LoginResult{
		Token:    "tok",
		Role:     domain.RoleCustomer,
		Customer: &domain.Customer{Email: "amina@mail.dz"},
	}, nil)

	c, w := newContext(http.MethodPost, "/", `{"email":" amina@mail.dz "}`)
	h.LoginCustomer(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "customer", decodeData(t, w)["role"])
}

func TestLoginAdmin_InvalidCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)
	mockAuth.EXPECT().LoginAdmin(gomock.Any(), "admin", "wrong<pass").Return(nil, apperror.ErrInvalidCredentials())

	c, w := newContext(http.MethodPost, "/", `{"username":"admin","password":"wrong<pass"}`)
	h.LoginAdmin(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type fakeChecker struct {
	name string
	err  error
}

func (f fakeChecker) Ping(context.Context) error { return f.err }
func (f fakeChecker) Name() string               { return f.name }

func TestHealthCheck(t *testing.T) {
	c, w := newContext(http.MethodGet, "/health", "")
	HealthCheck(fakeChecker{name: "postgresql"})(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newContext(http.MethodGet, "/health", "")
	HealthCheck(fakeChecker{name: "postgresql"}, fakeChecker{name: "redis", err: errors.New("down")})(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"degraded"`)
}

// --- Transaction Handler Tests ---

func TestStartTransaction_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTx := mocks.NewMockTransactionService(ctrl)
	h := NewTransactionHandler(mockTx, mocks.NewMockDispositionService(ctrl))

	merchantID := uuid.New()
	mockTx.EXPECT().Start(gomock.Any(), merchantID, "12.5", "20.00").Return(&domain.Transaction{
		ID:         uuid.New(),
		MerchantID: merchantID,
		Amount:     dec("12.5"),
		Paid:       dec("20"),
		Change:     dec("7.5"),
		Status:     domain.TransactionStatusPending,
	}, nil)

	c, w := newContext(http.MethodPost, "/api/v1/transactions", `{"amount":12.5,"paid":"20.00"}`)
	authenticate(c, domain.RoleMerchant, merchantID.String())
	h.Start(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, 7.5, data["change"])
	assert.Equal(t, "pending", data["status"])
}

func TestStartTransaction_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		svcErr  error
		want    int
		code    string
		callSvc bool
	}{
		{"missing paid", `{"amount":10}`, nil, http.StatusBadRequest, "VAL_001", false},
		{"boolean amount", `{"amount":true,"paid":10}`, nil, http.StatusBadRequest, "VAL_001", false},
		{"non-numeric", `{"amount":"ten","paid":"20"}`, apperror.ErrInvalidNumber(), http.StatusBadRequest, "VAL_002", true},
		{"underpaid", `{"amount":20,"paid":10}`, apperror.ErrInsufficientPayment(), http.StatusBadRequest, "VAL_003", true},
		{"not approved", `{"amount":1,"paid":2}`, apperror.ErrMerchantNotApproved(), http.StatusForbidden, "AUTH_005", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockTx := mocks.NewMockTransactionService(ctrl)
			h := NewTransactionHandler(mockTx, mocks.NewMockDispositionService(ctrl))
			if tt.callSvc {
				mockTx.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, tt.svcErr)
			}

			c, w := newContext(http.MethodPost, "/api/v1/transactions", tt.body)
			authenticate(c, domain.RoleMerchant, uuid.NewString())
			h.Start(c)

			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestStartTransaction_RequiresMerchantSubject(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewTransactionHandler(mocks.NewMockTransactionService(ctrl), mocks.NewMockDispositionService(ctrl))

	c, w := newContext(http.MethodPost, "/api/v1/transactions", `{"amount":1,"paid":2}`)
	authenticate(c, domain.RoleAdmin, "admin")
	h.Start(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCurrentTransaction_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTx := mocks.NewMockTransactionService(ctrl)
	h := NewTransactionHandler(mockTx, mocks.NewMockDispositionService(ctrl))

	merchantID := uuid.New()
	mockTx.EXPECT().Current(gomock.Any(), merchantID).Return(nil, apperror.ErrNotFound("Current transaction"))

	c, w := newContext(http.MethodGet, "/api/v1/transactions/current", "")
	authenticate(c, domain.RoleMerchant, merchantID.String())
	h.Current(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResetTransaction(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTx := mocks.NewMockTransactionService(ctrl)
	h := NewTransactionHandler(mockTx, mocks.NewMockDispositionService(ctrl))

	merchantID := uuid.New()
	mockTx.EXPECT().Reset(gomock.Any(), merchantID).Return(nil)

	c, w := newContext(http.MethodDelete, "/api/v1/transactions/current", "")
	authenticate(c, domain.RoleMerchant, merchantID.String())
	h.Reset(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeData(t, w)["success"])
}

func TestResolve_DepositRequest(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDisp := mocks.NewMockDispositionService(ctrl)
	h := NewTransactionHandler(mocks.NewMockTransactionService(ctrl), mockDisp)

	merchantID := uuid.New()
	customerID := uuid.New()
	mockDisp.EXPECT().Resolve(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req ports.DispositionRequest) (*ports.DispositionResult, error) {
			assert.Equal(t, merchantID, req.MerchantID)
			assert.Equal(t, "deposit", req.Disposition)
			assert.Equal(t, "retry-1", req.IdempotencyKey)
			assert.Equal(t, domain.RoleMerchant, req.Actor.Role)
			require.NotNil(t, req.Customer)
			require.NotNil(t, req.Customer.ID)
			assert.Equal(t, customerID, *req.Customer.ID)
			return &ports.DispositionResult{
				Transaction: &domain.Transaction{Status: domain.TransactionStatusCompleted},
				Customer:    &domain.Customer{ID: customerID, Balance: dec("7.5")},
			}, nil
		},
	)

	c, w := newContext(http.MethodPost, "/api/v1/transactions/current/disposition",
		`{"disposition":"deposit","customer":{"id":"`+customerID.String()+`"}}`)
	c.Request.Header.Set(HeaderIdempotencyKey, "retry-1")
	authenticate(c, domain.RoleMerchant, merchantID.String())
	h.Resolve(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "completed", data["transaction"].(map[string]interface{})["status"])
	assert.Equal(t, 7.5, data["customer"].(map[string]interface{})["balance"])
}

func TestResolve_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		svcErr error
		want   int
	}{
		{"unknown disposition", `{"disposition":"burn"}`, nil, http.StatusBadRequest},
		{"malformed customer id", `{"disposition":"deposit","customer":{"id":"42"}}`, nil, http.StatusBadRequest},
		{"malformed ccp", `{"disposition":"payout","ccp":"abc"}`, nil, http.StatusBadRequest},
		{"no current transaction", `{"disposition":"donate"}`, apperror.ErrNotFound("Current transaction"), http.StatusNotFound},
		{"already completed", `{"disposition":"return"}`, apperror.ErrInvalidState("transaction is already completed"), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockDisp := mocks.NewMockDispositionService(ctrl)
			h := NewTransactionHandler(mocks.NewMockTransactionService(ctrl), mockDisp)
			if tt.svcErr != nil {
				mockDisp.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(nil, tt.svcErr)
			}

			c, w := newContext(http.MethodPost, "/", tt.body)
			authenticate(c, domain.RoleMerchant, uuid.NewString())
			h.Resolve(c)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestListTransactions_Filters(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTx := mocks.NewMockTransactionService(ctrl)
	h := NewTransactionHandler(mockTx, mocks.NewMockDispositionService(ctrl))

	merchantID := uuid.New()
	completed := domain.TransactionStatusCompleted
	mockTx.EXPECT().List(gomock.Any(), ports.TransactionListParams{
		MerchantID: &merchantID,
		Status:     &completed,
		Limit:      5,
	}).Return([]domain.Transaction{{ID: uuid.New()}}, nil)

	c, w := newContext(http.MethodGet, "/api/v1/transactions?status=completed&limit=5", "")
	authenticate(c, domain.RoleMerchant, merchantID.String())
	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeData(t, w)["total"])

	for _, query := range []string{"?status=done", "?limit=0", "?limit=abc", "?limit=5000"} {
		c, w = newContext(http.MethodGet, "/api/v1/transactions"+query, "")
		authenticate(c, domain.RoleMerchant, merchantID.String())
		h.List(c)
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}
}

// --- Payout Handler Tests ---

func TestCreatePayout_UsesTokenMerchant(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPayout := mocks.NewMockPayoutService(ctrl)
	h := NewPayoutHandler(mockPayout)

	merchantID := uuid.New()
	mockPayout.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, actor domain.Actor, req ports.CreatePayoutRequest) (*domain.PayoutRequest, error) {
			assert.Equal(t, merchantID.String(), actor.ID)
			require.NotNil(t, req.MerchantID)
			assert.Equal(t, merchantID, *req.MerchantID)
			assert.Equal(t, "15", req.Amount)
			assert.Equal(t, "0012345678 45", req.CCP)
			return &domain.PayoutRequest{ID: uuid.New(), Status: domain.PayoutStatusPending, Amount: dec("15")}, nil
		},
	)

	c, w := newContext(http.MethodPost, "/api/v1/payout-requests", `{"ccp":"0012345678 45","amount":15}`)
	authenticate(c, domain.RoleMerchant, merchantID.String())
	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "pending", decodeData(t, w)["status"])
}

func TestCreatePayout_MissingAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewPayoutHandler(mocks.NewMockPayoutService(ctrl))

	c, w := newContext(http.MethodPost, "/api/v1/payout-requests", `{"ccp":"0012345678"}`)
	authenticate(c, domain.RoleMerchant, uuid.NewString())
	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListPayouts_StatusFilter(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPayout := mocks.NewMockPayoutService(ctrl)
	h := NewPayoutHandler(mockPayout)

	paid := domain.PayoutStatusPaid
	mockPayout.EXPECT().List(gomock.Any(), &paid).Return([]domain.PayoutRequest{}, nil)

	c, w := newContext(http.MethodGet, "/api/v1/payout-requests?status=paid", "")
	h.List(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newContext(http.MethodGet, "/api/v1/payout-requests?status=refunded", "")
	h.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mockPayout.EXPECT().ListPending(gomock.Any()).Return([]domain.PayoutRequest{{ID: uuid.New()}}, nil)
	c, w = newContext(http.MethodGet, "/api/v1/payout-requests/pending", "")
	h.ListPending(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeData(t, w)["total"])
}

func TestUpdatePayoutStatus(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		body   string
		svcErr error
		want   int
	}{
		{"paid", uuid.NewString(), `{"status":"paid"}`, nil, http.StatusOK},
		{"missing status", uuid.NewString(), `{}`, nil, http.StatusBadRequest},
		{"unknown status", uuid.NewString(), `{"status":"refunded"}`, apperror.Validation("status must be one of pending, paid, not_paid"), http.StatusBadRequest},
		{"back to pending", uuid.NewString(), `{"status":"pending"}`, apperror.ErrInvalidState("payout request cannot return to pending"), http.StatusConflict},
		{"unknown id", uuid.NewString(), `{"status":"paid"}`, apperror.ErrNotFound("Payout request"), http.StatusNotFound},
		{"malformed id", "nope", `{"status":"paid"}`, nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockPayout := mocks.NewMockPayoutService(ctrl)
			h := NewPayoutHandler(mockPayout)

			if tt.want == http.StatusOK {
				mockPayout.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), uuid.MustParse(tt.id), "paid").
					Return(&domain.PayoutRequest{Status: domain.PayoutStatusPaid}, nil)
			} else if tt.svcErr != nil {
				mockPayout.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, tt.svcErr)
			}

			c, w := newContext(http.MethodPatch, "/api/v1/payout-requests/"+tt.id, tt.body)
			c.Params = gin.Params{{Key: "id", Value: tt.id}}
			authenticate(c, domain.RoleAdmin, "admin")
			h.UpdateStatus(c)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

// --- Customer Handler Tests ---

func TestRegisterCustomer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCustomer := mocks.NewMockCustomerService(ctrl)
	h := NewCustomerHandler(mockCustomer)

	mockCustomer.EXPECT().Register(gomock.Any(), gomock.Any(), ports.RegisterCustomerRequest{
		Name: "Amina", Email: "amina@mail.dz", Phone: "0661000000",
	}).Return(&domain.Customer{ID: uuid.New(), Email: "amina@mail.dz"}, nil)

	c, w := newContext(http.MethodPost, "/api/v1/customers", `{"name":"Amina","email":"amina@mail.dz","phone":"0661000000"}`)
	h.Register(c)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(0), decodeData(t, w)["balance"])

	mockCustomer.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, apperror.ErrEmailExists())
	c, w = newContext(http.MethodPost, "/api/v1/customers", `{"name":"Amina","email":"AMINA@mail.dz","phone":"0661000000"}`)
	h.Register(c)
	assert.Equal(t, http.StatusConflict, w.Code)

	c, w = newContext(http.MethodPost, "/api/v1/customers", `{"name":"Amina","email":"amina@mail.dz"}`)
	h.Register(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreditBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCustomer := mocks.NewMockCustomerService(ctrl)
	h := NewCustomerHandler(mockCustomer)

	id := uuid.New()
	mockCustomer.EXPECT().CreditBalance(gomock.Any(), gomock.Any(), id, "10.25").
		Return(&domain.Customer{ID: id, Balance: dec("10.25")}, nil)

	c, w := newContext(http.MethodPatch, "/api/v1/customers/"+id.String()+"/balance", `{"amount":10.25}`)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	authenticate(c, domain.RoleAdmin, "admin")
	h.CreditBalance(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10.25, decodeData(t, w)["balance"])

	// Strings are not accepted for this endpoint.
	c, w = newContext(http.MethodPatch, "/", `{"amount":"10.25"}`)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	h.CreditBalance(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteCustomer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCustomer := mocks.NewMockCustomerService(ctrl)
	h := NewCustomerHandler(mockCustomer)

	id := uuid.New()
	mockCustomer.EXPECT().Delete(gomock.Any(), gomock.Any(), id).Return(nil)
	c, w := newContext(http.MethodDelete, "/", "")
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	h.Delete(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeData(t, w)["success"])

	mockCustomer.EXPECT().Delete(gomock.Any(), gomock.Any(), id).Return(apperror.ErrNotFound("Customer"))
	c, w = newContext(http.MethodDelete, "/", "")
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	h.Delete(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListCustomers_ByEmail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCustomer := mocks.NewMockCustomerService(ctrl)
	h := NewCustomerHandler(mockCustomer)

	mockCustomer.EXPECT().FindByEmail(gomock.Any(), "amina@mail.dz").Return(&domain.Customer{Email: "amina@mail.dz"}, nil)
	c, w := newContext(http.MethodGet, "/api/v1/customers?email=amina@mail.dz", "")
	h.List(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeData(t, w)["total"])

	mockCustomer.EXPECT().List(gomock.Any()).Return([]domain.Customer{{}, {}}, nil)
	c, w = newContext(http.MethodGet, "/api/v1/customers", "")
	h.List(c)
	assert.Equal(t, float64(2), decodeData(t, w)["total"])
}

func TestCustomerSelfService(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCustomer := mocks.NewMockCustomerService(ctrl)
	h := NewCustomerHandler(mockCustomer)

	id := uuid.New()
	mockCustomer.EXPECT().Get(gomock.Any(), id).Return(&domain.Customer{ID: id}, nil)
	mockCustomer.EXPECT().Deposits(gomock.Any(), id).Return([]domain.Deposit{{ID: uuid.New()}}, nil)
	mockCustomer.EXPECT().Summary(gomock.Any(), id).Return(&domain.CustomerSummary{DepositCount: 1}, nil)

	for _, fn := range []gin.HandlerFunc{h.Profile, h.Deposits, h.Summary} {
		c, w := newContext(http.MethodGet, "/", "")
		authenticate(c, domain.RoleCustomer, id.String())
		fn(c)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

// --- Merchant Handler Tests ---

func TestMerchantTransitions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockMerchant := mocks.NewMockMerchantService(ctrl)
	h := NewMerchantHandler(mockMerchant)

	id := uuid.New()
	mockMerchant.EXPECT().Approve(gomock.Any(), gomock.Any(), id).DoAndReturn(
		func(_ context.Context, actor domain.Actor, _ uuid.UUID) (*domain.Merchant, error) {
			assert.Equal(t, domain.RoleAdmin, actor.Role)
			return &domain.Merchant{ID: id, Status: domain.MerchantStatusApproved}, nil
		},
	)
	mockMerchant.EXPECT().Suspend(gomock.Any(), gomock.Any(), id).
		Return(nil, apperror.ErrInvalidState("merchant cannot move from pending to suspended"))
	mockMerchant.EXPECT().Reject(gomock.Any(), gomock.Any(), id).Return(nil, apperror.ErrNotFound("Merchant"))

	run := func(fn gin.HandlerFunc) *httptest.ResponseRecorder {
		c, w := newContext(http.MethodPost, "/", "")
		c.Params = gin.Params{{Key: "id", Value: id.String()}}
		authenticate(c, domain.RoleAdmin, "admin")
		fn(c)
		return w
	}

	w := run(h.Approve)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "approved", decodeData(t, w)["status"])
	assert.Equal(t, http.StatusConflict, run(h.Suspend).Code)
	assert.Equal(t, http.StatusNotFound, run(h.Reject).Code)
}

func TestListMerchants_Filters(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockMerchant := mocks.NewMockMerchantService(ctrl)
	h := NewMerchantHandler(mockMerchant)

	pending := domain.MerchantStatusPending
	mockMerchant.EXPECT().List(gomock.Any(), ports.MerchantListParams{Status: &pending, Search: "cafe"}).
		Return([]domain.Merchant{{Name: "Cafe"}}, nil)

	c, w := newContext(http.MethodGet, "/api/v1/merchants?status=pending&q=cafe", "")
	h.List(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newContext(http.MethodGet, "/api/v1/merchants?status=active", "")
	h.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMerchantProfile(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockMerchant := mocks.NewMockMerchantService(ctrl)
	h := NewMerchantHandler(mockMerchant)

	id := uuid.New()
	mockMerchant.EXPECT().Get(gomock.Any(), id).Return(&domain.Merchant{ID: id, PasswordHash: "$argon2id$x"}, nil)

	c, w := newContext(http.MethodGet, "/api/v1/merchant/profile", "")
	authenticate(c, domain.RoleMerchant, id.String())
	h.Profile(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "argon2id")
}

// --- Admin Handler Tests ---

func newAdminHandler(ctrl *gomock.Controller) (*AdminHandler, *mocks.MockReportingService, *mocks.MockTransactionService, *mocks.MockAuditService, *mocks.MockReconciliationService) {
	reporting := mocks.NewMockReportingService(ctrl)
	tx := mocks.NewMockTransactionService(ctrl)
	audit := mocks.NewMockAuditService(ctrl)
	recon := mocks.NewMockReconciliationService(ctrl)
	return NewAdminHandler(reporting, tx, audit, recon), reporting, tx, audit, recon
}

func TestAdminStats(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, reporting, _, _, _ := newAdminHandler(ctrl)
	reporting.EXPECT().AdminStats(gomock.Any()).Return(&domain.AdminStats{
		ActiveMerchants:   2,
		TotalChangeAmount: dec("16"),
		MonthlyRevenue:    dec("50"),
	}, nil)

	c, w := newContext(http.MethodGet, "/api/v1/admin/stats", "")
	h.Stats(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, float64(2), data["active_merchants"])
	assert.Equal(t, float64(50), data["monthly_revenue"])
}

func TestAdminTransactions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, _, tx, _, _ := newAdminHandler(ctrl)
	merchantID := uuid.New()
	tx.EXPECT().List(gomock.Any(), ports.TransactionListParams{MerchantID: &merchantID}).Return(nil, nil)

	c, w := newContext(http.MethodGet, "/api/v1/admin/transactions?merchant_id="+merchantID.String(), "")
	h.Transactions(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newContext(http.MethodGet, "/api/v1/admin/transactions?merchant_id=42", "")
	h.Transactions(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminAuditLogsAndReconciliation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h, _, _, audit, recon := newAdminHandler(ctrl)
	audit.EXPECT().List(gomock.Any(), 25).Return([]domain.AuditLog{{Action: domain.AuditActionLogin}}, nil)
	recon.EXPECT().Reconcile(gomock.Any()).Return([]domain.BalanceMismatch{{
		CustomerID: uuid.New(), Balance: dec("10"), DepositSum: dec("7.5"), Discrepancy: dec("2.5"),
	}}, nil)

	c, w := newContext(http.MethodGet, "/api/v1/admin/audit-logs?limit=25", "")
	h.AuditLogs(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = newContext(http.MethodGet, "/api/v1/admin/reconciliation", "")
	h.Reconciliation(c)
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, float64(1), data["total"])
	item := data["items"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, 2.5, item["discrepancy"])

	recon.EXPECT().Reconcile(gomock.Any()).Return(nil, apperror.InternalError(errors.New("db down")))
	c, w = newContext(http.MethodGet, "/api/v1/admin/reconciliation", "")
	h.Reconciliation(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealthCheck_ReportsEachDependency(t *testing.T) {
	c, w := newContext(http.MethodGet, "/health", "")
	HealthCheck(
		fakeChecker{name: "postgresql"},
		fakeChecker{name: "redis", err: errors.New("dial tcp: connection refused")},
	)(c)

	var body struct {
		Status       string                      `json:"status"`
		Dependencies map[string]dependencyStatus `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "healthy", body.Dependencies["postgresql"].Status)
	assert.Equal(t, "unhealthy", body.Dependencies["redis"].Status)
	assert.Contains(t, body.Dependencies["redis"].Error, "connection refused")

	c, w = newContext(http.MethodGet, "/health", "")
	HealthCheck()(c)
	assert.Equal(t, http.StatusOK, w.Code, "no dependencies configured")
}

func TestBindJSON_Errors(t *testing.T) {
	r := gin.New()
	r.Use(middleware.MaxBodySize(128))
	r.POST("/customers", func(c *gin.Context) {
		var req dto.RegisterCustomerRequest
		if bindJSON(c, &req) {
			response.OK(c, req)
		}
	})
	send := func(body string) (int, response.ErrorResponse) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/customers", strings.NewReader(body)))
		var resp response.ErrorResponse
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		return w.Code, resp
	}

	code, resp := send(`{"name":"Amina","email":"a@mail.dz","phone":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VAL_001", resp.ErrorCode)
	assert.Equal(t, "phone must be a phone number", resp.Message)

	code, resp = send(`{"name":`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Message, "malformed request body")

	code, resp = send(`{"name":"` + strings.Repeat("A", 200) + `"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, code)
	assert.Equal(t, "VAL_004", resp.ErrorCode)

	code, _ = send(`{"name":" <b>Amina</b> ","email":"a@mail.dz","phone":"0661000000"}`)
	assert.Equal(t, http.StatusOK, code)
}
