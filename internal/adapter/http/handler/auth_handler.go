package handler

import (
	"change-aggregator/internal/adapter/http/dto"
	"change-aggregator/internal/core/ports"
	"change-aggregator/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles sign-up and login for all three roles.
type AuthHandler struct {
	authSvc ports.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authSvc ports.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// SignupMerchant handles POST /api/v1/auth/merchants/signup.
func (h *AuthHandler) SignupMerchant(c *gin.Context) {
	var req dto.MerchantSignupRequest
	if !bindJSON(c, &req) {
		return
	}

	merchant, err := h.authSvc.SignupMerchant(c.Request.Context(), ports.MerchantSignupRequest{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Address:         req.Address,
		BusinessType:    req.BusinessType,
		BusinessLicense: req.BusinessLicense,
		Password:        req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, merchant)
}

// LoginMerchant handles POST /api/v1/auth/merchants/login.
func (h *AuthHandler) LoginMerchant(c *gin.Context) {
	var req dto.MerchantLoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authSvc.LoginMerchant(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toLoginResponse(result))
}

// LoginCustomer handles POST /api/v1/auth/customers/login.
func (h *AuthHandler) LoginCustomer(c *gin.Context) {
	var req dto.CustomerLoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authSvc.LoginCustomer(c.Request.Context(), req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toLoginResponse(result))
}

// LoginAdmin handles POST /api/v1/auth/admin/login.
func (h *AuthHandler) LoginAdmin(c *gin.Context) {
	var req dto.AdminLoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authSvc.LoginAdmin(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toLoginResponse(result))
}

func toLoginResponse(r *ports.LoginResult) dto.LoginResponse {
	return dto.LoginResponse{
		Token:    r.Token,
		Expiry:   r.ExpiresAt.Unix(),
		Role:     r.Role,
		Merchant: r.Merchant,
		Customer: r.Customer,
	}
}
