package handler

import (
	"context"

	"change-aggregator/internal/adapter/http/middleware"
	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports"
	"change-aggregator/pkg/apperror"
	"change-aggregator/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MerchantHandler handles the merchant profile and admin onboarding endpoints.
type MerchantHandler struct {
	merchantSvc ports.MerchantService
}

// NewMerchantHandler creates a new merchant handler.
func NewMerchantHandler(merchantSvc ports.MerchantService) *MerchantHandler {
	return &MerchantHandler{merchantSvc: merchantSvc}
}

// Profile returns the authenticated merchant's own record.
func (h *MerchantHandler) Profile(c *gin.Context) {
	merchantID, ok := subjectID(c)
	if !ok {
		return
	}

	merchant, err := h.merchantSvc.Get(c.Request.Context(), merchantID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, merchant)
}

// List handles GET /api/v1/merchants[?status=&q=].
func (h *MerchantHandler) List(c *gin.Context) {
	params := ports.MerchantListParams{Search: c.Query("q")}
	if s := c.Query("status"); s != "" {
		status, ok := domain.ParseMerchantStatus(s)
		if !ok {
			response.Error(c, apperror.Validation("status must be one of pending, approved, rejected, suspended"))
			return
		}
		params.Status = &status
	}

	items, err := h.merchantSvc.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, items, len(items))
}

// Get handles GET /api/v1/merchants/:id.
func (h *MerchantHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "Merchant")
	if !ok {
		return
	}

	merchant, err := h.merchantSvc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, merchant)
}

// Approve handles POST /api/v1/merchants/:id/approve.
func (h *MerchantHandler) Approve(c *gin.Context) {
	h.transition(c, h.merchantSvc.Approve)
}

// Reject handles POST /api/v1/merchants/:id/reject.
func (h *MerchantHandler) Reject(c *gin.Context) {
	h.transition(c, h.merchantSvc.Reject)
}

// Suspend handles POST /api/v1/merchants/:id/suspend.
func (h *MerchantHandler) Suspend(c *gin.Context) {
	h.transition(c, h.merchantSvc.Suspend)
}

type merchantTransition func(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Merchant, error)

func (h *MerchantHandler) transition(c *gin.Context, apply merchantTransition) {
	id, ok := pathID(c, "Merchant")
	if !ok {
		return
	}

	merchant, err := apply(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, merchant)
}
