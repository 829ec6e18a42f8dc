package handler

import (
	"change-aggregator/internal/adapter/http/dto"
	"change-aggregator/internal/adapter/http/middleware"
	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports"
	"change-aggregator/pkg/apperror"
	"change-aggregator/pkg/response"

	"github.com/gin-gonic/gin"
)

// PayoutHandler handles payout requests and the admin decision on them.
type PayoutHandler struct {
	payoutSvc ports.PayoutService
}

// NewPayoutHandler creates a new PayoutHandler.
func NewPayoutHandler(payoutSvc ports.PayoutService) *PayoutHandler {
	return &PayoutHandler{payoutSvc: payoutSvc}
}

// Create handles POST /api/v1/payout-requests. The merchant comes from the token.
func (h *PayoutHandler) Create(c *gin.Context) {
	merchantID, ok := subjectID(c)
	if !ok {
		return
	}

	var req dto.CreatePayoutRequest
	if !bindJSON(c, &req) {
		return
	}

	payout, err := h.payoutSvc.Create(c.Request.Context(), middleware.ActorFrom(c), ports.CreatePayoutRequest{
		CCP:        req.CCP,
		CardInfo:   req.CardInfo,
		Amount:     string(req.Amount),
		MerchantID: &merchantID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, payout)
}

// List handles GET /api/v1/payout-requests[?status=].
func (h *PayoutHandler) List(c *gin.Context) {
	var status *domain.PayoutStatus
	if s := c.Query("status"); s != "" {
		st, ok := domain.ParsePayoutStatus(s)
		if !ok {
			response.Error(c, apperror.Validation("status must be one of pending, paid, not_paid"))
			return
		}
		status = &st
	}

	items, err := h.payoutSvc.List(c.Request.Context(), status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, items, len(items))
}

// ListPending handles GET /api/v1/payout-requests/pending.
func (h *PayoutHandler) ListPending(c *gin.Context) {
	items, err := h.payoutSvc.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, items, len(items))
}

// Get handles GET /api/v1/payout-requests/:id.
func (h *PayoutHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "Payout request")
	if !ok {
		return
	}

	payout, err := h.payoutSvc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, payout)
}

// UpdateStatus handles PATCH /api/v1/payout-requests/:id.
func (h *PayoutHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "Payout request")
	if !ok {
		return
	}

	var req dto.UpdatePayoutStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	payout, err := h.payoutSvc.UpdateStatus(c.Request.Context(), middleware.ActorFrom(c), id, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, payout)
}
