package handler

import (
	"change-aggregator/internal/adapter/http/dto"
	"change-aggregator/internal/adapter/http/middleware"
	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports"
	"change-aggregator/pkg/apperror"
	"change-aggregator/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderIdempotencyKey lets a merchant retry a disposition safely.
const HeaderIdempotencyKey = "Idempotency-Key"

// TransactionHandler handles the merchant's sale and disposition endpoints.
type TransactionHandler struct {
	txSvc   ports.TransactionService
	dispSvc ports.DispositionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(txSvc ports.TransactionService, dispSvc ports.DispositionService) *TransactionHandler {
	return &TransactionHandler{txSvc: txSvc, dispSvc: dispSvc}
}

// Start handles POST /api/v1/transactions.
func (h *TransactionHandler) Start(c *gin.Context) {
	merchantID, ok := subjectID(c)
	if !ok {
		return
	}

	var req dto.StartTransactionRequest
	if !bindJSON(c, &req) {
		return
	}

	tx, err := h.txSvc.Start(c.Request.Context(), merchantID, string(req.Amount), string(req.Paid))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, tx)
}

// Current handles GET /api/v1/transactions/current.
func (h *TransactionHandler) Current(c *gin.Context) {
	merchantID, ok := subjectID(c)
	if !ok {
		return
	}

	tx, err := h.txSvc.Current(c.Request.Context(), merchantID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, tx)
}

// Reset handles DELETE /api/v1/transactions/current.
func (h *TransactionHandler) Reset(c *gin.Context) {
	merchantID, ok := subjectID(c)
	if !ok {
		return
	}

	if err := h.txSvc.Reset(c.Request.Context(), merchantID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.SuccessResponse{Success: true})
}

// Resolve handles POST /api/v1/transactions/current/disposition.
func (h *TransactionHandler) Resolve(c *gin.Context) {
	merchantID, ok := subjectID(c)
	if !ok {
		return
	}

	var req dto.DispositionRequest
	if !bindJSON(c, &req) {
		return
	}

	in := ports.DispositionRequest{
		MerchantID:     merchantID,
		Disposition:    req.Disposition,
		CCP:            req.CCP,
		CardInfo:       req.CardInfo,
		Actor:          middleware.ActorFrom(c),
		IdempotencyKey: c.GetHeader(HeaderIdempotencyKey),
	}
	if req.Customer != nil {
		ref, err := toCustomerRef(req.Customer)
		if err != nil {
			response.Error(c, err)
			return
		}
		in.Customer = ref
	}

	result, err := h.dispSvc.Resolve(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, result)
}

// List handles GET /api/v1/transactions (the merchant's own log).
func (h *TransactionHandler) List(c *gin.Context) {
	merchantID, ok := subjectID(c)
	if !ok {
		return
	}

	params, ok := transactionParams(c)
	if !ok {
		return
	}
	params.MerchantID = &merchantID

	items, err := h.txSvc.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, items, len(items))
}

func toCustomerRef(in *dto.CustomerRefRequest) (*ports.CustomerRef, error) {
	ref := &ports.CustomerRef{
		Email: in.Email,
		Name:  in.Name,
		Phone: in.Phone,
		New:   in.New,
	}
	if in.ID != nil && *in.ID != "" {
		id, err := uuid.Parse(*in.ID)
		if err != nil {
			return nil, apperror.Validation("customer id must be a UUID")
		}
		ref.ID = &id
	}
	return ref, nil
}

// transactionParams reads the ?status= and ?limit= filters shared by the
// merchant and admin transaction listings.
func transactionParams(c *gin.Context) (ports.TransactionListParams, bool) {
	var params ports.TransactionListParams

	if s := c.Query("status"); s != "" {
		status, ok := domain.ParseTransactionStatus(s)
		if !ok {
			response.Error(c, apperror.Validation("status must be one of pending, completed, cancelled"))
			return params, false
		}
		params.Status = &status
	}

	limit, ok := queryLimit(c)
	if !ok {
		return params, false
	}
	params.Limit = limit
	return params, true
}
