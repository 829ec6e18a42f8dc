package handler

import (
	"change-aggregator/internal/core/ports"
	"change-aggregator/pkg/apperror"
	"change-aggregator/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler handles the admin dashboard endpoints.
type AdminHandler struct {
	reportingSvc ports.ReportingService
	txSvc        ports.TransactionService
	auditSvc     ports.AuditService
	reconSvc     ports.ReconciliationService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	reportingSvc ports.ReportingService,
	txSvc ports.TransactionService,
	auditSvc ports.AuditService,
	reconSvc ports.ReconciliationService,
) *AdminHandler {
	return &AdminHandler{
		reportingSvc: reportingSvc,
		txSvc:        txSvc,
		auditSvc:     auditSvc,
		reconSvc:     reconSvc,
	}
}

// Stats handles GET /api/v1/admin/stats.
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.reportingSvc.AdminStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, stats)
}

// Transactions handles GET /api/v1/admin/transactions[?merchant_id=&status=&limit=].
func (h *AdminHandler) Transactions(c *gin.Context) {
	params, ok := transactionParams(c)
	if !ok {
		return
	}
	if raw := c.Query("merchant_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Error(c, apperror.Validation("merchant_id must be a UUID"))
			return
		}
		params.MerchantID = &id
	}

	items, err := h.txSvc.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, items, len(items))
}

// AuditLogs handles GET /api/v1/admin/audit-logs[?limit=].
func (h *AdminHandler) AuditLogs(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}

	items, err := h.auditSvc.List(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, items, len(items))
}

// Reconciliation handles GET /api/v1/admin/reconciliation. An empty list
// means every balance matches its deposit history.
func (h *AdminHandler) Reconciliation(c *gin.Context) {
	mismatches, err := h.reconSvc.Reconcile(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, mismatches, len(mismatches))
}
