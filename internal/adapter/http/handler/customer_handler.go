package handler

import (
	"change-aggregator/internal/adapter/http/dto"
	"change-aggregator/internal/adapter/http/middleware"
	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports"
	"change-aggregator/pkg/response"

	"github.com/gin-gonic/gin"
)

// CustomerHandler handles customer registration, the admin customer views
// and the customer's own account pages.
type CustomerHandler struct {
	customerSvc ports.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(customerSvc ports.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerSvc: customerSvc}
}

// Register handles POST /api/v1/customers.
func (h *CustomerHandler) Register(c *gin.Context) {
	var req dto.RegisterCustomerRequest
	if !bindJSON(c, &req) {
		return
	}

	customer, err := h.customerSvc.Register(c.Request.Context(), middleware.ActorFrom(c), ports.RegisterCustomerRequest{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, customer)
}

// List handles GET /api/v1/customers[?email=].
func (h *CustomerHandler) List(c *gin.Context) {
	if email := c.Query("email"); email != "" {
		customer, err := h.customerSvc.FindByEmail(c.Request.Context(), email)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.List(c, []domain.Customer{*customer}, 1)
		return
	}

	items, err := h.customerSvc.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, items, len(items))
}

// Get handles GET /api/v1/customers/:id.
func (h *CustomerHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "Customer")
	if !ok {
		return
	}

	customer, err := h.customerSvc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, customer)
}

// CreditBalance handles PATCH /api/v1/customers/:id/balance.
func (h *CustomerHandler) CreditBalance(c *gin.Context) {
	id, ok := pathID(c, "Customer")
	if !ok {
		return
	}

	var req dto.CreditBalanceRequest
	if !bindJSON(c, &req) {
		return
	}

	customer, err := h.customerSvc.CreditBalance(c.Request.Context(), middleware.ActorFrom(c), id, string(req.Amount))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, customer)
}

// Delete handles DELETE /api/v1/customers/:id.
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "Customer")
	if !ok {
		return
	}

	if err := h.customerSvc.Delete(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.SuccessResponse{Success: true})
}

// Profile handles GET /api/v1/customer/profile.
func (h *CustomerHandler) Profile(c *gin.Context) {
	id, ok := subjectID(c)
	if !ok {
		return
	}

	customer, err := h.customerSvc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, customer)
}

// Deposits handles GET /api/v1/customer/deposits.
func (h *CustomerHandler) Deposits(c *gin.Context) {
	id, ok := subjectID(c)
	if !ok {
		return
	}

	items, err := h.customerSvc.Deposits(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, items, len(items))
}

// Summary handles GET /api/v1/customer/summary.
func (h *CustomerHandler) Summary(c *gin.Context) {
	id, ok := subjectID(c)
	if !ok {
		return
	}

	summary, err := h.customerSvc.Summary(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, summary)
}
