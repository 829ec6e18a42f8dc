package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports"
	"change-aggregator/pkg/response"

	"github.com/gin-gonic/gin"
)

type auditedRoute struct {
	action   domain.AuditAction
	resource string
	role     domain.Role
}

// auditedRoutes lists the requests that have no unit of work of their own.
// Mutations that run inside a transaction audit themselves in the service
// layer. Keys are the method and the matched route pattern.
var auditedRoutes = map[string]auditedRoute{
	"POST /api/v1/auth/merchants/signup": {domain.AuditActionMerchantSignup, "merchant", domain.RoleMerchant},
	"POST /api/v1/auth/merchants/login":  {domain.AuditActionLogin, "session", domain.RoleMerchant},
	"POST /api/v1/auth/customers/login":  {domain.AuditActionLogin, "session", domain.RoleCustomer},
	"POST /api/v1/auth/admin/login":      {domain.AuditActionLogin, "session", domain.RoleAdmin},
	"POST /api/v1/customers":             {domain.AuditActionCustomerRegister, "customer", domain.RoleCustomer},
}

// AuditLog records the listed routes once they succeed. The actor comes from
// the token when there is one, otherwise from the route's role.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route, ok := auditedRoutes[c.Request.Method+" "+c.FullPath()]
		if !ok {
			return
		}
		status := c.Writer.Status()
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			return
		}

		actor := ActorFrom(c)
		if actor.Role == "" {
			actor.Role = route.role
		}

		details, _ := json.Marshal(map[string]any{
			"status":     status,
			"request_id": c.GetString(response.RequestIDKey),
		})
		auditSvc.Log(c.Request.Context(), domain.NewAuditLog(
			actor, route.action, route.resource, "", string(details), time.Now().UTC(),
		))
	}
}
