package handler

import (
	"change-aggregator/internal/adapter/http/middleware"
	"change-aggregator/internal/adapter/metrics"
	"change-aggregator/internal/core/domain"
	"change-aggregator/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	TransactionSvc ports.TransactionService
	DispositionSvc ports.DispositionService
	PayoutSvc      ports.PayoutService
	CustomerSvc    ports.CustomerService
	MerchantSvc    ports.MerchantService
	ReportingSvc   ports.ReportingService
	ReconcileSvc   ports.ReconciliationService
	AuditSvc       ports.AuditService
	TokenSvc       ports.TokenService
	RateLimitStore ports.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(metrics.Middleware())
	r.Use(middleware.MaxBodySize(middleware.DefaultMaxBodyBytes))

	// Audit logging (after response)
	r.Use(middleware.AuditLog(deps.AuditSvc))

	health := HealthCheck(deps.HealthCheckers...)
	r.GET("/health", health)
	r.GET("/metrics", metrics.Handler())

	rl := middleware.RateLimits(deps.RateLimitStore, middleware.DefaultRateLimitPolicy(), deps.Logger)

	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	asMerchant := middleware.RequireRole(domain.RoleMerchant)
	asCustomer := middleware.RequireRole(domain.RoleCustomer)
	asAdmin := middleware.RequireRole(domain.RoleAdmin)

	authHandler := NewAuthHandler(deps.AuthSvc)
	txHandler := NewTransactionHandler(deps.TransactionSvc, deps.DispositionSvc)
	payoutHandler := NewPayoutHandler(deps.PayoutSvc)
	customerHandler := NewCustomerHandler(deps.CustomerSvc)
	merchantHandler := NewMerchantHandler(deps.MerchantSvc)
	adminHandler := NewAdminHandler(deps.ReportingSvc, deps.TransactionSvc, deps.AuditSvc, deps.ReconcileSvc)

	v1 := r.Group("/api/v1")
	v1.GET("/health", health)

	// --- Public routes (no auth) ---
	auth := v1.Group("/auth")
	{
		auth.POST("/merchants/signup", rl(middleware.GroupSignup), authHandler.SignupMerchant)
		auth.POST("/merchants/login", rl(middleware.GroupLogin), authHandler.LoginMerchant)
		auth.POST("/customers/login", rl(middleware.GroupLogin), authHandler.LoginCustomer)
		auth.POST("/admin/login", rl(middleware.GroupLogin), authHandler.LoginAdmin)
	}
	v1.POST("/customers", rl(middleware.GroupCustomerRegister), customerHandler.Register)

	// --- Merchant routes ---
	v1.GET("/merchant/profile", jwtAuth, asMerchant, merchantHandler.Profile)

	transactions := v1.Group("/transactions", jwtAuth, asMerchant, rl(middleware.GroupTransactions))
	{
		transactions.POST("", txHandler.Start)
		transactions.GET("", txHandler.List)
		transactions.GET("/current", txHandler.Current)
		transactions.DELETE("/current", txHandler.Reset)
		transactions.POST("/current/disposition", txHandler.Resolve)
	}

	payouts := v1.Group("/payout-requests", jwtAuth)
	{
		payouts.POST("", asMerchant, rl(middleware.GroupPayouts), payoutHandler.Create)
		payouts.GET("", asAdmin, payoutHandler.List)
		payouts.GET("/pending", asAdmin, payoutHandler.ListPending)
		payouts.GET("/:id", asAdmin, payoutHandler.Get)
		payouts.PATCH("/:id", asAdmin, payoutHandler.UpdateStatus)
	}

	// --- Customer routes ---
	self := v1.Group("/customer", jwtAuth, asCustomer)
	{
		self.GET("/profile", customerHandler.Profile)
		self.GET("/deposits", customerHandler.Deposits)
		self.GET("/summary", customerHandler.Summary)
	}

	// --- Admin routes ---
	customers := v1.Group("/customers", jwtAuth, asAdmin)
	{
		customers.GET("", customerHandler.List)
		customers.GET("/:id", customerHandler.Get)
		customers.PATCH("/:id/balance", customerHandler.CreditBalance)
		customers.DELETE("/:id", customerHandler.Delete)
	}

	merchants := v1.Group("/merchants", jwtAuth, asAdmin)
	{
		merchants.GET("", merchantHandler.List)
		merchants.GET("/:id", merchantHandler.Get)
		merchants.POST("/:id/approve", merchantHandler.Approve)
		merchants.POST("/:id/reject", merchantHandler.Reject)
		merchants.POST("/:id/suspend", merchantHandler.Suspend)
	}

	admin := v1.Group("/admin", jwtAuth, asAdmin)
	{
		admin.GET("/stats", adminHandler.Stats)
		admin.GET("/transactions", adminHandler.Transactions)
		admin.GET("/audit-logs", adminHandler.AuditLogs)
		admin.GET("/reconciliation", adminHandler.Reconciliation)
	}

	return r
}
