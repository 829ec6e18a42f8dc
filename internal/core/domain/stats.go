package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AdminStats is the platform overview on the admin dashboard.
type AdminStats struct {
	TotalMerchants      int             `json:"total_merchants"`
	ActiveMerchants     int             `json:"active_merchants"`
	PendingMerchants    int             `json:"pending_merchants"`
	TotalCustomers      int             `json:"total_customers"`
	TotalTransactions   int             `json:"total_transactions"`
	PendingTransactions int             `json:"pending_transactions"`
	TotalChangeAmount   decimal.Decimal `json:"total_change_amount"`
	MonthlyRevenue      decimal.Decimal `json:"monthly_revenue"`
	PendingPayouts      int             `json:"pending_payouts"`
}

// BalanceMismatch is a customer whose balance disagrees with their deposit history.
type BalanceMismatch struct {
	CustomerID  uuid.UUID       `json:"customer_id"`
	Balance     decimal.Decimal `json:"balance"`
	DepositSum  decimal.Decimal `json:"deposit_sum"`
	Discrepancy decimal.Decimal `json:"discrepancy"`
}
