package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionMerchantSignup   AuditAction = "MERCHANT_SIGNUP"
	AuditActionLogin            AuditAction = "LOGIN"
	AuditActionCustomerRegister AuditAction = "CUSTOMER_REGISTER"
	AuditActionDisposition      AuditAction = "DISPOSITION"
	AuditActionDeposit          AuditAction = "DEPOSIT"
	AuditActionBalanceCredit    AuditAction = "BALANCE_CREDIT"
	AuditActionCustomerDelete   AuditAction = "CUSTOMER_DELETE"
	AuditActionPayoutRequest    AuditAction = "PAYOUT_REQUEST"
	AuditActionPayoutStatus     AuditAction = "PAYOUT_STATUS"
	AuditActionMerchantStatus   AuditAction = "MERCHANT_STATUS"
)

// AuditLog records a single audited action in the system.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	ActorRole    Role        `json:"actor_role"`
	ActorID      string      `json:"actor_id"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}

// NewAuditLog stamps an entry for actor.
func NewAuditLog(actor Actor, action AuditAction, resourceType, resourceID, details string, now time.Time) *AuditLog {
	return &AuditLog{
		ID:           uuid.New(),
		ActorRole:    actor.Role,
		ActorID:      actor.ID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
		IPAddress:    actor.IP,
		CreatedAt:    now,
	}
}
