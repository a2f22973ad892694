package models

import "time"

// Audit actions recorded for wallet mutations.
const (
	AuditActionDeposit  = "DEPOSIT"
	AuditActionWithdraw = "WITHDRAW"
	AuditActionAdjust   = "ADJUST"
)

// AuditLog records a financial action with before/after balances for reconciliation.
type AuditLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"index;not null" json:"user_id"`
	Action        string    `gorm:"size:32;not null" json:"action"`
	Amount        int64     `gorm:"not null" json:"amount"`
	ReferenceID   string    `gorm:"size:128" json:"reference_id"`
	BeforeBalance int64     `json:"before_balance"`
	AfterBalance  int64     `json:"after_balance"`
	Metadata      string    `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
