package models

import "time"

// Wallet holds a user's coin balance. The balance never goes negative;
// mutations happen inside a single database transaction with the ledger rows.
type Wallet struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	CoinsBalance int64     `gorm:"not null;default:0" json:"coins_balance"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CoinTransaction is one ledger entry for a wallet mutation.
type CoinTransaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Amount    int64     `gorm:"not null" json:"amount"` // positive for credit, negative for debit
	Kind      string    `gorm:"size:32;not null" json:"kind"`
	Reference string    `gorm:"size:128;index" json:"reference"` // external reference, e.g. payment id
	CreatedAt time.Time `json:"created_at"`
}
