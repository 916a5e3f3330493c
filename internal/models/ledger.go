package models

import (
	"time"

	"github.com/google/uuid"
)

type Account struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Balance   int64     `json:"balance"` // smallest currency unit
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ledger entry kinds
const (
	EntryKindCharge = "charge" // top-up from the payment gateway
	EntryKindUsage  = "usage"  // campaign send
	EntryKindRefund = "refund"
)

// LedgerEntry is immutable once written. Amount is signed: usage entries are
// negative. ExternalRef is unique across the ledger.
type LedgerEntry struct {
	ID           uuid.UUID `json:"id"`
	AccountID    uuid.UUID `json:"account_id"`
	Kind         string    `json:"kind"`
	Amount       int64     `json:"amount"`
	BalanceAfter int64     `json:"balance_after"`
	Description  string    `json:"description"`
	ExternalRef  *string   `json:"external_ref,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
