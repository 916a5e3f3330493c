package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

// BalanceResponse reports the balance in minor units and as a fixed-point
// major-unit string for display.
type BalanceResponse struct {
	AccountID uuid.UUID `json:"account_id"`
	Balance   int64     `json:"balance"`
	Display   string    `json:"display"`
}

func NewBalanceResponse(accountID uuid.UUID, balance int64) BalanceResponse {
	return BalanceResponse{
		AccountID: accountID,
		Balance:   balance,
		Display:   FormatMinorUnits(balance),
	}
}

// FormatMinorUnits renders cents as "12.34".
func FormatMinorUnits(amount int64) string {
	return decimal.New(amount, -2).StringFixed(2)
}

type MeResponse struct {
	AccountID uuid.UUID `json:"account_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Balance   int64     `json:"balance"`
	Display   string    `json:"display"`
	CreatedAt time.Time `json:"created_at"`
}

type WebhookResponse struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome,omitempty"`
}
