package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrMalformedEvent = errors.New("webhook: malformed event")

// Event types that can carry a top-up.
const (
	TypeCheckoutCompleted = "checkout.session.completed"
	TypePaymentCompleted  = "payment.completed"
)

const (
	statusPaid   = "paid"
	purposeTopUp = "topup"
)

var maxAmount = decimal.NewFromInt(math.MaxInt64)

type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object PaymentObject `json:"object"`
	} `json:"data"`
}

type PaymentObject struct {
	ID            string            `json:"id"`
	PaymentStatus string            `json:"payment_status"`
	AmountTotal   decimal.Decimal   `json:"amount_total"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata"`
}

// TopUp is a paid top-up extracted from an event.
type TopUp struct {
	Reference string
	AccountID uuid.UUID
	Amount    int64
	Currency  string
}

func ParseEvent(body []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if e.ID == "" || e.Type == "" {
		return nil, fmt.Errorf("%w: missing id or type", ErrMalformedEvent)
	}
	return &e, nil
}

// TopUp returns (nil, nil) for events that are not paid top-ups.
func (e *Event) TopUp() (*TopUp, error) {
	if e.Type != TypeCheckoutCompleted && e.Type != TypePaymentCompleted {
		return nil, nil
	}
	obj := e.Data.Object
	if obj.PaymentStatus != statusPaid || obj.Metadata["purpose"] != purposeTopUp {
		return nil, nil
	}

	accountID, err := uuid.Parse(obj.Metadata["account_id"])
	if err != nil {
		return nil, fmt.Errorf("%w: bad account_id", ErrMalformedEvent)
	}

	amount := obj.AmountTotal
	if !amount.IsPositive() || !amount.Equal(amount.Truncate(0)) || amount.GreaterThan(maxAmount) {
		return nil, fmt.Errorf("%w: amount %s is not a positive whole number of minor units", ErrMalformedEvent, amount)
	}

	ref := obj.ID
	if ref == "" {
		ref = e.ID
	}
	return &TopUp{
		Reference: "payment:" + ref,
		AccountID: accountID,
		Amount:    amount.IntPart(),
		Currency:  obj.Currency,
	}, nil
}
