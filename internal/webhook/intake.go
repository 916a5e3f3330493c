package webhook

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sms-campaigns/backend/internal/events"
	"github.com/sms-campaigns/backend/internal/metrics"
	"github.com/sms-campaigns/backend/internal/services"
	"go.uber.org/zap"
)

type Outcome string

const (
	OutcomeCredited  Outcome = "credited"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
)

// Crediter is the slice of the balance service the intake drives.
type Crediter interface {
	Credit(ctx context.Context, accountID uuid.UUID, amount int64, ref, description string) (*services.LedgerResult, error)
}

type Intake struct {
	verifier  *Verifier
	seen      SeenSet
	ledger    Crediter
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       *zap.Logger
}

func NewIntake(verifier *Verifier, seen SeenSet, ledger Crediter, publisher events.Publisher, m *metrics.Metrics, log *zap.Logger) *Intake {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Intake{verifier: verifier, seen: seen, ledger: ledger, publisher: publisher, metrics: m, log: log}
}

// Handle verifies and applies one delivery. A duplicate is a success: the
// gateway retries until it gets one.
func (in *Intake) Handle(ctx context.Context, signature string, body []byte) (Outcome, error) {
	if err := in.verifier.Verify(signature, body); err != nil {
		in.metrics.WebhookEvent("invalid_signature")
		return "", err
	}

	event, err := ParseEvent(body)
	if err != nil {
		in.metrics.WebhookEvent("malformed")
		return "", err
	}
	topUp, err := event.TopUp()
	if err != nil {
		in.metrics.WebhookEvent("malformed")
		return "", err
	}
	if topUp == nil {
		in.log.Debug("webhook event ignored", zap.String("event_id", event.ID), zap.String("type", event.Type))
		in.metrics.WebhookEvent(string(OutcomeIgnored))
		return OutcomeIgnored, nil
	}

	if in.seen != nil {
		seen, err := in.seen.Seen(ctx, topUp.Reference)
		if err != nil {
			in.log.Warn("webhook seen-set lookup failed", zap.Error(err))
		} else if seen {
			in.metrics.WebhookEvent(string(OutcomeDuplicate))
			return OutcomeDuplicate, nil
		}
	}

	outcome := OutcomeCredited
	res, err := in.ledger.Credit(ctx, topUp.AccountID, topUp.Amount, topUp.Reference, "top-up "+event.ID)
	switch {
	case errors.Is(err, services.ErrAlreadyProcessed):
		outcome = OutcomeDuplicate
	case err != nil:
		in.metrics.WebhookEvent("error")
		in.log.Error("webhook credit failed",
			zap.String("event_id", event.ID),
			zap.String("account_id", topUp.AccountID.String()),
			zap.Error(err),
		)
		return "", err
	}

	// mark only after the ledger accepted it, so a crash before commit is retried
	if in.seen != nil {
		if err := in.seen.Mark(ctx, topUp.Reference); err != nil {
			in.log.Warn("webhook seen-set mark failed", zap.Error(err))
		}
	}

	in.metrics.WebhookEvent(string(outcome))
	if outcome == OutcomeCredited {
		in.log.Info("account topped up",
			zap.String("event_id", event.ID),
			zap.String("account_id", topUp.AccountID.String()),
			zap.Int64("amount", topUp.Amount),
		)
		_ = in.publisher.Publish(ctx, events.StreamAccounts, events.Event{
			Type:      events.EventPaymentReceived,
			AccountID: topUp.AccountID.String(),
			Payload: map[string]any{
				"amount":    topUp.Amount,
				"currency":  topUp.Currency,
				"reference": topUp.Reference,
				"entry_id":  res.Entry.ID.String(),
			},
		})
	}
	return outcome, nil
}
