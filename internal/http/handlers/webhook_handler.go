package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sms-campaigns/backend/internal/http/dto"
	"github.com/sms-campaigns/backend/internal/webhook"
	"go.uber.org/zap"
)

type WebhookHandler struct {
	intake *webhook.Intake
	log    *zap.Logger
}

func NewWebhookHandler(intake *webhook.Intake, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{intake: intake, log: log}
}

// PaymentWebhook acknowledges duplicates and ignored events with 200 so the
// gateway stops retrying them.
// POST /webhooks/payments
func (h *WebhookHandler) PaymentWebhook(c *fiber.Ctx) error {
	// fiber reuses the body buffer after the handler returns
	body := append([]byte(nil), c.Body()...)

	outcome, err := h.intake.Handle(c.UserContext(), c.Get(webhook.SignatureHeader), body)
	if err != nil {
		if statusFor(err) == fiber.StatusBadRequest {
			h.log.Warn("payment webhook rejected", zap.Error(err))
		}
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.WebhookResponse{Received: true, Outcome: string(outcome)})
}
