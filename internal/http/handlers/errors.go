package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sms-campaigns/backend/internal/http/dto"
	"github.com/sms-campaigns/backend/internal/middleware"
	"github.com/sms-campaigns/backend/internal/services"
	"github.com/sms-campaigns/backend/internal/webhook"
	"go.uber.org/zap"
)

// statusFor maps a domain error to an HTTP status. 0 means unexpected.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrAccountNotFound),
		errors.Is(err, services.ErrCampaignNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrInsufficientFunds):
		return fiber.StatusPaymentRequired
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrMissingReference),
		errors.Is(err, services.ErrInvalidCampaign),
		errors.Is(err, webhook.ErrSignatureInvalid),
		errors.Is(err, webhook.ErrMalformedEvent):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrAlreadySubmitted),
		errors.Is(err, services.ErrCampaignAlreadyPaid):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrTemplateNotApproved):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, services.ErrGatewayUnavailable),
		errors.Is(err, services.ErrTemplateUnavailable):
		return fiber.StatusServiceUnavailable
	}
	return 0
}

func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	reqID := middleware.GetRequestID(c)
	status := statusFor(err)
	if status == 0 {
		log.Error("request failed", zap.String("request_id", reqID), zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error", RequestID: reqID})
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: err.Error(), RequestID: reqID})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: msg, RequestID: middleware.GetRequestID(c)})
}
