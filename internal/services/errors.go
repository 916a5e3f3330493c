package services

import (
	"errors"
	"fmt"

	"github.com/sms-campaigns/backend/internal/models"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be a positive integer")
	ErrMissingReference  = errors.New("external reference is required")

	// ErrAlreadyProcessed marks an idempotent replay. It is returned together
	// with a populated result and callers treat it as success.
	ErrAlreadyProcessed = errors.New("already processed")

	ErrCampaignNotFound    = errors.New("campaign not found")
	ErrInvalidTransition   = errors.New("invalid campaign transition")
	ErrTemplateNotApproved = errors.New("template is not approved")
	ErrAlreadySubmitted    = errors.New("campaign is already registered with the messaging gateway")
	ErrCampaignAlreadyPaid = errors.New("campaign has already been charged")
	ErrInvalidCampaign     = errors.New("invalid campaign")
	ErrGatewayUnavailable  = errors.New("messaging gateway unavailable")
	ErrTemplateUnavailable = errors.New("template service unavailable")
)

// TransitionError describes a trigger that cannot fire from the campaign's
// current status. It matches ErrInvalidTransition with errors.Is.
type TransitionError struct {
	Trigger string
	From    models.CampaignStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s campaign in status %s", e.Trigger, e.From)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
