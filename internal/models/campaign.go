package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CampaignStatus is the lifecycle state of a campaign. The underlying value is
// the ordered status code persisted in campaigns.status_code; the name is
// derived from it, so the two can never disagree.
type CampaignStatus int16

// Codes have gaps so intermediate states can be added without renumbering.
const (
	CampaignStatusDraft             CampaignStatus = 0
	CampaignStatusApprovalRequested CampaignStatus = 10
	CampaignStatusApproved          CampaignStatus = 11
	CampaignStatusRejected          CampaignStatus = 17
	CampaignStatusSendReady         CampaignStatus = 20
	CampaignStatusCancelled         CampaignStatus = 25
	CampaignStatusRunning           CampaignStatus = 30
	CampaignStatusStopped           CampaignStatus = 35
	CampaignStatusCompleted         CampaignStatus = 40
)

var campaignStatusNames = map[CampaignStatus]string{
	CampaignStatusDraft:             "draft",
	CampaignStatusApprovalRequested: "approval_requested",
	CampaignStatusApproved:          "approved",
	CampaignStatusRejected:          "rejected",
	CampaignStatusSendReady:         "send_ready",
	CampaignStatusCancelled:         "cancelled",
	CampaignStatusRunning:           "running",
	CampaignStatusStopped:           "stopped",
	CampaignStatusCompleted:         "completed",
}

// AllCampaignStatuses lists every status in code order.
var AllCampaignStatuses = []CampaignStatus{
	CampaignStatusDraft,
	CampaignStatusApprovalRequested,
	CampaignStatusApproved,
	CampaignStatusRejected,
	CampaignStatusSendReady,
	CampaignStatusCancelled,
	CampaignStatusRunning,
	CampaignStatusStopped,
	CampaignStatusCompleted,
}

func (s CampaignStatus) String() string {
	if name, ok := campaignStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int16(s))
}

// Code returns the ordered numeric status code.
func (s CampaignStatus) Code() int { return int(s) }

// Before reports whether s is ordered strictly before o.
func (s CampaignStatus) Before(o CampaignStatus) bool { return s < o }

func (s CampaignStatus) Valid() bool {
	_, ok := campaignStatusNames[s]
	return ok
}

func (s CampaignStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid campaign status %d", int16(s))
	}
	return []byte(s.String()), nil
}

func (s *CampaignStatus) UnmarshalText(b []byte) error {
	parsed, err := ParseCampaignStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func ParseCampaignStatus(name string) (CampaignStatus, error) {
	for status, n := range campaignStatusNames {
		if n == name {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown campaign status %q", name)
}

// Campaign triggers.
const (
	TriggerSubmit  = "submit"
	TriggerApprove = "approve"
	TriggerReject  = "reject"
	TriggerPrepare = "prepare"
	TriggerStart   = "start"
	TriggerStop    = "stop"
	TriggerCancel  = "cancel"
	TriggerDelete  = "delete"
	// Fired by the completion scheduler, never by a user.
	TriggerComplete = "complete"
)

// CampaignTransitions maps a trigger to the statuses it may fire from and the
// status it moves to. Delete has no target: the row is removed.
var CampaignTransitions = map[string]struct {
	From []CampaignStatus
	To   CampaignStatus
}{
	TriggerSubmit:   {From: []CampaignStatus{CampaignStatusDraft, CampaignStatusRejected}, To: CampaignStatusApprovalRequested},
	TriggerApprove:  {From: []CampaignStatus{CampaignStatusApprovalRequested}, To: CampaignStatusApproved},
	TriggerReject:   {From: []CampaignStatus{CampaignStatusApprovalRequested}, To: CampaignStatusRejected},
	TriggerPrepare:  {From: []CampaignStatus{CampaignStatusApproved}, To: CampaignStatusSendReady},
	TriggerStart:    {From: []CampaignStatus{CampaignStatusApproved, CampaignStatusSendReady}, To: CampaignStatusRunning},
	TriggerComplete: {From: []CampaignStatus{CampaignStatusRunning}, To: CampaignStatusCompleted},
	TriggerStop:     {From: []CampaignStatus{CampaignStatusRunning}, To: CampaignStatusStopped},
	TriggerCancel:   {From: []CampaignStatus{CampaignStatusDraft, CampaignStatusSendReady}, To: CampaignStatusCancelled},
	TriggerDelete:   {From: []CampaignStatus{CampaignStatusDraft}},
}

// CanFire reports whether trigger may fire from the given status.
func CanFire(trigger string, from CampaignStatus) bool {
	t, ok := CampaignTransitions[trigger]
	if !ok {
		return false
	}
	for _, s := range t.From {
		if s == from {
			return true
		}
	}
	return false
}

// IsValidCampaignTransition reports whether some trigger moves from -> to.
func IsValidCampaignTransition(from, to CampaignStatus) bool {
	for trigger, t := range CampaignTransitions {
		if trigger == TriggerDelete || t.To != to {
			continue
		}
		if CanFire(trigger, from) {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no trigger can fire from s.
func (s CampaignStatus) IsTerminal() bool {
	for trigger := range CampaignTransitions {
		if CanFire(trigger, s) {
			return false
		}
	}
	return true
}

// Message types
const (
	MessageTypeSMS = "sms"
	MessageTypeMMS = "mms"
	MessageTypeRCS = "rcs"
)

func IsValidMessageType(t string) bool {
	return t == MessageTypeSMS || t == MessageTypeMMS || t == MessageTypeRCS
}

type Campaign struct {
	ID                uuid.UUID      `json:"id"`
	AccountID         uuid.UUID      `json:"account_id"`
	TemplateID        uuid.UUID      `json:"template_id"`
	Title             string         `json:"title"`
	MessageType       string         `json:"message_type"`
	Status            CampaignStatus `json:"status"`
	TargetCount       int64          `json:"target_count"`
	SentCount         int64          `json:"sent_count"`
	SuccessCount      int64          `json:"success_count"`
	Budget            int64          `json:"budget"`
	CostPerMessage    int64          `json:"cost_per_message"`
	ChargedAmount     int64          `json:"charged_amount"`
	GatewayCampaignID *string        `json:"gateway_campaign_id,omitempty"`
	RejectionReason   *string        `json:"rejection_reason,omitempty"`
	ScheduledAt       *time.Time     `json:"scheduled_at,omitempty"`
	CompletedAt       *time.Time     `json:"completed_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// TotalCost is the amount debited when the campaign starts. ok is false when
// the product does not fit in an int64.
func (c *Campaign) TotalCost() (cost int64, ok bool) {
	if c.TargetCount < 0 || c.CostPerMessage < 0 {
		return 0, false
	}
	if c.TargetCount != 0 && c.CostPerMessage > (1<<63-1)/c.TargetCount {
		return 0, false
	}
	return c.TargetCount * c.CostPerMessage, true
}

// Report holds delivery counters for a campaign that has started running.
type Report struct {
	ID         uuid.UUID `json:"id"`
	CampaignID uuid.UUID `json:"campaign_id"`
	Sent       int64     `json:"sent"`
	Delivered  int64     `json:"delivered"`
	Failed     int64     `json:"failed"`
	Clicks     int64     `json:"clicks"`
	OptOuts    int64     `json:"opt_outs"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
