package dto

import "time"

// Campaigns

type CreateCampaignRequest struct {
	TemplateID  string     `json:"template_id"`
	Title       string     `json:"title"`
	MessageType string     `json:"message_type"` // sms / mms / rcs
	TargetCount int64      `json:"target_count"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

type UpdateCampaignRequest = CreateCampaignRequest

type RejectCampaignRequest struct {
	Reason string `json:"reason"`
}
