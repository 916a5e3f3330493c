package models

import (
	"encoding/json"
	"testing"
)

func TestIsValidCampaignTransition(t *testing.T) {
	tests := []struct {
		from     CampaignStatus
		to       CampaignStatus
		expected bool
	}{
		// Happy path
		{CampaignStatusDraft, CampaignStatusApprovalRequested, true},
		{CampaignStatusApprovalRequested, CampaignStatusApproved, true},
		{CampaignStatusApproved, CampaignStatusSendReady, true},
		{CampaignStatusApproved, CampaignStatusRunning, true},
		{CampaignStatusSendReady, CampaignStatusRunning, true},
		{CampaignStatusRunning, CampaignStatusCompleted, true},

		// Side branches
		{CampaignStatusApprovalRequested, CampaignStatusRejected, true},
		{CampaignStatusRejected, CampaignStatusApprovalRequested, true},
		{CampaignStatusDraft, CampaignStatusCancelled, true},
		{CampaignStatusSendReady, CampaignStatusCancelled, true},
		{CampaignStatusRunning, CampaignStatusStopped, true},

		// Invalid
		{CampaignStatusDraft, CampaignStatusApproved, false},
		{CampaignStatusDraft, CampaignStatusRunning, false},
		{CampaignStatusApprovalRequested, CampaignStatusRunning, false},
		{CampaignStatusApproved, CampaignStatusCancelled, false},
		{CampaignStatusRejected, CampaignStatusApproved, false},
		{CampaignStatusRunning, CampaignStatusCancelled, false},
		{CampaignStatusStopped, CampaignStatusCompleted, false},
		{CampaignStatusCompleted, CampaignStatusRunning, false},
		{CampaignStatusCancelled, CampaignStatusDraft, false},
		{CampaignStatus(99), CampaignStatusDraft, false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			result := IsValidCampaignTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidCampaignTransition(%s, %s) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestTerminalStatuses(t *testing.T) {
	terminal := map[CampaignStatus]bool{
		CampaignStatusCancelled: true,
		CampaignStatusStopped:   true,
		CampaignStatusCompleted: true,
	}
	for _, s := range AllCampaignStatuses {
		if got := s.IsTerminal(); got != terminal[s] {
			t.Errorf("%s.IsTerminal() = %v, want %v", s, got, terminal[s])
		}
	}
}

func TestStatusCodesAreOrdered(t *testing.T) {
	for i := 1; i < len(AllCampaignStatuses); i++ {
		prev, cur := AllCampaignStatuses[i-1], AllCampaignStatuses[i]
		if !prev.Before(cur) {
			t.Errorf("%s (%d) should be before %s (%d)", prev, prev.Code(), cur, cur.Code())
		}
	}
	if CampaignStatusApproved.Code() != 11 || CampaignStatusRunning.Code() != 30 {
		t.Errorf("unexpected status codes: approved=%d running=%d", CampaignStatusApproved.Code(), CampaignStatusRunning.Code())
	}
}

func TestCampaignStatusText(t *testing.T) {
	for _, s := range AllCampaignStatuses {
		parsed, err := ParseCampaignStatus(s.String())
		if err != nil {
			t.Fatalf("ParseCampaignStatus(%q): %v", s.String(), err)
		}
		if parsed != s {
			t.Errorf("ParseCampaignStatus(%q) = %d, want %d", s.String(), parsed, s)
		}
	}

	b, err := json.Marshal(Campaign{Status: CampaignStatusSendReady})
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if out["status"] != "send_ready" {
		t.Errorf("status JSON = %v, want send_ready", out["status"])
	}

	if _, err := ParseCampaignStatus("paused"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestTotalCost(t *testing.T) {
	c := Campaign{TargetCount: 100, CostPerMessage: 50}
	if cost, ok := c.TotalCost(); !ok || cost != 5000 {
		t.Errorf("TotalCost() = %d, %v; want 5000, true", cost, ok)
	}

	huge := Campaign{TargetCount: 1 << 40, CostPerMessage: 1 << 40}
	if _, ok := huge.TotalCost(); ok {
		t.Error("expected overflow to be reported")
	}
}
