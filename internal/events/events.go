package events

import "context"

// Streams
const (
	StreamAccounts  = "events:account"
	StreamCampaigns = "events:campaign"
)

// Event types
const (
	EventBalanceChanged        = "balance_changed"
	EventPaymentReceived       = "payment_received"
	EventCampaignStatusChanged = "campaign_status_changed"
)

// Event is routed to websocket clients by AccountID.
type Event struct {
	Type      string         `json:"type"`
	AccountID string         `json:"account_id,omitempty"`
	Payload   map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}

// MultiPublisher fans an event out to every publisher and returns the first
// error after trying all of them.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, stream string, event Event) error {
	var first error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, stream, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, Event) error { return nil }
