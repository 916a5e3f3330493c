package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type recordingPublisher struct {
	got []Event
	err error
}

func (r *recordingPublisher) Publish(_ context.Context, _ string, e Event) error {
	r.got = append(r.got, e)
	return r.err
}

func TestMultiPublisherFansOut(t *testing.T) {
	failing := &recordingPublisher{err: errors.New("broker down")}
	ok := &recordingPublisher{}
	m := MultiPublisher{failing, nil, ok}

	err := m.Publish(context.Background(), StreamAccounts, Event{Type: EventBalanceChanged})
	if err == nil || err.Error() != "broker down" {
		t.Fatalf("expected first error, got %v", err)
	}
	if len(failing.got) != 1 || len(ok.got) != 1 {
		t.Errorf("every publisher should receive the event: %d, %d", len(failing.got), len(ok.got))
	}
}

func TestMemoryBus(t *testing.T) {
	bus := NewMemoryBus()
	var got []string
	_ = bus.Subscribe(context.Background(), StreamCampaigns, func(e Event) { got = append(got, e.Type) })

	_ = bus.Publish(context.Background(), StreamCampaigns, Event{Type: EventCampaignStatusChanged})
	_ = bus.Publish(context.Background(), StreamAccounts, Event{Type: EventBalanceChanged})

	if len(got) != 1 || got[0] != EventCampaignStatusChanged {
		t.Errorf("got %v, want only the campaign event", got)
	}
}

func TestKafkaWriterDoesNotBlockPublish(t *testing.T) {
	w := newKafkaWriter([]string{"localhost:9092"}, "sms-campaign-events", zap.NewNop())

	if !w.Async {
		t.Error("writer must be async so publish never waits on the broker")
	}
	if w.BatchTimeout <= 0 || w.BatchTimeout > 50*time.Millisecond {
		t.Errorf("batch timeout = %s, want a few milliseconds", w.BatchTimeout)
	}
	if w.Completion == nil {
		t.Fatal("async writer needs a completion callback to surface failures")
	}
	w.Completion(nil, errors.New("broker down"))
}
