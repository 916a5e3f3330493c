package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sms-campaigns/backend/internal/models"
	"github.com/sms-campaigns/backend/internal/repositories"
	"github.com/sms-campaigns/backend/internal/scheduler"
	"go.uber.org/zap"
)

func TestCreateValidatesInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	valid := CampaignInput{TemplateID: env.templateID, Title: "launch", MessageType: models.MessageTypeMMS, TargetCount: 10}
	c, err := env.campaigns.Create(ctx, env.account, valid)
	if err != nil {
		t.Fatal(err)
	}
	if c.Status != models.CampaignStatusDraft || c.CostPerMessage != 120 || c.Budget != 1200 {
		t.Errorf("unexpected campaign %+v", c)
	}

	tests := []struct {
		name   string
		mutate func(*CampaignInput)
	}{
		{"empty title", func(in *CampaignInput) { in.Title = "  " }},
		{"no template", func(in *CampaignInput) { in.TemplateID = uuid.Nil }},
		{"bad message type", func(in *CampaignInput) { in.MessageType = "fax" }},
		{"zero recipients", func(in *CampaignInput) { in.TargetCount = 0 }},
		{"overflowing budget", func(in *CampaignInput) { in.TargetCount = 1 << 62 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			if _, err := env.campaigns.Create(ctx, env.account, in); !errors.Is(err, ErrInvalidCampaign) {
				t.Errorf("err = %v, want ErrInvalidCampaign", err)
			}
		})
	}

	if _, err := env.campaigns.Create(ctx, uuid.New(), valid); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("unknown account err = %v", err)
	}
}

func TestUpdateDraftPersistsEdits(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, 100000)
	ctx := context.Background()

	c, err := env.campaigns.Create(ctx, env.account, CampaignInput{
		TemplateID: env.templateID, Title: "launch", MessageType: models.MessageTypeSMS, TargetCount: 10,
	})
	if err != nil {
		t.Fatal(err)
	}
	otherTemplate := uuid.New()
	env.templates.approved[otherTemplate] = true

	if _, err := env.campaigns.Update(ctx, c.ID, env.account, CampaignInput{
		TemplateID: otherTemplate, Title: " relaunch ", MessageType: models.MessageTypeMMS, TargetCount: 200,
	}); err != nil {
		t.Fatal(err)
	}

	stored, err := env.store.GetCampaign(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.TemplateID != otherTemplate || stored.Title != "relaunch" || stored.MessageType != models.MessageTypeMMS {
		t.Errorf("edits not stored: %+v", stored)
	}
	if stored.TargetCount != 200 || stored.CostPerMessage != 120 || stored.Budget != 24000 {
		t.Errorf("target=%d cost=%d budget=%d, want 200, 120, 24000", stored.TargetCount, stored.CostPerMessage, stored.Budget)
	}

	if _, err := env.campaigns.Submit(ctx, c.ID, env.account); err != nil {
		t.Fatal(err)
	}
	if _, err := env.campaigns.Approve(ctx, c.ID, env.reviewer); err != nil {
		t.Fatal(err)
	}
	started, err := env.campaigns.Start(ctx, c.ID, env.account)
	if err != nil {
		t.Fatal(err)
	}
	if started.ChargedAmount != 24000 || env.balanceOf(t) != 76000 {
		t.Errorf("charged %d, balance %d; want the edited budget debited", started.ChargedAmount, env.balanceOf(t))
	}
}

func TestUpdateRefusedOnceInReview(t *testing.T) {
	edit := CampaignInput{Title: "edited", MessageType: models.MessageTypeSMS, TargetCount: 5}

	for _, status := range []models.CampaignStatus{
		models.CampaignStatusApprovalRequested,
		models.CampaignStatusApproved,
		models.CampaignStatusSendReady,
		models.CampaignStatusRunning,
		models.CampaignStatusStopped,
		models.CampaignStatusCompleted,
		models.CampaignStatusCancelled,
	} {
		t.Run(status.String(), func(t *testing.T) {
			env := newTestEnv(t)
			c := env.seed(t, status)
			in := edit
			in.TemplateID = env.templateID

			_, err := env.campaigns.Update(context.Background(), c.ID, env.account, in)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("err = %v, want ErrInvalidTransition", err)
			}
			stored, _ := env.store.GetCampaign(context.Background(), c.ID)
			if stored.Title != "spring sale" || stored.TargetCount != 100 {
				t.Errorf("refused edit was stored: %+v", stored)
			}
		})
	}

	t.Run("rejected is editable", func(t *testing.T) {
		env := newTestEnv(t)
		c := env.seed(t, models.CampaignStatusRejected)
		in := edit
		in.TemplateID = env.templateID
		if _, err := env.campaigns.Update(context.Background(), c.ID, env.account, in); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("other owner", func(t *testing.T) {
		env := newTestEnv(t)
		c := env.seed(t, models.CampaignStatusDraft)
		in := edit
		in.TemplateID = env.templateID
		if _, err := env.campaigns.Update(context.Background(), c.ID, uuid.New(), in); !errors.Is(err, ErrCampaignNotFound) {
			t.Errorf("err = %v, want ErrCampaignNotFound", err)
		}
	})
}

func TestStartInsufficientFunds(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, 1000)
	c := env.approved(t)

	_, err := env.campaigns.Start(context.Background(), c.ID, env.account)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	if got := env.balanceOf(t); got != 1000 {
		t.Errorf("balance = %d, want 1000", got)
	}
	if got := env.statusOf(t, c.ID); got != models.CampaignStatusApproved {
		t.Errorf("status = %s, want approved", got)
	}
	if _, err := env.store.GetReport(context.Background(), c.ID); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("report should not exist, err = %v", err)
	}
	if n := len(env.entries(t)); n != 1 {
		t.Errorf("ledger entries = %d, want only the seed credit", n)
	}
	if n, _ := env.sched.Pending(context.Background()); n != 0 {
		t.Errorf("no completion should be scheduled, pending = %d", n)
	}
}

func TestStartDebitsAndCreatesReport(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, 10000)
	c := env.approved(t)
	ctx := context.Background()

	started, err := env.campaigns.Start(ctx, c.ID, env.account)
	if err != nil {
		t.Fatal(err)
	}
	if started.Status != models.CampaignStatusRunning || started.ChargedAmount != 5000 {
		t.Errorf("unexpected campaign %+v", started)
	}
	if got := env.balanceOf(t); got != 5000 {
		t.Errorf("balance = %d, want 5000", got)
	}
	if _, err := env.store.GetReport(ctx, c.ID); err != nil {
		t.Errorf("report missing: %v", err)
	}
	usage, err := env.store.GetEntryByRef(ctx, "campaign:"+c.ID.String()+":start")
	if err != nil || usage.Amount != -5000 || usage.Kind != models.EntryKindUsage {
		t.Errorf("usage entry = %+v, err = %v", usage, err)
	}
	if n, _ := env.sched.Pending(ctx); n != 1 {
		t.Errorf("pending completions = %d, want 1", n)
	}

	again, err := env.campaigns.Start(ctx, c.ID, env.account)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if again.Status != models.CampaignStatusRunning || !again.UpdatedAt.Equal(started.UpdatedAt) {
		t.Errorf("second start should return the campaign unchanged")
	}
	if got := env.balanceOf(t); got != 5000 {
		t.Errorf("second start changed the balance to %d", got)
	}
}

func TestConcurrentDoubleStart(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, 10000)
	c := env.approved(t)
	ctx := context.Background()

	const callers = 10
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.campaigns.Start(ctx, c.ID, env.account)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("caller %d: %v", i, err)
		}
	}
	if got := env.balanceOf(t); got != 5000 {
		t.Errorf("balance = %d, want exactly one debit leaving 5000", got)
	}
	usage := 0
	for _, e := range env.entries(t) {
		if e.Kind == models.EntryKindUsage {
			usage++
		}
	}
	if usage != 1 {
		t.Errorf("usage entries = %d, want 1", usage)
	}
}

func TestApproveIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	c := env.approved(t)
	ctx := context.Background()

	before, _ := env.store.AuditByEntity(ctx, "campaign", c.ID, 50, 0)
	again, err := env.campaigns.Approve(ctx, c.ID, env.reviewer)
	if err != nil {
		t.Fatal(err)
	}
	if again.Status != models.CampaignStatusApproved {
		t.Errorf("status = %s", again.Status)
	}
	after, _ := env.store.AuditByEntity(ctx, "campaign", c.ID, 50, 0)
	if len(after) != len(before) {
		t.Errorf("repeated approve wrote an audit entry")
	}
}

func TestRejectThenResubmit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.seed(t, models.CampaignStatusApprovalRequested)

	rejected, err := env.campaigns.Reject(ctx, c.ID, env.reviewer, "reason")
	if err != nil {
		t.Fatal(err)
	}
	if rejected.Status != models.CampaignStatusRejected || rejected.RejectionReason == nil || *rejected.RejectionReason != "reason" {
		t.Fatalf("unexpected rejected campaign %+v", rejected)
	}

	resubmitted, err := env.campaigns.Resubmit(ctx, c.ID, env.account)
	if err != nil {
		t.Fatal(err)
	}
	if resubmitted.Status != models.CampaignStatusApprovalRequested {
		t.Errorf("status = %s, want approval_requested", resubmitted.Status)
	}
	if resubmitted.RejectionReason == nil || *resubmitted.RejectionReason != "reason" {
		t.Errorf("rejection reason should be retained")
	}

	if _, err := env.campaigns.Approve(ctx, c.ID, env.reviewer); err != nil {
		t.Errorf("retained reason must not block approval: %v", err)
	}
}

func TestRejectDefaultsReason(t *testing.T) {
	env := newTestEnv(t)
	c := env.seed(t, models.CampaignStatusApprovalRequested)

	rejected, err := env.campaigns.Reject(context.Background(), c.ID, env.reviewer, "")
	if err != nil {
		t.Fatal(err)
	}
	if rejected.RejectionReason == nil || *rejected.RejectionReason != defaultRejectionReason {
		t.Errorf("reason = %v, want default", rejected.RejectionReason)
	}
}

func TestResubmitClearsGatewayID(t *testing.T) {
	env := newTestEnv(t)
	gw := "gw-old"
	c := env.seed(t, models.CampaignStatusRejected, func(c *models.Campaign) { c.GatewayCampaignID = &gw })

	out, err := env.campaigns.Submit(context.Background(), c.ID, env.account)
	if err != nil {
		t.Fatal(err)
	}
	if out.GatewayCampaignID != nil {
		t.Errorf("gateway id should be cleared on resubmit, got %s", *out.GatewayCampaignID)
	}
}

func TestSubmitGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	unapproved := env.seed(t, models.CampaignStatusDraft, func(c *models.Campaign) { c.TemplateID = uuid.New() })
	if _, err := env.campaigns.Submit(ctx, unapproved.ID, env.account); !errors.Is(err, ErrTemplateNotApproved) {
		t.Errorf("err = %v, want ErrTemplateNotApproved", err)
	}
	if got := env.statusOf(t, unapproved.ID); got != models.CampaignStatusDraft {
		t.Errorf("status = %s, want draft", got)
	}

	gw := "gw-1"
	registered := env.seed(t, models.CampaignStatusDraft, func(c *models.Campaign) { c.GatewayCampaignID = &gw })
	if _, err := env.campaigns.Submit(ctx, registered.ID, env.account); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("err = %v, want ErrAlreadySubmitted", err)
	}

	draft := env.seed(t, models.CampaignStatusDraft)
	if _, err := env.campaigns.Resubmit(ctx, draft.ID, env.account); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("resubmit of a draft err = %v, want ErrInvalidTransition", err)
	}
}

func TestSubmitWithoutTemplateServiceFailsClosed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	log := zap.NewNop()

	checker := NewTemplateChecker("", true, time.Second, log)
	if _, ok := checker.(NoTemplateService); !ok {
		t.Fatalf("checker = %T, want NoTemplateService", checker)
	}
	if _, ok := NewTemplateChecker("", false, time.Second, log).(AllowAllTemplates); !ok {
		t.Error("local runs without a template service should allow all templates")
	}
	if _, ok := NewTemplateChecker("http://templates", true, time.Second, log).(*TemplateClient); !ok {
		t.Error("a configured URL should use the HTTP client")
	}

	svc := NewCampaignService(env.store, env.balance, checker, env.gateway, env.sched, env.bus, nil, env.clock, env.cfg, log)
	c := env.seed(t, models.CampaignStatusDraft)
	if _, err := svc.Submit(ctx, c.ID, env.account); !errors.Is(err, ErrTemplateUnavailable) {
		t.Errorf("err = %v, want ErrTemplateUnavailable", err)
	}
	if got := env.statusOf(t, c.ID); got != models.CampaignStatusDraft {
		t.Errorf("status = %s, want draft", got)
	}
}

func TestOtherAccountsCannotSeeCampaign(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.seed(t, models.CampaignStatusApproved)
	stranger := uuid.New()

	if _, err := env.campaigns.Start(ctx, c.ID, stranger); !errors.Is(err, ErrCampaignNotFound) {
		t.Errorf("start err = %v, want ErrCampaignNotFound", err)
	}
	if _, err := env.campaigns.Get(ctx, c.ID, &stranger); !errors.Is(err, ErrCampaignNotFound) {
		t.Errorf("get err = %v, want ErrCampaignNotFound", err)
	}
	if got := env.statusOf(t, c.ID); got != models.CampaignStatusApproved {
		t.Errorf("status = %s", got)
	}
}

type outcome int

const (
	invalid outcome = iota
	noop
	moved
)

func TestTransitionTable(t *testing.T) {
	triggers := []string{
		models.TriggerSubmit, models.TriggerApprove, models.TriggerReject, models.TriggerPrepare,
		models.TriggerStart, models.TriggerStop, models.TriggerCancel, models.TriggerDelete,
	}
	allowed := map[models.CampaignStatus]map[string]outcome{
		models.CampaignStatusDraft: {
			models.TriggerSubmit: moved, models.TriggerCancel: moved, models.TriggerDelete: moved,
		},
		models.CampaignStatusApprovalRequested: {
			models.TriggerApprove: moved, models.TriggerReject: moved,
		},
		models.CampaignStatusApproved: {
			models.TriggerApprove: noop, models.TriggerPrepare: moved, models.TriggerStart: moved,
		},
		models.CampaignStatusRejected: {
			models.TriggerSubmit: moved,
		},
		models.CampaignStatusSendReady: {
			models.TriggerApprove: noop, models.TriggerPrepare: noop, models.TriggerStart: moved, models.TriggerCancel: moved,
		},
		models.CampaignStatusCancelled: {},
		models.CampaignStatusRunning: {
			models.TriggerApprove: noop, models.TriggerStart: noop, models.TriggerStop: moved,
		},
		models.CampaignStatusStopped: {},
		models.CampaignStatusCompleted: {
			models.TriggerApprove: noop, models.TriggerStart: noop,
		},
	}
	targets := map[string]models.CampaignStatus{
		models.TriggerSubmit:  models.CampaignStatusApprovalRequested,
		models.TriggerApprove: models.CampaignStatusApproved,
		models.TriggerReject:  models.CampaignStatusRejected,
		models.TriggerPrepare: models.CampaignStatusSendReady,
		models.TriggerStart:   models.CampaignStatusRunning,
		models.TriggerStop:    models.CampaignStatusStopped,
		models.TriggerCancel:  models.CampaignStatusCancelled,
	}

	for _, from := range models.AllCampaignStatuses {
		for _, trigger := range triggers {
			want := allowed[from][trigger]
			t.Run(from.String()+"/"+trigger, func(t *testing.T) {
				env := newTestEnv(t)
				env.fund(t, 100000)
				ctx := context.Background()
				c := env.seed(t, from)
				balance := env.balanceOf(t)

				err := fire(ctx, env, trigger, c.ID)

				switch want {
				case invalid:
					if !errors.Is(err, ErrInvalidTransition) {
						t.Fatalf("err = %v, want ErrInvalidTransition", err)
					}
					if got := env.statusOf(t, c.ID); got != from {
						t.Errorf("status changed to %s on a rejected trigger", got)
					}
					if got := env.balanceOf(t); got != balance {
						t.Errorf("balance changed on a rejected trigger")
					}
				case noop:
					if err != nil {
						t.Fatalf("err = %v, want nil", err)
					}
					if got := env.statusOf(t, c.ID); got != from {
						t.Errorf("status = %s, want unchanged %s", got, from)
					}
				case moved:
					if err != nil {
						t.Fatalf("err = %v, want nil", err)
					}
					if trigger == models.TriggerDelete {
						if _, err := env.store.GetCampaign(ctx, c.ID); !errors.Is(err, repositories.ErrNotFound) {
							t.Errorf("campaign should be deleted, err = %v", err)
						}
						return
					}
					if got := env.statusOf(t, c.ID); got != targets[trigger] {
						t.Errorf("status = %s, want %s", got, targets[trigger])
					}
				}
			})
		}
	}
}

func fire(ctx context.Context, env *testEnv, trigger string, id uuid.UUID) error {
	var err error
	switch trigger {
	case models.TriggerSubmit:
		_, err = env.campaigns.Submit(ctx, id, env.account)
	case models.TriggerApprove:
		_, err = env.campaigns.Approve(ctx, id, env.reviewer)
	case models.TriggerReject:
		_, err = env.campaigns.Reject(ctx, id, env.reviewer, "no")
	case models.TriggerPrepare:
		_, err = env.campaigns.Prepare(ctx, id, env.account)
	case models.TriggerStart:
		_, err = env.campaigns.Start(ctx, id, env.account)
	case models.TriggerStop:
		_, err = env.campaigns.Stop(ctx, id, env.account)
	case models.TriggerCancel:
		_, err = env.campaigns.Cancel(ctx, id, env.account)
	case models.TriggerDelete:
		err = env.campaigns.Delete(ctx, id, env.account)
	}
	return err
}

func TestPrepareRegistersWithGateway(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.seed(t, models.CampaignStatusApproved)

	out, err := env.campaigns.Prepare(ctx, c.ID, env.account)
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != models.CampaignStatusSendReady || out.GatewayCampaignID == nil || *out.GatewayCampaignID != "gw-"+c.ID.String() {
		t.Errorf("unexpected campaign %+v", out)
	}
	if _, err := env.campaigns.Prepare(ctx, c.ID, env.account); err != nil {
		t.Fatal(err)
	}
	if env.gateway.registered != 1 {
		t.Errorf("gateway registrations = %d, want 1", env.gateway.registered)
	}
}

func TestCancelAfterChargeIsRejected(t *testing.T) {
	env := newTestEnv(t)
	c := env.seed(t, models.CampaignStatusSendReady, func(c *models.Campaign) { c.ChargedAmount = 5000 })

	if _, err := env.campaigns.Cancel(context.Background(), c.ID, env.account); !errors.Is(err, ErrCampaignAlreadyPaid) {
		t.Fatalf("err = %v, want ErrCampaignAlreadyPaid", err)
	}
	if got := env.statusOf(t, c.ID); got != models.CampaignStatusSendReady {
		t.Errorf("status = %s, want send_ready", got)
	}
}

func TestCompletionIsNoopAfterStop(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, 10000)
	c := env.approved(t)
	ctx := context.Background()

	if _, err := env.campaigns.Start(ctx, c.ID, env.account); err != nil {
		t.Fatal(err)
	}
	if _, err := env.campaigns.Stop(ctx, c.ID, env.account); err != nil {
		t.Fatal(err)
	}

	runner := scheduler.NewRunner(env.sched, func(ctx context.Context, id uuid.UUID) error {
		_, err := env.campaigns.Complete(ctx, id)
		return err
	}, env.clock, time.Minute, nil, zap.NewNop())

	env.clock.Advance(env.cfg.CompletionDelay)
	done, err := runner.RunOnce(ctx)
	if err != nil || done != 1 {
		t.Fatalf("done = %d, err = %v", done, err)
	}
	if got := env.statusOf(t, c.ID); got != models.CampaignStatusStopped {
		t.Errorf("status = %s, want stopped", got)
	}
	if got := env.balanceOf(t); got != 5000 {
		t.Errorf("balance = %d, want 5000", got)
	}
}

func TestCompletionRefundsUndelivered(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, 10000)
	c := env.seed(t, models.CampaignStatusSendReady, func(c *models.Campaign) {
		gw := "gw-7"
		c.GatewayCampaignID = &gw
	})
	ctx := context.Background()
	env.gateway.stats = &DeliveryStats{Sent: 100, Delivered: 80, Failed: 20, Clicks: 7, OptOuts: 1}

	if _, err := env.campaigns.Start(ctx, c.ID, env.account); err != nil {
		t.Fatal(err)
	}
	done, err := env.campaigns.Complete(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if done.Status != models.CampaignStatusCompleted || done.CompletedAt == nil {
		t.Fatalf("unexpected campaign %+v", done)
	}
	if done.SentCount != 100 || done.SuccessCount != 80 || done.ChargedAmount != 4000 {
		t.Errorf("sent=%d success=%d charged=%d", done.SentCount, done.SuccessCount, done.ChargedAmount)
	}
	if got := env.balanceOf(t); got != 6000 {
		t.Errorf("balance = %d, want 6000 after refunding 20 undelivered", got)
	}

	report, err := env.store.GetReport(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if report.Delivered != 80 || report.Failed != 20 || report.Clicks != 7 {
		t.Errorf("unexpected report %+v", report)
	}

	again, err := env.campaigns.Complete(ctx, c.ID)
	if err != nil || again.Status != models.CampaignStatusCompleted {
		t.Fatalf("second completion: %+v, %v", again, err)
	}
	if got := env.balanceOf(t); got != 6000 {
		t.Errorf("second completion changed the balance to %d", got)
	}
}

func TestCompletionWithoutGatewayStatsAssumesDelivery(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, 10000)
	c := env.approved(t)
	ctx := context.Background()
	env.gateway.statsErr = errors.New("timeout")

	if _, err := env.campaigns.Start(ctx, c.ID, env.account); err != nil {
		t.Fatal(err)
	}
	done, err := env.campaigns.Complete(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if done.SuccessCount != 100 || done.ChargedAmount != 5000 {
		t.Errorf("success=%d charged=%d", done.SuccessCount, done.ChargedAmount)
	}
	if got := env.balanceOf(t); got != 5000 {
		t.Errorf("balance = %d, want 5000", got)
	}
}

func TestCompleteOverdueSweepsLostJobs(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, 10000)
	c := env.approved(t)
	ctx := context.Background()

	if _, err := env.campaigns.Start(ctx, c.ID, env.account); err != nil {
		t.Fatal(err)
	}
	// Drop the scheduled job as a process-local schedule would on restart.
	_, _ = env.sched.Claim(ctx, env.clock.Now().Add(time.Hour), 10)

	n, err := env.campaigns.CompleteOverdue(ctx, time.Minute)
	if err != nil || n != 0 {
		t.Fatalf("nothing is overdue yet: n=%d err=%v", n, err)
	}

	env.clock.Advance(env.cfg.CompletionDelay + 2*time.Minute)
	n, err = env.campaigns.CompleteOverdue(ctx, time.Minute)
	if err != nil || n != 1 {
		t.Fatalf("n=%d err=%v, want 1", n, err)
	}
	if got := env.statusOf(t, c.ID); got != models.CampaignStatusCompleted {
		t.Errorf("status = %s, want completed", got)
	}
}

func TestCampaignEventsRecordTransitions(t *testing.T) {
	env := newTestEnv(t)
	c := env.approved(t)

	logs, err := env.campaigns.Events(context.Background(), c.ID, &env.account, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	var actions []string
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	want := []string{"campaign_approve", "campaign_submit", "campaign_created"}
	if len(actions) != len(want) {
		t.Fatalf("actions = %v, want %v", actions, want)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Errorf("actions = %v, want %v", actions, want)
			break
		}
	}
}
