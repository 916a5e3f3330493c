package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sms-campaigns/backend/internal/clock"
	"github.com/sms-campaigns/backend/internal/config"
	"github.com/sms-campaigns/backend/internal/events"
	"github.com/sms-campaigns/backend/internal/metrics"
	"github.com/sms-campaigns/backend/internal/models"
	"github.com/sms-campaigns/backend/internal/repositories"
	"github.com/sms-campaigns/backend/internal/scheduler"
	"go.uber.org/zap"
)

const defaultRejectionReason = "rejected by reviewer"

// Actor types recorded in the audit log.
const (
	ActorUser     = "user"
	ActorReviewer = "reviewer"
	ActorSystem   = "system"
)

// CampaignService drives the campaign lifecycle. Each transition locks the
// campaign row, checks the current status against models.CampaignTransitions
// and writes the new status in the same transaction. Calls to the template
// service and the messaging gateway happen before that transaction.
type CampaignService struct {
	store     repositories.Store
	balance   *BalanceService
	templates TemplateChecker
	gateway   MessagingGateway
	scheduler scheduler.Scheduler
	publisher events.Publisher
	metrics   *metrics.Metrics
	clock     clock.Clock
	cfg       *config.Config
	log       *zap.Logger
}

func NewCampaignService(
	store repositories.Store,
	balance *BalanceService,
	templates TemplateChecker,
	gateway MessagingGateway,
	sched scheduler.Scheduler,
	publisher events.Publisher,
	m *metrics.Metrics,
	clk clock.Clock,
	cfg *config.Config,
	log *zap.Logger,
) *CampaignService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &CampaignService{
		store:     store,
		balance:   balance,
		templates: templates,
		gateway:   gateway,
		scheduler: sched,
		publisher: publisher,
		metrics:   m,
		clock:     clk,
		cfg:       cfg,
		log:       log,
	}
}

type CampaignInput struct {
	TemplateID  uuid.UUID
	Title       string
	MessageType string
	TargetCount int64
	ScheduledAt *time.Time
}

func (s *CampaignService) validate(in CampaignInput) (cost int64, err error) {
	in.Title = strings.TrimSpace(in.Title)
	switch {
	case in.Title == "":
		return 0, fmt.Errorf("%w: title is required", ErrInvalidCampaign)
	case in.TemplateID == uuid.Nil:
		return 0, fmt.Errorf("%w: template_id is required", ErrInvalidCampaign)
	case !models.IsValidMessageType(in.MessageType):
		return 0, fmt.Errorf("%w: message_type must be one of sms, mms, rcs", ErrInvalidCampaign)
	case in.TargetCount <= 0:
		return 0, fmt.Errorf("%w: target_count must be positive", ErrInvalidCampaign)
	}
	cost, ok := s.cfg.CostPerMessage(in.MessageType)
	if !ok {
		return 0, fmt.Errorf("%w: no price for %s", ErrInvalidCampaign, in.MessageType)
	}
	probe := models.Campaign{TargetCount: in.TargetCount, CostPerMessage: cost}
	if _, ok := probe.TotalCost(); !ok {
		return 0, fmt.Errorf("%w: budget overflows", ErrInvalidCampaign)
	}
	return cost, nil
}

// Create stores a new draft campaign priced from the configured per-message cost.
func (s *CampaignService) Create(ctx context.Context, accountID uuid.UUID, in CampaignInput) (*models.Campaign, error) {
	cost, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	if _, err := s.balance.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}

	c := &models.Campaign{
		AccountID:      accountID,
		TemplateID:     in.TemplateID,
		Title:          strings.TrimSpace(in.Title),
		MessageType:    in.MessageType,
		Status:         models.CampaignStatusDraft,
		TargetCount:    in.TargetCount,
		CostPerMessage: cost,
		ScheduledAt:    in.ScheduledAt,
	}
	c.Budget, _ = c.TotalCost()

	if err := s.store.CreateCampaign(ctx, c); err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}

	s.audit(ctx, &accountID, ActorUser, "campaign_created", c.ID, map[string]any{
		"message_type": c.MessageType,
		"target_count": c.TargetCount,
		"budget":       c.Budget,
	})
	return c, nil
}

// Update edits a campaign that has not entered review yet, or was rejected.
func (s *CampaignService) Update(ctx context.Context, id, ownerID uuid.UUID, in CampaignInput) (*models.Campaign, error) {
	cost, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	var c *models.Campaign
	err = s.store.WithTx(ctx, func(tx repositories.Tx) error {
		var err error
		c, err = s.lockOwned(ctx, tx, id, &ownerID)
		if err != nil {
			return err
		}
		if c.Status != models.CampaignStatusDraft && c.Status != models.CampaignStatusRejected {
			return &TransitionError{Trigger: "update", From: c.Status}
		}
		c.TemplateID = in.TemplateID
		c.Title = strings.TrimSpace(in.Title)
		c.MessageType = in.MessageType
		c.TargetCount = in.TargetCount
		c.CostPerMessage = cost
		c.Budget, _ = c.TotalCost()
		c.ScheduledAt = in.ScheduledAt
		return tx.UpdateCampaign(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, &ownerID, ActorUser, "campaign_updated", c.ID, nil)
	return c, nil
}

// Get returns the campaign when ownerID owns it. A nil ownerID skips the check.
func (s *CampaignService) Get(ctx context.Context, id uuid.UUID, ownerID *uuid.UUID) (*models.Campaign, error) {
	c, err := s.store.GetCampaign(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrCampaignNotFound
	}
	if err != nil {
		return nil, err
	}
	if ownerID != nil && c.AccountID != *ownerID {
		return nil, ErrCampaignNotFound
	}
	return c, nil
}

func (s *CampaignService) List(ctx context.Context, ownerID uuid.UUID, f repositories.CampaignFilter) ([]models.Campaign, error) {
	f.AccountID = &ownerID
	return s.store.ListCampaigns(ctx, f)
}

// ListForReview lists campaigns of every account waiting for approval.
func (s *CampaignService) ListForReview(ctx context.Context, limit, offset int) ([]models.Campaign, error) {
	status := models.CampaignStatusApprovalRequested
	return s.store.ListCampaigns(ctx, repositories.CampaignFilter{Status: &status, Limit: limit, Offset: offset})
}

func (s *CampaignService) Report(ctx context.Context, id uuid.UUID, ownerID *uuid.UUID) (*models.Report, error) {
	if _, err := s.Get(ctx, id, ownerID); err != nil {
		return nil, err
	}
	r, err := s.store.GetReport(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrCampaignNotFound
	}
	return r, err
}

// Events returns the campaign's audit trail, newest first.
func (s *CampaignService) Events(ctx context.Context, id uuid.UUID, ownerID *uuid.UUID, limit, offset int) ([]models.AuditLog, error) {
	if _, err := s.Get(ctx, id, ownerID); err != nil {
		return nil, err
	}
	return s.store.AuditByEntity(ctx, "campaign", id, limit, offset)
}

// Submit sends a draft campaign for review. The template must be approved and
// the campaign must not already be registered with the gateway.
func (s *CampaignService) Submit(ctx context.Context, id, ownerID uuid.UUID) (*models.Campaign, error) {
	return s.submit(ctx, models.TriggerSubmit, id, ownerID)
}

// Resubmit sends a rejected campaign back for review. The rejection reason is
// kept for reference.
func (s *CampaignService) Resubmit(ctx context.Context, id, ownerID uuid.UUID) (*models.Campaign, error) {
	return s.submit(ctx, "resubmit", id, ownerID)
}

func (s *CampaignService) submit(ctx context.Context, trigger string, id, ownerID uuid.UUID) (*models.Campaign, error) {
	guard := func(c *models.Campaign) error {
		if trigger == "resubmit" && c.Status != models.CampaignStatusRejected {
			return &TransitionError{Trigger: trigger, From: c.Status}
		}
		if !models.CanFire(models.TriggerSubmit, c.Status) {
			return &TransitionError{Trigger: trigger, From: c.Status}
		}
		if c.GatewayCampaignID != nil && c.Status != models.CampaignStatusRejected {
			return ErrAlreadySubmitted
		}
		return nil
	}

	current, err := s.Get(ctx, id, &ownerID)
	if err != nil {
		return nil, err
	}
	if err := guard(current); err != nil {
		s.metrics.Transition(trigger, resultLabel(err))
		return nil, err
	}

	approved, err := s.templates.IsApproved(ctx, current.AccountID, current.TemplateID)
	if err != nil {
		s.metrics.Transition(trigger, "error")
		return nil, err
	}
	if !approved {
		s.metrics.Transition(trigger, resultLabel(ErrTemplateNotApproved))
		return nil, ErrTemplateNotApproved
	}

	return s.transition(ctx, trigger, id, &ownerID, ActorUser, func(_ repositories.Tx, c *models.Campaign) (bool, error) {
		if err := guard(c); err != nil {
			return false, err
		}
		if c.Status == models.CampaignStatusRejected {
			c.GatewayCampaignID = nil
		}
		c.Status = models.CampaignStatusApprovalRequested
		return true, nil
	})
}

// Approve is idempotent: a campaign that is already approved or further along
// is returned unchanged.
func (s *CampaignService) Approve(ctx context.Context, id, reviewerID uuid.UUID) (*models.Campaign, error) {
	return s.transition(ctx, models.TriggerApprove, id, nil, ActorReviewer, func(_ repositories.Tx, c *models.Campaign) (bool, error) {
		switch c.Status {
		case models.CampaignStatusApproved, models.CampaignStatusSendReady,
			models.CampaignStatusRunning, models.CampaignStatusCompleted:
			return false, nil
		}
		if !models.CanFire(models.TriggerApprove, c.Status) {
			return false, &TransitionError{Trigger: models.TriggerApprove, From: c.Status}
		}
		c.Status = models.CampaignStatusApproved
		return true, nil
	}, withActor(reviewerID))
}

func (s *CampaignService) Reject(ctx context.Context, id, reviewerID uuid.UUID, reason string) (*models.Campaign, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultRejectionReason
	}
	return s.transition(ctx, models.TriggerReject, id, nil, ActorReviewer, func(_ repositories.Tx, c *models.Campaign) (bool, error) {
		if !models.CanFire(models.TriggerReject, c.Status) {
			return false, &TransitionError{Trigger: models.TriggerReject, From: c.Status}
		}
		c.Status = models.CampaignStatusRejected
		c.RejectionReason = &reason
		return true, nil
	}, withActor(reviewerID), withMeta(map[string]any{"reason": reason}))
}

// Prepare registers an approved campaign with the messaging gateway and marks
// it send_ready. Calling it on a send_ready campaign returns it unchanged.
func (s *CampaignService) Prepare(ctx context.Context, id, ownerID uuid.UUID) (*models.Campaign, error) {
	current, err := s.Get(ctx, id, &ownerID)
	if err != nil {
		return nil, err
	}
	if current.Status == models.CampaignStatusSendReady {
		return current, nil
	}
	if !models.CanFire(models.TriggerPrepare, current.Status) {
		err := &TransitionError{Trigger: models.TriggerPrepare, From: current.Status}
		s.metrics.Transition(models.TriggerPrepare, resultLabel(err))
		return nil, err
	}
	if s.gateway == nil {
		return nil, ErrGatewayUnavailable
	}

	gatewayID, err := s.gateway.RegisterCampaign(ctx, current)
	if err != nil {
		s.metrics.Transition(models.TriggerPrepare, "error")
		return nil, err
	}

	return s.transition(ctx, models.TriggerPrepare, id, &ownerID, ActorUser, func(_ repositories.Tx, c *models.Campaign) (bool, error) {
		if c.Status == models.CampaignStatusSendReady {
			return false, nil
		}
		if !models.CanFire(models.TriggerPrepare, c.Status) {
			return false, &TransitionError{Trigger: models.TriggerPrepare, From: c.Status}
		}
		c.GatewayCampaignID = &gatewayID
		c.Status = models.CampaignStatusSendReady
		return true, nil
	}, withMeta(map[string]any{"gateway_campaign_id": gatewayID}))
}

// Start debits TargetCount x CostPerMessage, moves the campaign to running and
// creates its report, all in one transaction. If the debit fails nothing is
// written. A campaign that is already running or completed is returned
// unchanged.
func (s *CampaignService) Start(ctx context.Context, id, ownerID uuid.UUID) (*models.Campaign, error) {
	var (
		debit   *LedgerResult
		started bool
	)
	c, err := s.transition(ctx, models.TriggerStart, id, &ownerID, ActorUser, func(tx repositories.Tx, c *models.Campaign) (bool, error) {
		if c.Status == models.CampaignStatusRunning || c.Status == models.CampaignStatusCompleted {
			return false, nil
		}
		if !models.CanFire(models.TriggerStart, c.Status) {
			return false, &TransitionError{Trigger: models.TriggerStart, From: c.Status}
		}
		cost, ok := c.TotalCost()
		if !ok {
			return false, fmt.Errorf("%w: budget overflows", ErrInvalidCampaign)
		}

		if cost > 0 {
			ref := fmt.Sprintf("campaign:%s:start", c.ID)
			res, err := s.balance.DebitTx(ctx, tx, c.AccountID, cost, ref, "campaign send: "+c.Title)
			if err != nil {
				return false, err
			}
			debit = res
		}

		c.Status = models.CampaignStatusRunning
		c.ChargedAmount = cost
		if err := tx.CreateReport(ctx, &models.Report{CampaignID: c.ID}); err != nil {
			return false, fmt.Errorf("create report: %w", err)
		}
		started = true
		return true, nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			s.metrics.LedgerOp("debit", resultLabel(err))
		}
		return nil, err
	}

	if debit != nil {
		s.metrics.LedgerOp("debit", "ok")
		s.balance.committed(ctx, debit)
	}
	if started {
		s.scheduleCompletion(ctx, c)
	}
	return c, nil
}

func (s *CampaignService) scheduleCompletion(ctx context.Context, c *models.Campaign) {
	if s.scheduler == nil {
		return
	}
	due := s.clock.Now().Add(s.cfg.CompletionDelay)
	if err := s.scheduler.Schedule(ctx, c.ID, due); err != nil {
		// CompleteOverdue picks the campaign up later.
		s.log.Error("failed to schedule campaign completion",
			zap.String("campaign_id", c.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *CampaignService) Stop(ctx context.Context, id, ownerID uuid.UUID) (*models.Campaign, error) {
	return s.transition(ctx, models.TriggerStop, id, &ownerID, ActorUser, func(_ repositories.Tx, c *models.Campaign) (bool, error) {
		if !models.CanFire(models.TriggerStop, c.Status) {
			return false, &TransitionError{Trigger: models.TriggerStop, From: c.Status}
		}
		c.Status = models.CampaignStatusStopped
		return true, nil
	})
}

// Cancel is only allowed while nothing has been charged for the campaign.
func (s *CampaignService) Cancel(ctx context.Context, id, ownerID uuid.UUID) (*models.Campaign, error) {
	return s.transition(ctx, models.TriggerCancel, id, &ownerID, ActorUser, func(_ repositories.Tx, c *models.Campaign) (bool, error) {
		if !models.CanFire(models.TriggerCancel, c.Status) {
			return false, &TransitionError{Trigger: models.TriggerCancel, From: c.Status}
		}
		if c.ChargedAmount != 0 {
			return false, ErrCampaignAlreadyPaid
		}
		c.Status = models.CampaignStatusCancelled
		return true, nil
	})
}

// Delete removes a draft campaign.
func (s *CampaignService) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	err := s.store.WithTx(ctx, func(tx repositories.Tx) error {
		c, err := s.lockOwned(ctx, tx, id, &ownerID)
		if err != nil {
			return err
		}
		if !models.CanFire(models.TriggerDelete, c.Status) {
			return &TransitionError{Trigger: models.TriggerDelete, From: c.Status}
		}
		return tx.DeleteCampaign(ctx, id)
	})
	s.metrics.Transition(models.TriggerDelete, resultLabel(err))
	if err != nil {
		return err
	}

	s.audit(ctx, &ownerID, ActorUser, "campaign_deleted", id, nil)
	return nil
}

// Complete finishes a running campaign: it records delivery stats, refunds
// messages that were not delivered and moves the campaign to completed. It is
// a no-op when the campaign is no longer running.
func (s *CampaignService) Complete(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	current, err := s.Get(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	if current.Status != models.CampaignStatusRunning {
		s.log.Info("skipping completion, campaign is not running",
			zap.String("campaign_id", id.String()),
			zap.String("status", current.Status.String()),
		)
		s.metrics.Transition(models.TriggerComplete, "noop")
		return current, nil
	}

	stats := s.deliveryStats(ctx, current)

	var refund *LedgerResult
	c, err := s.transition(ctx, models.TriggerComplete, id, nil, ActorSystem, func(tx repositories.Tx, c *models.Campaign) (bool, error) {
		if c.Status != models.CampaignStatusRunning {
			return false, nil
		}

		st := clampStats(stats, c.TargetCount)
		report, err := tx.LockReport(ctx, c.ID)
		if errors.Is(err, repositories.ErrNotFound) {
			report = &models.Report{CampaignID: c.ID}
			err = tx.CreateReport(ctx, report)
		}
		if err != nil {
			return false, fmt.Errorf("load report: %w", err)
		}
		report.Sent = st.Sent
		report.Delivered = st.Delivered
		report.Failed = st.Failed
		report.Clicks = st.Clicks
		report.OptOuts = st.OptOuts
		if err := tx.UpdateReport(ctx, report); err != nil {
			return false, fmt.Errorf("update report: %w", err)
		}

		undelivered := c.TargetCount - st.Delivered
		if amount := undelivered * c.CostPerMessage; amount > 0 && c.ChargedAmount > 0 {
			if amount > c.ChargedAmount {
				amount = c.ChargedAmount
			}
			ref := fmt.Sprintf("campaign:%s:refund", c.ID)
			refund, err = s.balance.RefundTx(ctx, tx, c.AccountID, amount, ref, fmt.Sprintf("undelivered messages: %d", undelivered))
			if err != nil {
				return false, err
			}
			c.ChargedAmount -= amount
		}

		now := s.clock.Now()
		c.SentCount = st.Sent
		c.SuccessCount = st.Delivered
		c.CompletedAt = &now
		c.Status = models.CampaignStatusCompleted
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if refund != nil {
		s.metrics.LedgerOp("refund", "ok")
		s.balance.committed(ctx, refund)
	}
	return c, nil
}

func (s *CampaignService) deliveryStats(ctx context.Context, c *models.Campaign) DeliveryStats {
	all := DeliveryStats{Sent: c.TargetCount, Delivered: c.TargetCount}
	if s.gateway == nil || c.GatewayCampaignID == nil {
		return all
	}
	stats, err := s.gateway.DeliveryStats(ctx, *c.GatewayCampaignID)
	if err != nil {
		s.log.Warn("gateway stats unavailable, assuming full delivery",
			zap.String("campaign_id", c.ID.String()),
			zap.Error(err),
		)
		return all
	}
	return *stats
}

func clampStats(st DeliveryStats, target int64) DeliveryStats {
	clamp := func(v int64) int64 {
		if v < 0 {
			return 0
		}
		if v > target {
			return target
		}
		return v
	}
	st.Sent = clamp(st.Sent)
	st.Delivered = clamp(st.Delivered)
	if st.Delivered > st.Sent {
		st.Sent = st.Delivered
	}
	st.Failed = st.Sent - st.Delivered
	st.Clicks = clamp(st.Clicks)
	st.OptOuts = clamp(st.OptOuts)
	return st
}

// CompleteOverdue completes running campaigns whose completion delay has long
// passed. It covers jobs lost from a process-local schedule.
func (s *CampaignService) CompleteOverdue(ctx context.Context, grace time.Duration) (int, error) {
	status := models.CampaignStatusRunning
	cutoff := s.clock.Now().Add(-(s.cfg.CompletionDelay + grace))

	// completed rows drop out of the running set, so only skipped rows advance the offset
	done, offset := 0, 0
	for {
		batch, err := s.store.ListCampaigns(ctx, repositories.CampaignFilter{Status: &status, Limit: 100, Offset: offset})
		if err != nil {
			return done, err
		}
		for _, c := range batch {
			if c.UpdatedAt.After(cutoff) {
				offset++
				continue
			}
			if _, err := s.Complete(ctx, c.ID); err != nil {
				s.log.Error("overdue completion failed", zap.String("campaign_id", c.ID.String()), zap.Error(err))
				offset++
				continue
			}
			done++
		}
		if len(batch) < 100 {
			return done, nil
		}
	}
}

type transitionOpts struct {
	actorID *uuid.UUID
	meta    map[string]any
}

type transitionOpt func(*transitionOpts)

func withActor(id uuid.UUID) transitionOpt {
	return func(o *transitionOpts) { o.actorID = &id }
}

func withMeta(meta map[string]any) transitionOpt {
	return func(o *transitionOpts) { o.meta = meta }
}

// transition runs fn on the locked campaign inside one transaction and saves
// the campaign when fn reports a change. ownerID, when set, must own the
// campaign. On success the change is audited and published after commit.
func (s *CampaignService) transition(
	ctx context.Context,
	trigger string,
	id uuid.UUID,
	ownerID *uuid.UUID,
	actorType string,
	fn func(tx repositories.Tx, c *models.Campaign) (bool, error),
	opts ...transitionOpt,
) (*models.Campaign, error) {
	o := transitionOpts{actorID: ownerID}
	for _, opt := range opts {
		opt(&o)
	}

	var (
		c       *models.Campaign
		from    models.CampaignStatus
		changed bool
	)
	err := s.store.WithTx(ctx, func(tx repositories.Tx) error {
		var err error
		c, err = s.lockOwned(ctx, tx, id, ownerID)
		if err != nil {
			return err
		}
		from = c.Status
		changed, err = fn(tx, c)
		if err != nil || !changed {
			return err
		}
		return tx.UpdateCampaign(ctx, c)
	})
	if err != nil {
		s.metrics.Transition(trigger, resultLabel(err))
		if !errors.Is(err, ErrInvalidTransition) && !errors.Is(err, ErrCampaignNotFound) {
			s.log.Warn("campaign transition failed",
				zap.String("campaign_id", id.String()),
				zap.String("trigger", trigger),
				zap.Error(err),
			)
		}
		return nil, err
	}
	if !changed {
		s.metrics.Transition(trigger, "noop")
		return c, nil
	}
	s.metrics.Transition(trigger, "ok")

	meta := map[string]any{"old_status": from.String(), "new_status": c.Status.String()}
	for k, v := range o.meta {
		meta[k] = v
	}
	s.audit(ctx, o.actorID, actorType, "campaign_"+trigger, c.ID, meta)

	_ = s.publisher.Publish(ctx, events.StreamCampaigns, events.Event{
		Type:      events.EventCampaignStatusChanged,
		AccountID: c.AccountID.String(),
		Payload: map[string]any{
			"campaign_id": c.ID.String(),
			"old_status":  from.String(),
			"new_status":  c.Status.String(),
			"status_code": c.Status.Code(),
		},
	})

	s.log.Info("campaign status changed",
		zap.String("campaign_id", c.ID.String()),
		zap.String("trigger", trigger),
		zap.String("from", from.String()),
		zap.String("to", c.Status.String()),
	)
	return c, nil
}

func (s *CampaignService) lockOwned(ctx context.Context, tx repositories.Tx, id uuid.UUID, ownerID *uuid.UUID) (*models.Campaign, error) {
	c, err := tx.LockCampaign(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrCampaignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock campaign: %w", err)
	}
	if ownerID != nil && c.AccountID != *ownerID {
		return nil, ErrCampaignNotFound
	}
	return c, nil
}

func (s *CampaignService) audit(ctx context.Context, actorID *uuid.UUID, actorType, action string, campaignID uuid.UUID, meta map[string]any) {
	entry := models.AuditLog{
		ActorAccountID: actorID,
		ActorType:      actorType,
		Action:         action,
		EntityType:     "campaign",
		EntityID:       &campaignID,
	}
	if meta != nil {
		entry.Meta = meta
	}
	if err := s.store.LogAudit(ctx, entry); err != nil {
		s.log.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}
