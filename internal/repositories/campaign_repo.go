package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sms-campaigns/backend/internal/models"
)

type CampaignRepo struct {
	db DBTX
}

func NewCampaignRepo(db DBTX) *CampaignRepo {
	return &CampaignRepo{db: db}
}

// status is a generated column derived from status_code and is only read by
// humans and dashboards; the code is the source of truth.
const campaignColumns = `id, account_id, template_id, title, message_type, status_code,
	target_count, sent_count, success_count, budget, cost_per_message, charged_amount,
	gateway_campaign_id, rejection_reason, scheduled_at, completed_at, created_at, updated_at`

func scanCampaign(row pgx.Row) (*models.Campaign, error) {
	var c models.Campaign
	var code int16
	err := row.Scan(&c.ID, &c.AccountID, &c.TemplateID, &c.Title, &c.MessageType, &code,
		&c.TargetCount, &c.SentCount, &c.SuccessCount, &c.Budget, &c.CostPerMessage, &c.ChargedAmount,
		&c.GatewayCampaignID, &c.RejectionReason, &c.ScheduledAt, &c.CompletedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Status = models.CampaignStatus(code)
	return &c, nil
}

func (r *CampaignRepo) Create(ctx context.Context, c *models.Campaign) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO campaigns (account_id, template_id, title, message_type, status_code,
			target_count, budget, cost_per_message, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, c.AccountID, c.TemplateID, c.Title, c.MessageType, int16(c.Status),
		c.TargetCount, c.Budget, c.CostPerMessage, c.ScheduledAt,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return translateError(err)
}

func (r *CampaignRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	c, err := scanCampaign(r.db.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id))
	if err != nil {
		return nil, translateError(err)
	}
	return c, nil
}

func (r *CampaignRepo) LockByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	c, err := scanCampaign(r.db.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, translateError(err)
	}
	return c, nil
}

// Update writes every mutable column, so draft edits and status changes share
// one statement.
func (r *CampaignRepo) Update(ctx context.Context, c *models.Campaign) error {
	err := r.db.QueryRow(ctx, `
		UPDATE campaigns SET template_id = $1, title = $2, message_type = $3, status_code = $4,
		       target_count = $5, sent_count = $6, success_count = $7, budget = $8,
		       cost_per_message = $9, charged_amount = $10, gateway_campaign_id = $11,
		       rejection_reason = $12, scheduled_at = $13, completed_at = $14,
		       updated_at = now()
		WHERE id = $15
		RETURNING updated_at
	`, c.TemplateID, c.Title, c.MessageType, int16(c.Status),
		c.TargetCount, c.SentCount, c.SuccessCount, c.Budget,
		c.CostPerMessage, c.ChargedAmount, c.GatewayCampaignID,
		c.RejectionReason, c.ScheduledAt, c.CompletedAt, c.ID,
	).Scan(&c.UpdatedAt)
	return translateError(err)
}

func (r *CampaignRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	return err
}

func (r *CampaignRepo) List(ctx context.Context, f CampaignFilter) ([]models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.AccountID != nil {
		where = append(where, fmt.Sprintf("account_id = $%d", argIdx))
		args = append(args, *f.AccountID)
		argIdx++
	}
	if f.Status != nil {
		where = append(where, fmt.Sprintf("status_code = $%d", argIdx))
		args = append(args, int16(*f.Status))
		argIdx++
	}

	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, normalizeLimit(f.Limit), f.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, *c)
	}
	return campaigns, rows.Err()
}
