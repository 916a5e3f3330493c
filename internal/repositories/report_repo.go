package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/sms-campaigns/backend/internal/models"
)

type ReportRepo struct {
	db DBTX
}

func NewReportRepo(db DBTX) *ReportRepo {
	return &ReportRepo{db: db}
}

func (r *ReportRepo) Create(ctx context.Context, rep *models.Report) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO campaign_reports (campaign_id, sent, delivered, failed, clicks, opt_outs)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, rep.CampaignID, rep.Sent, rep.Delivered, rep.Failed, rep.Clicks, rep.OptOuts,
	).Scan(&rep.ID, &rep.CreatedAt, &rep.UpdatedAt)
	return translateError(err)
}

const reportColumns = `id, campaign_id, sent, delivered, failed, clicks, opt_outs, created_at, updated_at`

func (r *ReportRepo) GetByCampaignID(ctx context.Context, campaignID uuid.UUID) (*models.Report, error) {
	return r.get(ctx, `SELECT `+reportColumns+` FROM campaign_reports WHERE campaign_id = $1`, campaignID)
}

func (r *ReportRepo) LockByCampaignID(ctx context.Context, campaignID uuid.UUID) (*models.Report, error) {
	return r.get(ctx, `SELECT `+reportColumns+` FROM campaign_reports WHERE campaign_id = $1 FOR UPDATE`, campaignID)
}

func (r *ReportRepo) get(ctx context.Context, query string, campaignID uuid.UUID) (*models.Report, error) {
	var rep models.Report
	err := r.db.QueryRow(ctx, query, campaignID).Scan(&rep.ID, &rep.CampaignID, &rep.Sent, &rep.Delivered,
		&rep.Failed, &rep.Clicks, &rep.OptOuts, &rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return &rep, nil
}

func (r *ReportRepo) Update(ctx context.Context, rep *models.Report) error {
	_, err := r.db.Exec(ctx, `
		UPDATE campaign_reports SET sent = $1, delivered = $2, failed = $3, clicks = $4, opt_outs = $5, updated_at = now()
		WHERE id = $6
	`, rep.Sent, rep.Delivered, rep.Failed, rep.Clicks, rep.OptOuts, rep.ID)
	return err
}
