package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/qhosting/cloudsms/internal/models"
)

const campaignColumns = `id, company_id, name, message, target_type, contact_list_id, status,
	total_recipients, sent_count, delivered_count, failed_count, estimated_cost,
	started_at, completed_at, created_at, updated_at`

type campaignRepository struct {
	db dbtx
}

func NewCampaignRepository(db *sqlx.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

// GetByID retrieves a campaign by its id.
func (r *campaignRepository) GetByID(ctx context.Context, id int64) (*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`

	var campaign models.Campaign
	if err := r.db.GetContext(ctx, &campaign, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	return &campaign, nil
}

// MarkSending is a compare-and-swap on the campaign status. Concurrent callers
// serialize on the row lock; the loser re-evaluates the predicate against
// SENDING and updates nothing.
func (r *campaignRepository) MarkSending(ctx context.Context, id int64, totalRecipients, estimatedCost int) error {
	query := `
		UPDATE campaigns
		SET status = $2,
		    total_recipients = $3,
		    estimated_cost = $4,
		    started_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1 AND status IN ($5, $6)
	`

	res, err := r.db.ExecContext(ctx, query, id, models.CampaignStatusSending, totalRecipients, estimatedCost,
		models.CampaignStatusDraft, models.CampaignStatusScheduled)
	if err != nil {
		return fmt.Errorf("failed to mark campaign sending: %w", err)
	}

	return expectOneRow(res, ErrConflict)
}

// IncrementCounters adds the given deltas to the campaign aggregates.
func (r *campaignRepository) IncrementCounters(ctx context.Context, id int64, sent, delivered, failed int) error {
	query := `
		UPDATE campaigns
		SET sent_count = sent_count + $2,
		    delivered_count = delivered_count + $3,
		    failed_count = failed_count + $4,
		    updated_at = NOW()
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, sent, delivered, failed)
	if err != nil {
		return fmt.Errorf("failed to increment campaign counters: %w", err)
	}

	return expectOneRow(res, ErrNotFound)
}

// Finalize implements CampaignRepository.
func (r *campaignRepository) Finalize(ctx context.Context, id int64) (models.CampaignStatus, bool, error) {
	query := `
		UPDATE campaigns
		SET status = CASE WHEN failed_count >= total_recipients THEN $3 ELSE $2 END,
		    completed_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1
		  AND status = $4
		  AND NOT EXISTS (SELECT 1 FROM messages WHERE campaign_id = $1 AND status = $5)
		RETURNING status
	`

	var status models.CampaignStatus
	err := r.db.GetContext(ctx, &status, query, id,
		models.CampaignStatusCompleted, models.CampaignStatusFailed, models.CampaignStatusSending, models.MessageStatusPending)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to finalize campaign: %w", err)
	}

	return status, true, nil
}

// ListSending returns ids of campaigns currently in SENDING.
func (r *campaignRepository) ListSending(ctx context.Context, limit int) ([]int64, error) {
	query := `SELECT id FROM campaigns WHERE status = $1 ORDER BY started_at ASC, id ASC LIMIT $2`

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, models.CampaignStatusSending, limit); err != nil {
		return nil, fmt.Errorf("failed to list sending campaigns: %w", err)
	}

	return ids, nil
}

// ListWithStalePending returns SENDING campaigns holding PENDING messages
// that were not touched since staleBefore.
func (r *campaignRepository) ListWithStalePending(ctx context.Context, staleBefore time.Time, limit int) ([]int64, error) {
	query := `
		SELECT DISTINCT c.id
		FROM campaigns c
		JOIN messages m ON m.campaign_id = c.id
		WHERE c.status = $1 AND m.status = $2 AND m.updated_at < $3
		ORDER BY c.id
		LIMIT $4
	`

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, models.CampaignStatusSending, models.MessageStatusPending, staleBefore, limit); err != nil {
		return nil, fmt.Errorf("failed to list campaigns with stale messages: %w", err)
	}

	return ids, nil
}

func expectOneRow(res sql.Result, noRowsErr error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return noRowsErr
	}
	return nil
}
