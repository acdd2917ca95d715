package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/qhosting/cloudsms/internal/models"
)

const messageColumns = `id, campaign_id, contact_id, phone, rendered_text, encoding, status, credits_used,
	external_id, attempts, error, sent_at, delivered_at, created_at, updated_at`

type messageRepository struct {
	db dbtx
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepository{db: db}
}

// CreateBatch inserts messages with a single multi-row statement.
func (r *messageRepository) CreateBatch(ctx context.Context, messages []models.Message) error {
	if len(messages) == 0 {
		return nil
	}

	query := `
		INSERT INTO messages (campaign_id, contact_id, phone, rendered_text, encoding, status, credits_used, created_at, updated_at)
		VALUES (:campaign_id, :contact_id, :phone, :rendered_text, :encoding, :status, :credits_used, :created_at, :updated_at)`

	if _, err := r.db.NamedExecContext(ctx, query, messages); err != nil {
		return fmt.Errorf("failed to create messages: %w", err)
	}

	return nil
}

// GetByID retrieves a message by id.
func (r *messageRepository) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	return r.getOne(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id)
}

// GetByExternalID retrieves a message by its carrier-assigned id.
func (r *messageRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Message, error) {
	return r.getOne(ctx, `SELECT `+messageColumns+` FROM messages WHERE external_id = $1`, externalID)
}

func (r *messageRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.Message, error) {
	var msg models.Message
	if err := r.db.GetContext(ctx, &msg, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &msg, nil
}

// GetPendingByCampaign pages through PENDING messages of a campaign by id.
func (r *messageRepository) GetPendingByCampaign(ctx context.Context, campaignID, afterID int64, limit int) ([]*models.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE campaign_id = $1 AND status = $2 AND id > $3
		ORDER BY id ASC
		LIMIT $4
	`

	var messages []*models.Message
	if err := r.db.SelectContext(ctx, &messages, query, campaignID, models.MessageStatusPending, afterID, limit); err != nil {
		return nil, fmt.Errorf("failed to get pending messages: %w", err)
	}

	return messages, nil
}

// MarkSent records carrier acceptance of a PENDING message.
func (r *messageRepository) MarkSent(ctx context.Context, id int64, externalID string) (bool, error) {
	query := `
		UPDATE messages
		SET status = $2,
		    external_id = $3,
		    attempts = attempts + 1,
		    error = NULL,
		    sent_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1 AND status = $4
	`

	res, err := r.db.ExecContext(ctx, query, id, models.MessageStatusSent, externalID, models.MessageStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to mark message sent: %w", err)
	}

	return changed(res)
}

// MarkFailed records a carrier rejection of a PENDING message.
func (r *messageRepository) MarkFailed(ctx context.Context, id int64, errorMsg string) (bool, error) {
	query := `
		UPDATE messages
		SET status = $2,
		    attempts = attempts + 1,
		    error = $3,
		    updated_at = NOW()
		WHERE id = $1 AND status = $4
	`

	res, err := r.db.ExecContext(ctx, query, id, models.MessageStatusFailed, errorMsg, models.MessageStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to mark message failed: %w", err)
	}

	return changed(res)
}

// RecordAttempt counts a transient submission failure and returns the
// total number of attempts so far.
func (r *messageRepository) RecordAttempt(ctx context.Context, id int64, errorMsg string) (int, error) {
	query := `
		UPDATE messages
		SET attempts = attempts + 1,
		    error = $2,
		    updated_at = NOW()
		WHERE id = $1 AND status = $3
		RETURNING attempts
	`

	var attempts int
	if err := r.db.GetContext(ctx, &attempts, query, id, errorMsg, models.MessageStatusPending); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrConflict
		}
		return 0, fmt.Errorf("failed to record attempt: %w", err)
	}

	return attempts, nil
}

// ApplyOutcome implements MessageRepository.
func (r *messageRepository) ApplyOutcome(ctx context.Context, id int64, status models.MessageStatus, detail string) (bool, error) {
	if !status.IsTerminal() {
		return false, fmt.Errorf("status %s is not terminal", status)
	}

	query := `
		UPDATE messages
		SET status = $2,
		    delivered_at = CASE WHEN $3 THEN NOW() ELSE delivered_at END,
		    error = CASE WHEN $4 = '' THEN error ELSE $4 END,
		    updated_at = NOW()
		WHERE id = $1 AND status IN ($5, $6)
	`

	delivered := status == models.MessageStatusDelivered
	res, err := r.db.ExecContext(ctx, query, id, status, delivered, detail,
		models.MessageStatusPending, models.MessageStatusSent)
	if err != nil {
		return false, fmt.Errorf("failed to apply delivery outcome: %w", err)
	}

	return changed(res)
}

// SumCreditsByCampaign returns the credits billed for a campaign's messages.
func (r *messageRepository) SumCreditsByCampaign(ctx context.Context, campaignID int64) (int, error) {
	var total int
	query := `SELECT COALESCE(SUM(credits_used), 0) FROM messages WHERE campaign_id = $1`

	if err := r.db.GetContext(ctx, &total, query, campaignID); err != nil {
		return 0, fmt.Errorf("failed to sum campaign credits: %w", err)
	}

	return total, nil
}

// CountByStatus returns the number of messages per status for a campaign.
func (r *messageRepository) CountByStatus(ctx context.Context, campaignID int64) (map[models.MessageStatus]int, error) {
	query := `SELECT status, COUNT(*) AS count FROM messages WHERE campaign_id = $1 GROUP BY status`

	var rows []struct {
		Status models.MessageStatus `db:"status"`
		Count  int                  `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, campaignID); err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	counts := make(map[models.MessageStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}

	return counts, nil
}

func changed(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}
