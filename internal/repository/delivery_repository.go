package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/qhosting/cloudsms/internal/models"
)

type deliveryRepository struct {
	db dbtx
}

func NewDeliveryRepository(db *sqlx.DB) DeliveryRepository {
	return &deliveryRepository{db: db}
}

// Record appends a delivery report to the audit trail.
func (r *deliveryRepository) Record(ctx context.Context, record *models.DeliveryReportRecord) error {
	query := `
		INSERT INTO delivery_reports
			(message_id, external_id, ack_level, type, descriptor, status, carrier_timestamp, msisdn, outcome, applied)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, received_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		record.MessageID, record.ExternalID, record.AckLevel, record.Type, record.Desc, record.Status,
		record.Timestamp, record.MSISDN, record.Outcome, record.Applied,
	).Scan(&record.ID, &record.ReceivedAt)
	if err != nil {
		return fmt.Errorf("failed to record delivery report: %w", err)
	}

	return nil
}

// GetByMessage lists the reports received for a message, oldest first.
func (r *deliveryRepository) GetByMessage(ctx context.Context, messageID int64) ([]*models.DeliveryReportRecord, error) {
	query := `
		SELECT id, message_id, external_id, ack_level, type, descriptor, status, carrier_timestamp, msisdn,
		       outcome, applied, received_at
		FROM delivery_reports
		WHERE message_id = $1
		ORDER BY id ASC
	`

	var records []*models.DeliveryReportRecord
	if err := r.db.SelectContext(ctx, &records, query, messageID); err != nil {
		return nil, fmt.Errorf("failed to get delivery reports: %w", err)
	}

	return records, nil
}
