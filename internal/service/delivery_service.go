package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/qhosting/cloudsms/internal/models"
	"github.com/qhosting/cloudsms/internal/repository"
)

type deliveryService struct {
	repo   repository.Repository
	cache  *ExternalIDCache
	logger *zap.Logger
}

func NewDeliveryService(repo repository.Repository, cache *ExternalIDCache, logger *zap.Logger) DeliveryService {
	return &deliveryService{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// Reconcile applies a carrier delivery report. Replays of a report are
// recorded for audit but change neither the message nor the campaign counts.
func (s *deliveryService) Reconcile(ctx context.Context, report *models.DeliveryReport) (*ReconcileResult, error) {
	subID := strings.TrimSpace(report.SubID)
	if subID == "" || strings.TrimSpace(report.Desc) == "" {
		return nil, ErrMalformedWebhook
	}

	msg, err := s.lookup(ctx, subID)
	if err != nil {
		if errors.Is(err, ErrUnknownExternalID) {
			s.logger.Warn("Delivery report for unknown message",
				zap.String("subid", subID),
				zap.String("desc", report.Desc))
		}
		return nil, err
	}

	outcome := report.Outcome()
	result := &ReconcileResult{
		MessageID:  msg.ID,
		CampaignID: msg.CampaignID,
		Outcome:    outcome,
	}

	err = s.repo.WithTx(ctx, func(tx repository.Repository) error {
		applied := false

		// a message already settled keeps its outcome; the report is only audited
		if status, final := outcome.MessageStatus(); final && msg.Status.CanTransitionTo(status) {
			detail := ""
			if status == models.MessageStatusFailed {
				detail = failureDetail(report)
			}

			changed, err := tx.Message().ApplyOutcome(ctx, msg.ID, status, detail)
			if err != nil {
				return err
			}
			if changed {
				delivered, failed := 0, 0
				if status == models.MessageStatusDelivered {
					delivered = 1
				} else {
					failed = 1
				}
				if err := tx.Campaign().IncrementCounters(ctx, msg.CampaignID, 0, delivered, failed); err != nil {
					return err
				}
			}
			applied = changed
		}

		record := &models.DeliveryReportRecord{
			MessageID:  msg.ID,
			ExternalID: subID,
			AckLevel:   report.AckLevel,
			Type:       report.Type,
			Desc:       report.Desc,
			Status:     report.Status,
			Timestamp:  nullString(report.Timestamp),
			MSISDN:     nullString(report.MSISDN),
			Outcome:    outcome,
			Applied:    applied,
		}
		if err := tx.Delivery().Record(ctx, record); err != nil {
			return err
		}

		result.Applied = applied
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply delivery report: %w", err)
	}

	s.logger.Info("Delivery report processed",
		zap.Int64("message_id", msg.ID),
		zap.String("subid", subID),
		zap.String("outcome", string(outcome)),
		zap.Bool("applied", result.Applied))

	return result, nil
}

// Reports returns the delivery reports received for a message, oldest first.
func (s *deliveryService) Reports(ctx context.Context, messageID int64) ([]*models.DeliveryReportRecord, error) {
	if _, err := s.repo.Message().GetByID(ctx, messageID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("message %d: %w", messageID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	records, err := s.repo.Delivery().GetByMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (s *deliveryService) lookup(ctx context.Context, externalID string) (*models.Message, error) {
	if id, ok := s.cache.Get(ctx, externalID); ok {
		msg, err := s.repo.Message().GetByID(ctx, id)
		if err == nil {
			return msg, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to get message: %w", err)
		}
	}

	msg, err := s.repo.Message().GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownExternalID
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return msg, nil
}

func failureDetail(report *models.DeliveryReport) string {
	detail := strings.TrimSpace(report.Desc)
	if report.Status != "" {
		detail += " (" + report.Status + ")"
	}
	return detail
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
