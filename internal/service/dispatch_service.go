package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/qhosting/cloudsms/internal/config"
	"github.com/qhosting/cloudsms/internal/models"
	"github.com/qhosting/cloudsms/internal/queue"
	"github.com/qhosting/cloudsms/internal/repository"
)

const (
	defaultBatchSize = 100
	publishTimeout   = 5 * time.Second
)

type dispatchService struct {
	cfg       *config.DispatchConfig
	repo      repository.Repository
	estimator CostEstimator
	ledger    LedgerService
	queue     queue.Queue
	logger    *zap.Logger
}

func NewDispatchService(
	cfg *config.DispatchConfig,
	repo repository.Repository,
	estimator CostEstimator,
	ledger LedgerService,
	q queue.Queue,
	logger *zap.Logger,
) DispatchService {
	return &dispatchService{
		cfg:       cfg,
		repo:      repo,
		estimator: estimator,
		ledger:    ledger,
		queue:     q,
		logger:    logger,
	}
}

// Dispatch moves a campaign into SENDING, creates one PENDING message per
// recipient and charges the company, all in one transaction. Submission to
// the carrier happens afterwards on the submission pool.
func (s *dispatchService) Dispatch(ctx context.Context, campaignID int64) (*DispatchResult, error) {
	campaign, err := s.repo.Campaign().GetByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("campaign %d: %w", campaignID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	if !campaign.Status.IsDispatchable() {
		return nil, fmt.Errorf("campaign %d is %s: %w", campaignID, campaign.Status, ErrInvalidState)
	}

	estimate, err := s.estimator.EstimateCampaign(ctx, s.repo, campaign)
	if err != nil {
		return nil, err
	}
	if len(estimate.Recipients) == 0 {
		return nil, ErrNoRecipients
	}

	company, err := s.repo.Company().GetByID(ctx, campaign.CompanyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("company %d: %w", campaign.CompanyID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	if company.CreditBalance < estimate.TotalCredits {
		return nil, ErrInsufficientCredits
	}

	// The transaction must not be torn down by a client disconnect.
	txCtx := context.WithoutCancel(ctx)

	var result *DispatchResult
	err = s.repo.WithTx(txCtx, func(tx repository.Repository) error {
		if err := tx.Campaign().MarkSending(txCtx, campaign.ID, len(estimate.Recipients), estimate.TotalCredits); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("campaign %d: %w", campaign.ID, ErrInvalidState)
			}
			return fmt.Errorf("failed to mark campaign sending: %w", err)
		}

		if err := s.insertMessages(txCtx, tx, campaign.ID, estimate.Recipients); err != nil {
			return err
		}

		// The charge must equal the sum of what the stored messages carry.
		billed, err := tx.Message().SumCreditsByCampaign(txCtx, campaign.ID)
		if err != nil {
			return fmt.Errorf("failed to sum campaign credits: %w", err)
		}
		if billed != estimate.TotalCredits {
			return fmt.Errorf("campaign %d messages carry %d credits, estimated %d: %w",
				campaign.ID, billed, estimate.TotalCredits, ErrCreditMismatch)
		}

		entry, err := s.ledger.Charge(txCtx, tx, campaign.CompanyID, estimate.TotalCredits,
			fmt.Sprintf("Campaign %q", campaign.Name), campaignReference(campaign.ID))
		if err != nil {
			return err
		}

		result = &DispatchResult{
			CampaignID:     campaign.ID,
			TotalMessages:  len(estimate.Recipients),
			CreditsCharged: estimate.TotalCredits,
			BalanceAfter:   entry.BalanceAfter,
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("Campaign dispatch rolled back",
			zap.Int64("campaign_id", campaign.ID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Campaign dispatched",
		zap.Int64("campaign_id", result.CampaignID),
		zap.Int("messages", result.TotalMessages),
		zap.Int("credits", result.CreditsCharged),
		zap.Int("balance_after", result.BalanceAfter))

	pubCtx, cancel := context.WithTimeout(txCtx, publishTimeout)
	defer cancel()
	if err := s.queue.Publish(pubCtx, campaign.ID); err != nil {
		// The recovery sweep resubmits stale PENDING messages.
		s.logger.Error("Failed to queue dispatched campaign",
			zap.Int64("campaign_id", campaign.ID),
			zap.Error(err))
	}

	return result, nil
}

func (s *dispatchService) insertMessages(ctx context.Context, tx repository.Repository, campaignID int64, recipients []*RenderedMessage) error {
	batchSize := s.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	now := time.Now()
	for start := 0; start < len(recipients); start += batchSize {
		end := start + batchSize
		if end > len(recipients) {
			end = len(recipients)
		}

		batch := make([]models.Message, 0, end-start)
		for _, r := range recipients[start:end] {
			batch = append(batch, models.Message{
				CampaignID:   campaignID,
				ContactID:    r.Contact.ID,
				Phone:        r.Contact.Phone,
				RenderedText: r.Text,
				Encoding:     string(r.Encoding.Type),
				Status:       models.MessageStatusPending,
				CreditsUsed:  r.Credits(),
				CreatedAt:    now,
				UpdatedAt:    now,
			})
		}

		if err := tx.Message().CreateBatch(ctx, batch); err != nil {
			return fmt.Errorf("failed to create messages %d-%d: %w", start, end, err)
		}
	}

	return nil
}

// campaignReference is the ledger reference of a campaign charge: its bare id.
func campaignReference(campaignID int64) string {
	return strconv.FormatInt(campaignID, 10)
}
