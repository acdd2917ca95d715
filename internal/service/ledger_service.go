package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/qhosting/cloudsms/internal/models"
	"github.com/qhosting/cloudsms/internal/repository"
)

const defaultLedgerLimit = 50

type ledgerService struct {
	repo   repository.Repository
	logger *zap.Logger
}

func NewLedgerService(repo repository.Repository, logger *zap.Logger) LedgerService {
	return &ledgerService{
		repo:   repo,
		logger: logger,
	}
}

func (s *ledgerService) Charge(ctx context.Context, tx repository.Repository, companyID int64, amount int, description, reference string) (*models.CreditLedgerEntry, error) {
	balance, err := tx.Company().Debit(ctx, companyID, amount)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientBalance):
			return nil, ErrInsufficientCredits
		case errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("company %d: %w", companyID, ErrNotFound)
		default:
			return nil, fmt.Errorf("failed to debit credits: %w", err)
		}
	}

	entry := &models.CreditLedgerEntry{
		CompanyID:    companyID,
		Type:         models.LedgerEntryUsage,
		Delta:        -amount,
		BalanceAfter: balance,
		Description:  description,
		Reference:    reference,
	}
	if err := tx.Company().AppendLedgerEntry(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

func (s *ledgerService) TopUp(ctx context.Context, companyID int64, amount int, description, reference string) (*models.CreditLedgerEntry, error) {
	return s.credit(ctx, companyID, amount, models.LedgerEntryTopUp, description, reference)
}

func (s *ledgerService) Refund(ctx context.Context, companyID int64, amount int, description, reference string) (*models.CreditLedgerEntry, error) {
	return s.credit(ctx, companyID, amount, models.LedgerEntryRefund, description, reference)
}

func (s *ledgerService) credit(ctx context.Context, companyID int64, amount int, typ models.LedgerEntryType, description, reference string) (*models.CreditLedgerEntry, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var entry *models.CreditLedgerEntry
	err := s.repo.WithTx(ctx, func(tx repository.Repository) error {
		balance, err := tx.Company().Credit(ctx, companyID, amount)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("company %d: %w", companyID, ErrNotFound)
			}
			return fmt.Errorf("failed to credit company: %w", err)
		}

		entry = &models.CreditLedgerEntry{
			CompanyID:    companyID,
			Type:         typ,
			Delta:        amount,
			BalanceAfter: balance,
			Description:  description,
			Reference:    reference,
		}
		return tx.Company().AppendLedgerEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Company credited",
		zap.Int64("company_id", companyID),
		zap.String("type", string(typ)),
		zap.Int("amount", amount),
		zap.Int("balance_after", entry.BalanceAfter))

	return entry, nil
}

// History returns the newest entries first.
func (s *ledgerService) History(ctx context.Context, companyID int64, limit int) ([]*models.CreditLedgerEntry, error) {
	if limit <= 0 {
		limit = defaultLedgerLimit
	}

	if _, err := s.Balance(ctx, companyID); err != nil {
		return nil, err
	}

	entries, err := s.repo.Company().GetLedgerEntries(ctx, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}

	return entries, nil
}

func (s *ledgerService) Balance(ctx context.Context, companyID int64) (int, error) {
	company, err := s.repo.Company().GetByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, fmt.Errorf("company %d: %w", companyID, ErrNotFound)
		}
		return 0, fmt.Errorf("failed to get company: %w", err)
	}

	return company.CreditBalance, nil
}
