package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/qhosting/cloudsms/internal/models"
)

type companyRepository struct {
	db dbtx
}

func NewCompanyRepository(db *sqlx.DB) CompanyRepository {
	return &companyRepository{db: db}
}

// GetByID retrieves a company by id.
func (r *companyRepository) GetByID(ctx context.Context, id int64) (*models.Company, error) {
	query := `SELECT id, name, credit_balance, created_at, updated_at FROM companies WHERE id = $1`

	var company models.Company
	if err := r.db.GetContext(ctx, &company, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	return &company, nil
}

// Debit implements CompanyRepository. The balance guard lives in the WHERE
// clause so a concurrent debit can never take the balance below zero.
func (r *companyRepository) Debit(ctx context.Context, id int64, amount int) (int, error) {
	if amount < 0 {
		return 0, fmt.Errorf("debit amount must not be negative: %d", amount)
	}

	query := `
		UPDATE companies
		SET credit_balance = credit_balance - $2,
		    updated_at = NOW()
		WHERE id = $1 AND credit_balance >= $2
		RETURNING credit_balance
	`

	var balance int
	if err := r.db.GetContext(ctx, &balance, query, id, amount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return 0, getErr
			}
			return 0, ErrInsufficientBalance
		}
		return 0, fmt.Errorf("failed to debit company balance: %w", err)
	}

	return balance, nil
}

// Credit adds amount to the balance and returns the new balance.
func (r *companyRepository) Credit(ctx context.Context, id int64, amount int) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount must be positive: %d", amount)
	}

	query := `
		UPDATE companies
		SET credit_balance = credit_balance + $2,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING credit_balance
	`

	var balance int
	if err := r.db.GetContext(ctx, &balance, query, id, amount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to credit company balance: %w", err)
	}

	return balance, nil
}

// AppendLedgerEntry inserts entry and fills its id and creation time.
func (r *companyRepository) AppendLedgerEntry(ctx context.Context, entry *models.CreditLedgerEntry) error {
	query := `
		INSERT INTO credit_ledger_entries (company_id, type, delta, balance_after, description, reference)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		entry.CompanyID, entry.Type, entry.Delta, entry.BalanceAfter, entry.Description, entry.Reference,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}

	return nil
}

// GetLedgerEntries lists the most recent ledger entries of a company.
func (r *companyRepository) GetLedgerEntries(ctx context.Context, companyID int64, limit int) ([]*models.CreditLedgerEntry, error) {
	query := `
		SELECT id, company_id, type, delta, balance_after, description, reference, created_at
		FROM credit_ledger_entries
		WHERE company_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	var entries []*models.CreditLedgerEntry
	if err := r.db.SelectContext(ctx, &entries, query, companyID, limit); err != nil {
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}

	return entries, nil
}
