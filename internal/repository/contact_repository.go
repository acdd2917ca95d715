package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/qhosting/cloudsms/internal/models"
)

type contactRepository struct {
	db dbtx
}

func NewContactRepository(db *sqlx.DB) ContactRepository {
	return &contactRepository{db: db}
}

// GetValidByList retrieves the valid contacts of a list ordered by id.
func (r *contactRepository) GetValidByList(ctx context.Context, listID int64) ([]*models.Contact, error) {
	query := `
		SELECT id, list_id, phone, first_name, last_name, company_name, is_valid, created_at
		FROM contacts
		WHERE list_id = $1 AND is_valid
		ORDER BY id ASC
	`

	var contacts []*models.Contact
	if err := r.db.SelectContext(ctx, &contacts, query, listID); err != nil {
		return nil, fmt.Errorf("failed to get contacts by list: %w", err)
	}

	return contacts, nil
}

// GetValidByCompany implements ContactRepository.
func (r *contactRepository) GetValidByCompany(ctx context.Context, companyID int64) ([]*models.Contact, error) {
	query := `
		SELECT c.id, c.list_id, c.phone, c.first_name, c.last_name, c.company_name, c.is_valid, c.created_at
		FROM contacts c
		JOIN contact_lists l ON l.id = c.list_id
		WHERE l.company_id = $1 AND c.is_valid
		ORDER BY l.created_at ASC, l.id ASC, c.id ASC
	`

	var contacts []*models.Contact
	if err := r.db.SelectContext(ctx, &contacts, query, companyID); err != nil {
		return nil, fmt.Errorf("failed to get contacts by company: %w", err)
	}

	return contacts, nil
}
