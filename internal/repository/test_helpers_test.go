package repository_test

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/qhosting/cloudsms/internal/models"
)

func insertTestCompany(db *sql.DB, name string, balance int) (int64, error) {
	var id int64
	query := `INSERT INTO companies (name, credit_balance) VALUES ($1, $2) RETURNING id`

	if err := db.QueryRow(query, name, balance).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert test company: %w", err)
	}

	return id, nil
}

func insertTestList(db *sql.DB, companyID int64, name string, createdAt time.Time) (int64, error) {
	var id int64
	query := `INSERT INTO contact_lists (company_id, name, created_at) VALUES ($1, $2, $3) RETURNING id`

	if err := db.QueryRow(query, companyID, name, createdAt).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert test list: %w", err)
	}

	return id, nil
}

func insertTestContact(db *sql.DB, listID int64, phone string, firstName *string, valid bool) (int64, error) {
	var id int64
	query := `INSERT INTO contacts (list_id, phone, first_name, is_valid) VALUES ($1, $2, $3, $4) RETURNING id`

	if err := db.QueryRow(query, listID, phone, firstName, valid).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert test contact: %w", err)
	}

	return id, nil
}

func insertTestCampaign(db *sql.DB, companyID int64, listID *int64, status models.CampaignStatus) (int64, error) {
	var id int64
	target := models.TargetTypeAllContacts
	if listID != nil {
		target = models.TargetTypeList
	}
	query := `
		INSERT INTO campaigns (company_id, name, message, target_type, contact_list_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	if err := db.QueryRow(query, companyID, "Test campaign", "Hola {firstName}", target, listID, status).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert test campaign: %w", err)
	}

	return id, nil
}

func newTestMessage(campaignID int64, contactID int64, phone string, credits int) models.Message {
	now := time.Now()
	return models.Message{
		CampaignID:   campaignID,
		ContactID:    contactID,
		Phone:        phone,
		RenderedText: "Hola " + phone,
		Encoding:     "GSM7",
		Status:       models.MessageStatusPending,
		CreditsUsed:  credits,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func ptr(s string) *string {
	return &s
}
