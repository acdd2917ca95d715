package repository

import (
	"context"
	"time"

	"github.com/qhosting/cloudsms/internal/models"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_repository.go -package=mocks

// Repository interface defines all repository operations.
type Repository interface {
	// Ping checks database connectivity
	Ping() error

	// WithTx runs fn inside a single transaction. The transaction commits when
	// fn returns nil and rolls back on error or panic. Calling WithTx on the
	// Repository handed to fn joins the running transaction.
	WithTx(ctx context.Context, fn func(tx Repository) error) error

	Campaign() CampaignRepository
	Message() MessageRepository
	Contact() ContactRepository
	Company() CompanyRepository
	Delivery() DeliveryRepository
}

// CampaignRepository interface defines campaign operations.
type CampaignRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Campaign, error)
	// MarkSending moves a DRAFT or SCHEDULED campaign to SENDING. It returns
	// ErrConflict when the campaign is in any other status.
	MarkSending(ctx context.Context, id int64, totalRecipients, estimatedCost int) error
	IncrementCounters(ctx context.Context, id int64, sent, delivered, failed int) error
	// Finalize closes a SENDING campaign that has no PENDING messages left.
	Finalize(ctx context.Context, id int64) (models.CampaignStatus, bool, error)
	ListSending(ctx context.Context, limit int) ([]int64, error)
	ListWithStalePending(ctx context.Context, staleBefore time.Time, limit int) ([]int64, error)
}

// MessageRepository interface defines message operations.
type MessageRepository interface {
	CreateBatch(ctx context.Context, messages []models.Message) error
	GetByID(ctx context.Context, id int64) (*models.Message, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.Message, error)
	GetPendingByCampaign(ctx context.Context, campaignID, afterID int64, limit int) ([]*models.Message, error)
	MarkSent(ctx context.Context, id int64, externalID string) (bool, error)
	MarkFailed(ctx context.Context, id int64, errorMsg string) (bool, error)
	RecordAttempt(ctx context.Context, id int64, errorMsg string) (int, error)
	// ApplyOutcome moves a PENDING or SENT message into a terminal status and
	// reports whether a row changed.
	ApplyOutcome(ctx context.Context, id int64, status models.MessageStatus, detail string) (bool, error)
	SumCreditsByCampaign(ctx context.Context, campaignID int64) (int, error)
	CountByStatus(ctx context.Context, campaignID int64) (map[models.MessageStatus]int, error)
}

// ContactRepository interface defines read-only contact operations.
type ContactRepository interface {
	GetValidByList(ctx context.Context, listID int64) ([]*models.Contact, error)
	// GetValidByCompany returns valid contacts of every list of the company,
	// lists ordered by creation, contacts by id.
	GetValidByCompany(ctx context.Context, companyID int64) ([]*models.Contact, error)
}

// CompanyRepository interface defines balance and ledger operations.
type CompanyRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Company, error)
	// Debit subtracts amount if the balance covers it and returns the new balance.
	Debit(ctx context.Context, id int64, amount int) (int, error)
	Credit(ctx context.Context, id int64, amount int) (int, error)
	AppendLedgerEntry(ctx context.Context, entry *models.CreditLedgerEntry) error
	GetLedgerEntries(ctx context.Context, companyID int64, limit int) ([]*models.CreditLedgerEntry, error)
}

// DeliveryRepository interface defines the delivery report audit trail.
type DeliveryRepository interface {
	Record(ctx context.Context, record *models.DeliveryReportRecord) error
	GetByMessage(ctx context.Context, messageID int64) ([]*models.DeliveryReportRecord, error)
}
