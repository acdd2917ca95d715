package service

import (
	"context"

	"github.com/qhosting/cloudsms/internal/api"
	"github.com/qhosting/cloudsms/internal/models"
	"github.com/qhosting/cloudsms/internal/repository"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_service.go -package=mocks

type CostEstimator interface {
	Estimate(ctx context.Context, campaignID int64) (*Estimate, error)
	// EstimateCampaign resolves recipients through repo, which may be a
	// transaction scope.
	EstimateCampaign(ctx context.Context, repo repository.Repository, campaign *models.Campaign) (*Estimate, error)
	Preview(ctx context.Context, campaignID int64, limit int) ([]*PreviewItem, error)
}

type DispatchService interface {
	Dispatch(ctx context.Context, campaignID int64) (*DispatchResult, error)
}

type LedgerService interface {
	// Charge debits amount inside the caller's transaction and appends a
	// USAGE entry.
	Charge(ctx context.Context, tx repository.Repository, companyID int64, amount int, description, reference string) (*models.CreditLedgerEntry, error)
	TopUp(ctx context.Context, companyID int64, amount int, description, reference string) (*models.CreditLedgerEntry, error)
	Refund(ctx context.Context, companyID int64, amount int, description, reference string) (*models.CreditLedgerEntry, error)
	History(ctx context.Context, companyID int64, limit int) ([]*models.CreditLedgerEntry, error)
	Balance(ctx context.Context, companyID int64) (int, error)
}

type CarrierClient interface {
	// Submit hands one message to the carrier and returns its external id.
	// Errors wrap ErrCarrierRejected or ErrTransientCarrier.
	Submit(ctx context.Context, msg *models.Message) (string, error)
	GetCircuitBreakerStatus() (state api.HealthResponseCircuitBreakerState, requests uint32, failures uint32)
}

type SubmissionPool interface {
	Start(ctx context.Context) error
	Stop() error
	// Enqueue schedules a campaign's PENDING messages for submission. A
	// campaign already queued or in progress is not queued twice.
	Enqueue(ctx context.Context, campaignID int64) error
	// ProcessCampaign submits every PENDING message of a campaign and
	// finalizes it when nothing is left pending.
	ProcessCampaign(ctx context.Context, campaignID int64) error
	SetRate(perSecond int)
}

type DeliveryService interface {
	Reconcile(ctx context.Context, report *models.DeliveryReport) (*ReconcileResult, error)
	Reports(ctx context.Context, messageID int64) ([]*models.DeliveryReportRecord, error)
}

type SchedulerService interface {
	Start() error
	Stop() error
	IsRunning() bool
}

type HealthService interface {
	GetHealth() *HealthStatus
}
