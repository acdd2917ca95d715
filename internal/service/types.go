package service

import (
	"github.com/qhosting/cloudsms/internal/api"
	"github.com/qhosting/cloudsms/internal/models"
	"github.com/qhosting/cloudsms/internal/sms"
)

type HealthStatus struct {
	Status               api.HealthResponseStatus              `json:"status"`
	SchedulerStatus      api.HealthResponseSchedulerStatus     `json:"scheduler_status"`
	DatabaseStatus       api.HealthResponseDatabaseStatus      `json:"database_status"`
	RedisStatus          api.HealthResponseRedisStatus         `json:"redis_status"`
	QueueStatus          api.HealthResponseQueueStatus         `json:"queue_status"`
	CircuitBreakerStatus string                                `json:"circuit_breaker_status,omitempty"`
	CircuitBreakerState  api.HealthResponseCircuitBreakerState `json:"circuit_breaker_state,omitempty"`
}

// RenderedMessage is a template rendered for one recipient.
type RenderedMessage struct {
	Contact  *models.Contact
	Text     string
	Encoding sms.Encoding
	Parts    []sms.Part
}

// Credits is the billable unit count: one credit per physical segment.
func (m *RenderedMessage) Credits() int {
	return len(m.Parts)
}

type Estimate struct {
	CampaignID   int64
	Recipients   []*RenderedMessage
	TotalCredits int
	ByEncoding   map[sms.EncodingType]int
}

type PreviewItem struct {
	*RenderedMessage
	UnresolvedTokens []string
}

type DispatchResult struct {
	CampaignID     int64
	TotalMessages  int
	CreditsCharged int
	BalanceAfter   int
}

type ReconcileResult struct {
	MessageID  int64
	CampaignID int64
	Outcome    models.DeliveryOutcome
	Applied    bool
}
