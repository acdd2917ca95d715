package models

import (
	"database/sql"
	"strings"
	"time"
)

type DeliveryOutcome string

const (
	DeliveryOutcomeDelivered  DeliveryOutcome = "DELIVERED"
	DeliveryOutcomeFailed     DeliveryOutcome = "FAILED"
	DeliveryOutcomeInProgress DeliveryOutcome = "IN_PROGRESS"
)

// MessageStatus maps a final outcome to the message status it produces.
// The second return value is false for non-final outcomes.
func (o DeliveryOutcome) MessageStatus() (MessageStatus, bool) {
	switch o {
	case DeliveryOutcomeDelivered:
		return MessageStatusDelivered, true
	case DeliveryOutcomeFailed:
		return MessageStatusFailed, true
	case DeliveryOutcomeInProgress:
		return "", false
	default:
		return "", false
	}
}

var (
	deliveredDescriptors = map[string]struct{}{"DELIVRD": {}, "DELIVERED": {}}
	failedDescriptors    = map[string]struct{}{
		"FAILED": {}, "UNDELIV": {}, "UNDELIVERABLE": {}, "REJECTD": {}, "REJECTED": {}, "EXPIRED": {}, "DELETED": {},
	}
)

// DeliveryReport is a carrier delivery notification. Fields arrive either as
// query parameters, a form body or a JSON body.
type DeliveryReport struct {
	SubID     string `json:"subid" form:"subid" mapstructure:"subid"`
	AckLevel  string `json:"acklevel" form:"acklevel" mapstructure:"acklevel"`
	Type      string `json:"type" form:"type" mapstructure:"type"`
	Desc      string `json:"desc" form:"desc" mapstructure:"desc"`
	Status    string `json:"status" form:"status" mapstructure:"status"`
	Timestamp string `json:"timestamp" form:"timestamp" mapstructure:"timestamp"`
	MSISDN    string `json:"msisdn" form:"msisdn" mapstructure:"msisdn"`
}

// Outcome classifies the report. Errors win over positive acknowledgements.
func (r *DeliveryReport) Outcome() DeliveryOutcome {
	status := strings.ToLower(strings.TrimSpace(r.Status))
	ack := strings.ToLower(strings.TrimSpace(r.AckLevel))
	desc := strings.ToUpper(strings.TrimSpace(r.Desc))

	if status == "ko" || ack == "error" {
		return DeliveryOutcomeFailed
	}
	if _, ok := failedDescriptors[desc]; ok {
		return DeliveryOutcomeFailed
	}
	if ack == "handset" {
		return DeliveryOutcomeDelivered
	}
	if _, ok := deliveredDescriptors[desc]; ok {
		return DeliveryOutcomeDelivered
	}
	return DeliveryOutcomeInProgress
}

// DeliveryReportRecord is the audit row kept for every report on a known message.
type DeliveryReportRecord struct {
	ID         int64           `db:"id" json:"id"`
	MessageID  int64           `db:"message_id" json:"message_id"`
	ExternalID string          `db:"external_id" json:"external_id"`
	AckLevel   string          `db:"ack_level" json:"ack_level"`
	Type       string          `db:"type" json:"type"`
	Desc       string          `db:"descriptor" json:"desc"`
	Status     string          `db:"status" json:"status"`
	Timestamp  sql.NullString  `db:"carrier_timestamp" json:"timestamp,omitempty"`
	MSISDN     sql.NullString  `db:"msisdn" json:"msisdn,omitempty"`
	Outcome    DeliveryOutcome `db:"outcome" json:"outcome"`
	Applied    bool            `db:"applied" json:"applied"`
	ReceivedAt time.Time       `db:"received_at" json:"received_at"`
}
