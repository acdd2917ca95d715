package models

import (
	"database/sql"
	"time"
)

type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "DRAFT"
	CampaignStatusScheduled CampaignStatus = "SCHEDULED"
	CampaignStatusSending   CampaignStatus = "SENDING"
	CampaignStatusCompleted CampaignStatus = "COMPLETED"
	CampaignStatusFailed    CampaignStatus = "FAILED"
)

// IsDispatchable reports whether a campaign in status s may enter SENDING.
func (s CampaignStatus) IsDispatchable() bool {
	switch s {
	case CampaignStatusDraft, CampaignStatusScheduled:
		return true
	case CampaignStatusSending, CampaignStatusCompleted, CampaignStatusFailed:
		return false
	default:
		return false
	}
}

type TargetType string

const (
	TargetTypeList        TargetType = "LIST"
	TargetTypeAllContacts TargetType = "ALL_CONTACTS"
)

// Campaign is a bulk send of one message template to a recipient set.
type Campaign struct {
	ID              int64          `db:"id" json:"id"`
	CompanyID       int64          `db:"company_id" json:"company_id"`
	Name            string         `db:"name" json:"name"`
	Message         string         `db:"message" json:"message"`
	TargetType      TargetType     `db:"target_type" json:"target_type"`
	ContactListID   sql.NullInt64  `db:"contact_list_id" json:"contact_list_id,omitempty"`
	Status          CampaignStatus `db:"status" json:"status"`
	TotalRecipients int            `db:"total_recipients" json:"total_recipients"`
	SentCount       int            `db:"sent_count" json:"sent_count"`
	DeliveredCount  int            `db:"delivered_count" json:"delivered_count"`
	FailedCount     int            `db:"failed_count" json:"failed_count"`
	EstimatedCost   int            `db:"estimated_cost" json:"estimated_cost"`
	StartedAt       sql.NullTime   `db:"started_at" json:"started_at,omitempty"`
	CompletedAt     sql.NullTime   `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}
