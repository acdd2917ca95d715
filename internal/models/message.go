// Package models defines data structures used throughout the application.
package models

import (
	"database/sql"
	"time"
)

type MessageStatus string

const (
	MessageStatusPending   MessageStatus = "PENDING"
	MessageStatusSent      MessageStatus = "SENT"
	MessageStatusDelivered MessageStatus = "DELIVERED"
	MessageStatusFailed    MessageStatus = "FAILED"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s MessageStatus) IsTerminal() bool {
	switch s {
	case MessageStatusDelivered, MessageStatusFailed:
		return true
	case MessageStatusPending, MessageStatusSent:
		return false
	default:
		return false
	}
}

// CanTransitionTo reports whether s -> next is a forward move of the message lifecycle.
func (s MessageStatus) CanTransitionTo(next MessageStatus) bool {
	switch s {
	case MessageStatusPending:
		return next == MessageStatusSent || next == MessageStatusDelivered || next == MessageStatusFailed
	case MessageStatusSent:
		return next == MessageStatusDelivered || next == MessageStatusFailed
	case MessageStatusDelivered, MessageStatusFailed:
		return false
	default:
		return false
	}
}

// Message represents a single recipient's rendered SMS in the database.
type Message struct {
	ID           int64          `db:"id" json:"id"`
	CampaignID   int64          `db:"campaign_id" json:"campaign_id"`
	ContactID    int64          `db:"contact_id" json:"contact_id"`
	Phone        string         `db:"phone" json:"phone"`
	RenderedText string         `db:"rendered_text" json:"rendered_text"`
	Encoding     string         `db:"encoding" json:"encoding"`
	Status       MessageStatus  `db:"status" json:"status"`
	CreditsUsed  int            `db:"credits_used" json:"credits_used"`
	ExternalID   sql.NullString `db:"external_id" json:"external_id,omitempty"`
	Attempts     int            `db:"attempts" json:"attempts"`
	Error        sql.NullString `db:"error" json:"error,omitempty"`
	SentAt       sql.NullTime   `db:"sent_at" json:"sent_at,omitempty"`
	DeliveredAt  sql.NullTime   `db:"delivered_at" json:"delivered_at,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}
