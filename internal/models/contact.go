package models

import (
	"database/sql"
	"time"
)

// Contact is a recipient belonging to a contact list. Read-only for this service.
type Contact struct {
	ID          int64          `db:"id" json:"id"`
	ListID      int64          `db:"list_id" json:"list_id"`
	Phone       string         `db:"phone" json:"phone"`
	FirstName   sql.NullString `db:"first_name" json:"first_name,omitempty"`
	LastName    sql.NullString `db:"last_name" json:"last_name,omitempty"`
	CompanyName sql.NullString `db:"company_name" json:"company_name,omitempty"`
	IsValid     bool           `db:"is_valid" json:"is_valid"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}
