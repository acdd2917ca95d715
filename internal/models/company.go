package models

import "time"

type LedgerEntryType string

const (
	LedgerEntryUsage  LedgerEntryType = "USAGE"
	LedgerEntryTopUp  LedgerEntryType = "TOPUP"
	LedgerEntryRefund LedgerEntryType = "REFUND"
)

type Company struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	CreditBalance int       `db:"credit_balance" json:"credit_balance"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// CreditLedgerEntry is an append-only record of a balance change.
type CreditLedgerEntry struct {
	ID           int64           `db:"id" json:"id"`
	CompanyID    int64           `db:"company_id" json:"company_id"`
	Type         LedgerEntryType `db:"type" json:"type"`
	Delta        int             `db:"delta" json:"delta"`
	BalanceAfter int             `db:"balance_after" json:"balance_after"`
	Description  string          `db:"description" json:"description"`
	Reference    string          `db:"reference" json:"reference"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}
