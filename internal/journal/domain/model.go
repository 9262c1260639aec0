package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// SourceType records which entry point produced a journal entry.
type SourceType string

const (
	SourceManual SourceType = "manual"
	SourceCash   SourceType = "cash"
	SourceBank   SourceType = "bank"
)

// CounterpartyType tags a line with the party it is owed by or owed to.
type CounterpartyType string

const (
	CounterpartySupplier CounterpartyType = "supplier"
	CounterpartyCustomer CounterpartyType = "customer"
)

func (t CounterpartyType) Valid() bool {
	return t == CounterpartySupplier || t == CounterpartyCustomer
}

type JournalEntry struct {
	ID              snowflake.ID       `gorm:"primaryKey" json:"id"`
	EntryDate       time.Time          `gorm:"type:date;not null;index" json:"entry_date"`
	ReferenceNumber *string            `gorm:"type:varchar(64)" json:"reference_number,omitempty"`
	Description     string             `gorm:"type:text;not null" json:"description"`
	Source          SourceType         `gorm:"type:varchar(16);not null;default:manual" json:"source"`
	TotalDebit      decimal.Decimal    `gorm:"type:numeric(14,2);not null" json:"total_debit"`
	TotalCredit     decimal.Decimal    `gorm:"type:numeric(14,2);not null" json:"total_credit"`
	CreatedAt       time.Time          `gorm:"not null" json:"created_at"`
	Lines           []JournalEntryLine `gorm:"foreignKey:JournalEntryID;constraint:OnDelete:CASCADE" json:"lines,omitempty"`
}

func (JournalEntry) TableName() string { return "journal_entries" }

type JournalEntryLine struct {
	ID               snowflake.ID      `gorm:"primaryKey" json:"id"`
	JournalEntryID   snowflake.ID      `gorm:"not null;index" json:"journal_entry_id"`
	LineNo           int               `gorm:"not null" json:"line_no"`
	AccountID        snowflake.ID      `gorm:"not null;index" json:"account_id"`
	DebitAmount      decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"debit_amount"`
	CreditAmount     decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"credit_amount"`
	Description      *string           `gorm:"type:text" json:"description,omitempty"`
	CounterpartyType *CounterpartyType `gorm:"type:varchar(16);index:idx_lines_counterparty" json:"counterparty_type,omitempty"`
	CounterpartyID   *int64            `gorm:"index:idx_lines_counterparty" json:"counterparty_id,omitempty"`
}

func (JournalEntryLine) TableName() string { return "journal_entry_lines" }

// EntryDateOf truncates t to the UTC calendar day it falls on.
func EntryDateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
