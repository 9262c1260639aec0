package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/goldbook/pkg/db/pagination"
	"gorm.io/gorm"
)

type CreateJournalEntryRequest struct {
	EntryDate       time.Time
	ReferenceNumber *string
	Description     string
	Source          SourceType
	Lines           []CreateJournalEntryLineRequest
}

type CreateJournalEntryLineRequest struct {
	AccountID        snowflake.ID
	DebitAmount      decimal.Decimal
	CreditAmount     decimal.Decimal
	Description      *string
	CounterpartyType string
	CounterpartyID   *int64
}

type ListJournalEntryRequest struct {
	pagination.Pagination
	From *time.Time
	To   *time.Time
}

type ListJournalEntryResponse struct {
	pagination.PageInfo
	JournalEntries []JournalEntry `json:"journal_entries"`
}

// MoneyMovementRequest records cash or bank money moving in (positive
// Amount) or out (negative Amount) against a counter account. A zero
// AccountID falls back to the configured cash or bank account.
type MoneyMovementRequest struct {
	AccountID        snowflake.ID
	CounterAccountID snowflake.ID
	Amount           decimal.Decimal
	Description      string
	TransactionDate  time.Time
	ReferenceNumber  *string
	CounterpartyType string
	CounterpartyID   *int64
}

type Service interface {
	Create(ctx context.Context, req CreateJournalEntryRequest) (*JournalEntry, error)
	List(ctx context.Context, req ListJournalEntryRequest) (ListJournalEntryResponse, error)
	GetByID(ctx context.Context, id snowflake.ID) (*JournalEntry, error)
	GetLines(ctx context.Context, entryID snowflake.ID) ([]JournalEntryLine, error)
	RecordCashTransaction(ctx context.Context, req MoneyMovementRequest) (*JournalEntry, error)
	RecordBankTransaction(ctx context.Context, req MoneyMovementRequest) (*JournalEntry, error)
}

type ListFilter struct {
	From   *time.Time
	Before *time.Time
	Cursor *EntryCursor
	Limit  int
}

type EntryCursor struct {
	ID        snowflake.ID
	EntryDate time.Time
}

type Repository interface {
	InsertEntry(ctx context.Context, db *gorm.DB, entry *JournalEntry) error
	InsertLines(ctx context.Context, db *gorm.DB, lines []JournalEntryLine) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*JournalEntry, error)
	FindLines(ctx context.Context, db *gorm.DB, entryIDs []snowflake.ID) ([]JournalEntryLine, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*JournalEntry, error)
}

var (
	ErrNotFound = errors.New("journal_entry_not_found")

	ErrUnbalancedEntry = errors.New("unbalanced_entry")

	ErrInsufficientLines      = errors.New("insufficient_lines")
	ErrNegativeAmount         = errors.New("negative_amount")
	ErrInvalidAmountPrecision = errors.New("invalid_amount_precision")
	ErrAmountOutOfRange       = errors.New("amount_out_of_range")
	ErrInvalidLineAmount      = errors.New("invalid_line_amount")
	ErrUnknownAccount         = errors.New("unknown_account")
	ErrInactiveAccount        = errors.New("inactive_account")
	ErrInvalidDescription     = errors.New("invalid_description")
	ErrInvalidEntryDate       = errors.New("invalid_entry_date")
	ErrInvalidCounterparty    = errors.New("invalid_counterparty")
	ErrInvalidMoneyAccount    = errors.New("invalid_money_account")
	ErrInvalidCounterAccount  = errors.New("invalid_counter_account")
	ErrInvalidAmount          = errors.New("invalid_amount")
	ErrInvalidDateRange       = errors.New("invalid_date_range")
	ErrInvalidPageToken       = errors.New("invalid_page_token")
	ErrInvalidID              = errors.New("invalid_id")
)

// ValidationErrors are rejected before anything is written.
var ValidationErrors = []error{
	ErrInsufficientLines,
	ErrNegativeAmount,
	ErrInvalidAmountPrecision,
	ErrAmountOutOfRange,
	ErrInvalidLineAmount,
	ErrUnknownAccount,
	ErrInactiveAccount,
	ErrInvalidDescription,
	ErrInvalidEntryDate,
	ErrInvalidCounterparty,
	ErrInvalidMoneyAccount,
	ErrInvalidCounterAccount,
	ErrInvalidAmount,
	ErrInvalidDateRange,
	ErrInvalidPageToken,
	ErrInvalidID,
}

// ReasonOf maps err to the sentinel code it wraps, or "" when none match.
func ReasonOf(err error) string {
	if errors.Is(err, ErrUnbalancedEntry) {
		return ErrUnbalancedEntry.Error()
	}
	for _, candidate := range ValidationErrors {
		if errors.Is(err, candidate) {
			return candidate.Error()
		}
	}
	return ""
}
