package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	journaldomain "github.com/smallbiznis/goldbook/internal/journal/domain"
	"gorm.io/gorm"
)

type Service interface {
	TrialBalance(ctx context.Context, asOf *time.Time) (*TrialBalance, error)
	ProfitLoss(ctx context.Context, start, end time.Time) (*ProfitLoss, error)
	BalanceSheet(ctx context.Context, asOf *time.Time) (*BalanceSheet, error)
	AccountsPayable(ctx context.Context) (*CounterpartyReport, error)
	AccountsReceivable(ctx context.Context) (*CounterpartyReport, error)
}

// DateFilter bounds entry dates: From is inclusive, Before exclusive.
type DateFilter struct {
	From   *time.Time
	Before *time.Time
}

type Repository interface {
	SumByAccount(ctx context.Context, db *gorm.DB, filter DateFilter) (map[snowflake.ID]AccountSum, error)
	SumByCounterparty(ctx context.Context, db *gorm.DB, accountIDs []snowflake.ID, kind journaldomain.CounterpartyType) ([]CounterpartySum, error)
}

var (
	ErrInvalidDateRange      = errors.New("invalid_date_range")
	ErrInvalidDate           = errors.New("invalid_date")
	ErrControlAccountMissing = errors.New("control_account_missing")
)
