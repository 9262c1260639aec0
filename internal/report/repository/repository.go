package repository

import (
	"context"
	"sort"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	journaldomain "github.com/smallbiznis/goldbook/internal/journal/domain"
	"github.com/smallbiznis/goldbook/internal/report/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

type lineAmount struct {
	AccountID      snowflake.ID
	CounterpartyID *int64
	DebitAmount    decimal.Decimal
	CreditAmount   decimal.Decimal
}

// SumByAccount totals line amounts per account. Amounts are added up as
// decimals after loading so the result does not depend on how the database
// sums numeric columns.
func (r *repo) SumByAccount(ctx context.Context, db *gorm.DB, filter domain.DateFilter) (map[snowflake.ID]domain.AccountSum, error) {
	stmt := db.WithContext(ctx).
		Table("journal_entry_lines AS l").
		Select("l.account_id, l.debit_amount, l.credit_amount").
		Joins("JOIN journal_entries AS e ON e.id = l.journal_entry_id")
	if filter.From != nil {
		stmt = stmt.Where("e.entry_date >= ?", filter.From.UTC())
	}
	if filter.Before != nil {
		stmt = stmt.Where("e.entry_date < ?", filter.Before.UTC())
	}

	var rows []lineAmount
	if err := stmt.Scan(&rows).Error; err != nil {
		return nil, err
	}

	sums := make(map[snowflake.ID]domain.AccountSum)
	for _, row := range rows {
		sum, ok := sums[row.AccountID]
		if !ok {
			sum = domain.AccountSum{AccountID: row.AccountID, Debit: decimal.Zero, Credit: decimal.Zero}
		}
		sum.Debit = sum.Debit.Add(row.DebitAmount)
		sum.Credit = sum.Credit.Add(row.CreditAmount)
		sums[row.AccountID] = sum
	}
	return sums, nil
}

func (r *repo) SumByCounterparty(ctx context.Context, db *gorm.DB, accountIDs []snowflake.ID, kind journaldomain.CounterpartyType) ([]domain.CounterpartySum, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}

	var rows []lineAmount
	err := db.WithContext(ctx).
		Table("journal_entry_lines").
		Select("account_id, counterparty_id, debit_amount, credit_amount").
		Where("account_id IN ?", accountIDs).
		Where("counterparty_type = ?", string(kind)).
		Where("counterparty_id IS NOT NULL").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*domain.CounterpartySum)
	for _, row := range rows {
		if row.CounterpartyID == nil {
			continue
		}
		sum, ok := byID[*row.CounterpartyID]
		if !ok {
			sum = &domain.CounterpartySum{CounterpartyID: *row.CounterpartyID, Debit: decimal.Zero, Credit: decimal.Zero}
			byID[*row.CounterpartyID] = sum
		}
		sum.Debit = sum.Debit.Add(row.DebitAmount)
		sum.Credit = sum.Credit.Add(row.CreditAmount)
	}

	out := make([]domain.CounterpartySum, 0, len(byID))
	for _, sum := range byID {
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CounterpartyID < out[j].CounterpartyID })
	return out, nil
}
