package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	amountScale = 2

	// Exponents outside this window are rejected before any rescaling, which
	// would otherwise expand the coefficient to the full number of digits.
	minAmountExponent = -18
	maxAmountExponent = 12
)

// MaxAmount is the exclusive upper bound for a line amount and for entry
// totals; it matches the numeric(14,2) columns.
var MaxAmount = decimal.New(1, maxAmountExponent)

type Totals struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

func (t Totals) Balanced() bool {
	return t.Debit.Equal(t.Credit)
}

// CheckAmount rejects negative amounts, amounts finer than cents and amounts
// that do not fit the ledger columns.
func CheckAmount(amount decimal.Decimal) error {
	if amount.IsZero() {
		return nil
	}
	if amount.IsNegative() {
		return ErrNegativeAmount
	}
	exp := amount.Exponent()
	if exp > maxAmountExponent {
		return ErrAmountOutOfRange
	}
	if exp < minAmountExponent {
		return ErrInvalidAmountPrecision
	}
	if amount.GreaterThanOrEqual(MaxAmount) {
		return ErrAmountOutOfRange
	}
	if !amount.Equal(amount.Truncate(amountScale)) {
		return ErrInvalidAmountPrecision
	}
	return nil
}

// ValidateLines checks every line on its own and then the entry as a whole.
// Account existence is checked by the caller against storage.
func ValidateLines(lines []CreateJournalEntryLineRequest) (Totals, error) {
	totals := Totals{Debit: decimal.Zero, Credit: decimal.Zero}
	if len(lines) < 2 {
		return totals, ErrInsufficientLines
	}

	for i, line := range lines {
		if line.AccountID == 0 {
			return totals, fmt.Errorf("line %d: %w", i+1, ErrUnknownAccount)
		}
		if err := CheckAmount(line.DebitAmount); err != nil {
			return totals, fmt.Errorf("line %d debit: %w", i+1, err)
		}
		if err := CheckAmount(line.CreditAmount); err != nil {
			return totals, fmt.Errorf("line %d credit: %w", i+1, err)
		}
		if line.DebitAmount.IsZero() == line.CreditAmount.IsZero() {
			return totals, fmt.Errorf("line %d: %w", i+1, ErrInvalidLineAmount)
		}
		if err := validateCounterparty(line.CounterpartyType, line.CounterpartyID); err != nil {
			return totals, fmt.Errorf("line %d: %w", i+1, err)
		}

		totals.Debit = totals.Debit.Add(line.DebitAmount)
		totals.Credit = totals.Credit.Add(line.CreditAmount)
	}

	if totals.Debit.GreaterThanOrEqual(MaxAmount) || totals.Credit.GreaterThanOrEqual(MaxAmount) {
		return totals, ErrAmountOutOfRange
	}
	if !totals.Balanced() {
		return totals, fmt.Errorf("%w: debit %s, credit %s",
			ErrUnbalancedEntry, totals.Debit.StringFixed(amountScale), totals.Credit.StringFixed(amountScale))
	}
	return totals, nil
}

func validateCounterparty(kind string, id *int64) error {
	if kind == "" && id == nil {
		return nil
	}
	if !CounterpartyType(kind).Valid() || id == nil || *id <= 0 {
		return ErrInvalidCounterparty
	}
	return nil
}
