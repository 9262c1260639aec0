package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	accountdomain "github.com/smallbiznis/goldbook/internal/account/domain"
	journaldomain "github.com/smallbiznis/goldbook/internal/journal/domain"
)

// CurrentEarningsCode identifies the synthetic equity item that carries
// revenue minus expense not yet closed into an equity account.
const CurrentEarningsCode = "current_earnings"

type TrialBalanceRow struct {
	AccountID     snowflake.ID              `json:"account_id"`
	Code          string                    `json:"code"`
	Name          string                    `json:"name"`
	Type          accountdomain.AccountType `json:"type"`
	IsActive      bool                      `json:"is_active"`
	DebitBalance  decimal.Decimal           `json:"debit_balance"`
	CreditBalance decimal.Decimal           `json:"credit_balance"`
}

type TrialBalance struct {
	AsOf        *time.Time        `json:"as_of,omitempty"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"total_debit"`
	TotalCredit decimal.Decimal   `json:"total_credit"`
}

// ReportItem is one account line of a statement. Amount is signed by the
// account's normal balance; Rollup adds the amounts of every account below
// it in the chart.
type ReportItem struct {
	AccountID *snowflake.ID             `json:"account_id,omitempty"`
	ParentID  *snowflake.ID             `json:"parent_account_id,omitempty"`
	Code      string                    `json:"code"`
	Name      string                    `json:"name"`
	Type      accountdomain.AccountType `json:"type"`
	Amount    decimal.Decimal           `json:"amount"`
	Rollup    decimal.Decimal           `json:"rollup"`
}

type ProfitLoss struct {
	StartDate    time.Time       `json:"start_date"`
	EndDate      time.Time       `json:"end_date"`
	Revenues     []ReportItem    `json:"revenues"`
	Expenses     []ReportItem    `json:"expenses"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	NetIncome    decimal.Decimal `json:"net_income"`
}

type BalanceSheet struct {
	AsOf                      time.Time       `json:"as_of"`
	Assets                    []ReportItem    `json:"assets"`
	Liabilities               []ReportItem    `json:"liabilities"`
	Equity                    []ReportItem    `json:"equity"`
	TotalAssets               decimal.Decimal `json:"total_assets"`
	TotalLiabilities          decimal.Decimal `json:"total_liabilities"`
	TotalEquity               decimal.Decimal `json:"total_equity"`
	TotalLiabilitiesAndEquity decimal.Decimal `json:"total_liabilities_and_equity"`
}

func (b BalanceSheet) Balanced() bool {
	return b.TotalAssets.Equal(b.TotalLiabilitiesAndEquity)
}

type CounterpartyBalance struct {
	CounterpartyType journaldomain.CounterpartyType `json:"counterparty_type"`
	CounterpartyID   int64                          `json:"counterparty_id"`
	Amount           decimal.Decimal                `json:"amount"`
}

type CounterpartyReport struct {
	ControlAccountCode string                `json:"control_account_code"`
	Balances           []CounterpartyBalance `json:"balances"`
	Total              decimal.Decimal       `json:"total"`
}

// AccountSum is the raw debit and credit total of one account.
type AccountSum struct {
	AccountID snowflake.ID
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// Net is debit minus credit.
func (s AccountSum) Net() decimal.Decimal {
	return s.Debit.Sub(s.Credit)
}

type CounterpartySum struct {
	CounterpartyID int64
	Debit          decimal.Decimal
	Credit         decimal.Decimal
}
