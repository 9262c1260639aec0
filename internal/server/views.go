package server

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	accountdomain "github.com/smallbiznis/goldbook/internal/account/domain"
	journaldomain "github.com/smallbiznis/goldbook/internal/journal/domain"
	reportdomain "github.com/smallbiznis/goldbook/internal/report/domain"
)

// Ids travel as strings and money as fixed two-decimal strings so that
// JavaScript clients never round either.

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func idString(id *snowflake.ID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// optionalIDField records whether a JSON key was present at all.
type optionalIDField struct {
	Set   bool
	Value *string
}

func (o *optionalIDField) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	o.Value = &value
	return nil
}

type accountView struct {
	ID              string                    `json:"id"`
	Code            string                    `json:"code"`
	Name            string                    `json:"name"`
	Type            accountdomain.AccountType `json:"type"`
	NormalBalance   string                    `json:"normal_balance"`
	ParentAccountID *string                   `json:"parent_account_id"`
	IsActive        bool                      `json:"is_active"`
	CreatedAt       time.Time                 `json:"created_at"`
	UpdatedAt       time.Time                 `json:"updated_at"`
}

func newAccountView(acc accountdomain.Account) accountView {
	return accountView{
		ID:              acc.ID.String(),
		Code:            acc.Code,
		Name:            acc.Name,
		Type:            acc.Type,
		NormalBalance:   string(acc.Type.NormalBalance()),
		ParentAccountID: idString(acc.ParentAccountID),
		IsActive:        acc.IsActive,
		CreatedAt:       acc.CreatedAt,
		UpdatedAt:       acc.UpdatedAt,
	}
}

type journalLineView struct {
	ID               string  `json:"id"`
	LineNo           int     `json:"line_no"`
	AccountID        string  `json:"account_id"`
	DebitAmount      string  `json:"debit_amount"`
	CreditAmount     string  `json:"credit_amount"`
	Description      *string `json:"description,omitempty"`
	CounterpartyType *string `json:"counterparty_type,omitempty"`
	CounterpartyID   *int64  `json:"counterparty_id,omitempty"`
}

func newJournalLineView(line journaldomain.JournalEntryLine) journalLineView {
	view := journalLineView{
		ID:             line.ID.String(),
		LineNo:         line.LineNo,
		AccountID:      line.AccountID.String(),
		DebitAmount:    money(line.DebitAmount),
		CreditAmount:   money(line.CreditAmount),
		Description:    line.Description,
		CounterpartyID: line.CounterpartyID,
	}
	if line.CounterpartyType != nil {
		kind := string(*line.CounterpartyType)
		view.CounterpartyType = &kind
	}
	return view
}

type journalEntryView struct {
	ID              string            `json:"id"`
	EntryDate       string            `json:"entry_date"`
	ReferenceNumber *string           `json:"reference_number,omitempty"`
	Description     string            `json:"description"`
	Source          string            `json:"source"`
	TotalDebit      string            `json:"total_debit"`
	TotalCredit     string            `json:"total_credit"`
	CreatedAt       time.Time         `json:"created_at"`
	Lines           []journalLineView `json:"lines"`
}

func newJournalEntryView(entry journaldomain.JournalEntry) journalEntryView {
	lines := make([]journalLineView, 0, len(entry.Lines))
	for _, line := range entry.Lines {
		lines = append(lines, newJournalLineView(line))
	}
	return journalEntryView{
		ID:              entry.ID.String(),
		EntryDate:       entry.EntryDate.UTC().Format(dateOnlyLayout),
		ReferenceNumber: entry.ReferenceNumber,
		Description:     entry.Description,
		Source:          string(entry.Source),
		TotalDebit:      money(entry.TotalDebit),
		TotalCredit:     money(entry.TotalCredit),
		CreatedAt:       entry.CreatedAt,
		Lines:           lines,
	}
}

type trialBalanceRowView struct {
	AccountID     string `json:"account_id"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	IsActive      bool   `json:"is_active"`
	DebitBalance  string `json:"debit_balance"`
	CreditBalance string `json:"credit_balance"`
}

type trialBalanceView struct {
	AsOf        *string               `json:"as_of"`
	Rows        []trialBalanceRowView `json:"rows"`
	TotalDebit  string                `json:"total_debit"`
	TotalCredit string                `json:"total_credit"`
}

func newTrialBalanceView(report reportdomain.TrialBalance) trialBalanceView {
	view := trialBalanceView{
		Rows:        make([]trialBalanceRowView, 0, len(report.Rows)),
		TotalDebit:  money(report.TotalDebit),
		TotalCredit: money(report.TotalCredit),
	}
	if report.AsOf != nil {
		asOf := report.AsOf.Format(dateOnlyLayout)
		view.AsOf = &asOf
	}
	for _, row := range report.Rows {
		view.Rows = append(view.Rows, trialBalanceRowView{
			AccountID:     row.AccountID.String(),
			Code:          row.Code,
			Name:          row.Name,
			Type:          string(row.Type),
			IsActive:      row.IsActive,
			DebitBalance:  money(row.DebitBalance),
			CreditBalance: money(row.CreditBalance),
		})
	}
	return view
}

type reportItemView struct {
	AccountID       *string `json:"account_id"`
	ParentAccountID *string `json:"parent_account_id"`
	Code            string  `json:"code"`
	Name            string  `json:"name"`
	Type            string  `json:"type"`
	Amount          string  `json:"amount"`
	Rollup          string  `json:"rollup"`
}

func newReportItemViews(items []reportdomain.ReportItem) []reportItemView {
	views := make([]reportItemView, 0, len(items))
	for _, item := range items {
		views = append(views, reportItemView{
			AccountID:       idString(item.AccountID),
			ParentAccountID: idString(item.ParentID),
			Code:            item.Code,
			Name:            item.Name,
			Type:            string(item.Type),
			Amount:          money(item.Amount),
			Rollup:          money(item.Rollup),
		})
	}
	return views
}

type profitLossView struct {
	StartDate    string           `json:"start_date"`
	EndDate      string           `json:"end_date"`
	Revenues     []reportItemView `json:"revenues"`
	Expenses     []reportItemView `json:"expenses"`
	TotalRevenue string           `json:"total_revenue"`
	TotalExpense string           `json:"total_expense"`
	NetIncome    string           `json:"net_income"`
}

func newProfitLossView(report reportdomain.ProfitLoss) profitLossView {
	return profitLossView{
		StartDate:    report.StartDate.Format(dateOnlyLayout),
		EndDate:      report.EndDate.Format(dateOnlyLayout),
		Revenues:     newReportItemViews(report.Revenues),
		Expenses:     newReportItemViews(report.Expenses),
		TotalRevenue: money(report.TotalRevenue),
		TotalExpense: money(report.TotalExpense),
		NetIncome:    money(report.NetIncome),
	}
}

type balanceSheetView struct {
	AsOf                      string           `json:"as_of"`
	Assets                    []reportItemView `json:"assets"`
	Liabilities               []reportItemView `json:"liabilities"`
	Equity                    []reportItemView `json:"equity"`
	TotalAssets               string           `json:"total_assets"`
	TotalLiabilities          string           `json:"total_liabilities"`
	TotalEquity               string           `json:"total_equity"`
	TotalLiabilitiesAndEquity string           `json:"total_liabilities_and_equity"`
}

func newBalanceSheetView(report reportdomain.BalanceSheet) balanceSheetView {
	return balanceSheetView{
		AsOf:                      report.AsOf.Format(dateOnlyLayout),
		Assets:                    newReportItemViews(report.Assets),
		Liabilities:               newReportItemViews(report.Liabilities),
		Equity:                    newReportItemViews(report.Equity),
		TotalAssets:               money(report.TotalAssets),
		TotalLiabilities:          money(report.TotalLiabilities),
		TotalEquity:               money(report.TotalEquity),
		TotalLiabilitiesAndEquity: money(report.TotalLiabilitiesAndEquity),
	}
}

type counterpartyBalanceView struct {
	CounterpartyType string `json:"counterparty_type"`
	CounterpartyID   int64  `json:"counterparty_id"`
	Amount           string `json:"amount"`
}

type counterpartyReportView struct {
	ControlAccountCode string                    `json:"control_account_code"`
	Balances           []counterpartyBalanceView `json:"balances"`
	Total              string                    `json:"total"`
}

func newCounterpartyReportView(report reportdomain.CounterpartyReport) counterpartyReportView {
	view := counterpartyReportView{
		ControlAccountCode: report.ControlAccountCode,
		Balances:           make([]counterpartyBalanceView, 0, len(report.Balances)),
		Total:              money(report.Total),
	}
	for _, b := range report.Balances {
		view.Balances = append(view.Balances, counterpartyBalanceView{
			CounterpartyType: string(b.CounterpartyType),
			CounterpartyID:   b.CounterpartyID,
			Amount:           money(b.Amount),
		})
	}
	return view
}
