package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	accountdomain "github.com/smallbiznis/goldbook/internal/account/domain"
	"github.com/smallbiznis/goldbook/internal/clock"
	"github.com/smallbiznis/goldbook/internal/config"
	journaldomain "github.com/smallbiznis/goldbook/internal/journal/domain"
	obsmetrics "github.com/smallbiznis/goldbook/internal/observability/metrics"
	"github.com/smallbiznis/goldbook/internal/observability/tracing"
	"github.com/smallbiznis/goldbook/internal/report/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Clock        clock.Clock
	Repo         domain.Repository
	AccountRepo  accountdomain.Repository
	LedgerConfig *config.LedgerConfigHolder `optional:"true"`
	ObsMetrics   *obsmetrics.Metrics        `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	clock        clock.Clock
	repo         domain.Repository
	accountRepo  accountdomain.Repository
	ledgerConfig *config.LedgerConfigHolder
	obsMetrics   *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("report.service"),
		clock:        p.Clock,
		repo:         p.Repo,
		accountRepo:  p.AccountRepo,
		ledgerConfig: p.LedgerConfig,
		obsMetrics:   p.ObsMetrics,
	}
}

// snapshot is the chart plus per-account sums read in one transaction.
type snapshot struct {
	chart *accountdomain.Chart
	sums  map[snowflake.ID]domain.AccountSum
}

func (s *Service) load(ctx context.Context, filter domain.DateFilter) (*snapshot, error) {
	var snap snapshot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		accounts, err := s.accountRepo.List(ctx, tx)
		if err != nil {
			return err
		}
		sums, err := s.repo.SumByAccount(ctx, tx, filter)
		if err != nil {
			return err
		}
		snap.chart = accountdomain.NewChart(accounts)
		snap.sums = sums
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *snapshot) net(id snowflake.ID) decimal.Decimal {
	sum, ok := s.sums[id]
	if !ok {
		return decimal.Zero
	}
	return sum.Net()
}

// signed returns the balance of id on the normal side of typ.
func (s *snapshot) signed(id snowflake.ID, typ accountdomain.AccountType) decimal.Decimal {
	net := s.net(id)
	if typ.NormalBalance() == accountdomain.NormalBalanceCredit {
		return net.Neg()
	}
	return net
}

// TrialBalance lists every active account, plus inactive accounts that still
// carry a balance so both columns keep summing to the same total.
func (s *Service) TrialBalance(ctx context.Context, asOf *time.Time) (*domain.TrialBalance, error) {
	ctx, span := tracing.Start(ctx, "report.trial_balance", attribute.String("ledger.report", "trial_balance"))
	defer span.End()

	filter := domain.DateFilter{}
	var reportDate *time.Time
	if asOf != nil {
		day := journaldomain.EntryDateOf(*asOf)
		before := day.AddDate(0, 0, 1)
		filter.Before = &before
		reportDate = &day
	}

	snap, err := s.load(ctx, filter)
	if err != nil {
		return nil, err
	}

	report := &domain.TrialBalance{
		AsOf:        reportDate,
		Rows:        []domain.TrialBalanceRow{},
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	for _, acc := range snap.chart.Accounts() {
		net := snap.net(acc.ID)
		if !acc.IsActive && net.IsZero() {
			continue
		}
		row := domain.TrialBalanceRow{
			AccountID:     acc.ID,
			Code:          acc.Code,
			Name:          acc.Name,
			Type:          acc.Type,
			IsActive:      acc.IsActive,
			DebitBalance:  decimal.Zero,
			CreditBalance: decimal.Zero,
		}
		if net.IsPositive() {
			row.DebitBalance = net
		} else if net.IsNegative() {
			row.CreditBalance = net.Neg()
		}
		report.TotalDebit = report.TotalDebit.Add(row.DebitBalance)
		report.TotalCredit = report.TotalCredit.Add(row.CreditBalance)
		report.Rows = append(report.Rows, row)
	}

	if !report.TotalDebit.Equal(report.TotalCredit) {
		s.log.Error("trial balance columns differ",
			zap.String("total_debit", report.TotalDebit.StringFixed(2)),
			zap.String("total_credit", report.TotalCredit.StringFixed(2)),
		)
	}
	s.obsMetrics.RecordReport(ctx, "trial_balance")
	return report, nil
}

// ProfitLoss covers entries dated from start through end, both days included.
func (s *Service) ProfitLoss(ctx context.Context, start, end time.Time) (*domain.ProfitLoss, error) {
	if start.IsZero() || end.IsZero() {
		return nil, domain.ErrInvalidDate
	}
	from := journaldomain.EntryDateOf(start)
	to := journaldomain.EntryDateOf(end)
	if from.After(to) {
		return nil, domain.ErrInvalidDateRange
	}

	ctx, span := tracing.Start(ctx, "report.profit_loss", attribute.String("ledger.report", "profit_loss"))
	defer span.End()

	before := to.AddDate(0, 0, 1)
	snap, err := s.load(ctx, domain.DateFilter{From: &from, Before: &before})
	if err != nil {
		return nil, err
	}

	report := &domain.ProfitLoss{
		StartDate:    from,
		EndDate:      to,
		Revenues:     []domain.ReportItem{},
		Expenses:     []domain.ReportItem{},
		TotalRevenue: decimal.Zero,
		TotalExpense: decimal.Zero,
	}
	for _, acc := range snap.chart.Accounts() {
		switch acc.Type {
		case accountdomain.AccountTypeRevenue:
			item := snap.item(acc)
			if item.Amount.IsZero() && item.Rollup.IsZero() {
				continue
			}
			report.Revenues = append(report.Revenues, item)
			report.TotalRevenue = report.TotalRevenue.Add(item.Amount)
		case accountdomain.AccountTypeExpense:
			item := snap.item(acc)
			if item.Amount.IsZero() && item.Rollup.IsZero() {
				continue
			}
			report.Expenses = append(report.Expenses, item)
			report.TotalExpense = report.TotalExpense.Add(item.Amount)
		}
	}
	report.NetIncome = report.TotalRevenue.Sub(report.TotalExpense)

	s.obsMetrics.RecordReport(ctx, "profit_loss")
	return report, nil
}

// BalanceSheet reports positions as of the end of asOf, or of today when
// asOf is nil. Revenue and expense not yet closed show up as a single
// current earnings equity item.
func (s *Service) BalanceSheet(ctx context.Context, asOf *time.Time) (*domain.BalanceSheet, error) {
	ctx, span := tracing.Start(ctx, "report.balance_sheet", attribute.String("ledger.report", "balance_sheet"))
	defer span.End()

	day := journaldomain.EntryDateOf(s.clock.Now())
	if asOf != nil {
		day = journaldomain.EntryDateOf(*asOf)
	}
	before := day.AddDate(0, 0, 1)

	snap, err := s.load(ctx, domain.DateFilter{Before: &before})
	if err != nil {
		return nil, err
	}

	report := &domain.BalanceSheet{
		AsOf:             day,
		Assets:           []domain.ReportItem{},
		Liabilities:      []domain.ReportItem{},
		Equity:           []domain.ReportItem{},
		TotalAssets:      decimal.Zero,
		TotalLiabilities: decimal.Zero,
		TotalEquity:      decimal.Zero,
	}
	earnings := decimal.Zero
	for _, acc := range snap.chart.Accounts() {
		switch acc.Type {
		case accountdomain.AccountTypeRevenue, accountdomain.AccountTypeExpense:
			earnings = earnings.Sub(snap.net(acc.ID))
			continue
		}

		item := snap.item(acc)
		if !acc.IsActive && item.Amount.IsZero() && item.Rollup.IsZero() {
			continue
		}
		switch acc.Type {
		case accountdomain.AccountTypeAsset:
			report.Assets = append(report.Assets, item)
			report.TotalAssets = report.TotalAssets.Add(item.Amount)
		case accountdomain.AccountTypeLiability:
			report.Liabilities = append(report.Liabilities, item)
			report.TotalLiabilities = report.TotalLiabilities.Add(item.Amount)
		case accountdomain.AccountTypeEquity:
			report.Equity = append(report.Equity, item)
			report.TotalEquity = report.TotalEquity.Add(item.Amount)
		}
	}

	report.Equity = append(report.Equity, domain.ReportItem{
		Code:   domain.CurrentEarningsCode,
		Name:   "Current Earnings",
		Type:   accountdomain.AccountTypeEquity,
		Amount: earnings,
		Rollup: earnings,
	})
	report.TotalEquity = report.TotalEquity.Add(earnings)
	report.TotalLiabilitiesAndEquity = report.TotalLiabilities.Add(report.TotalEquity)

	if !report.Balanced() {
		s.log.Error("balance sheet does not balance",
			zap.String("total_assets", report.TotalAssets.StringFixed(2)),
			zap.String("total_liabilities_and_equity", report.TotalLiabilitiesAndEquity.StringFixed(2)),
		)
	}
	s.obsMetrics.RecordReport(ctx, "balance_sheet")
	return report, nil
}

// item builds the statement line for acc. The rollup applies acc's normal
// side to every account below it, whatever their own type.
func (s *snapshot) item(acc accountdomain.Account) domain.ReportItem {
	id := acc.ID
	rollup := decimal.Zero
	for _, member := range s.chart.Subtree(acc.ID) {
		rollup = rollup.Add(s.signed(member, acc.Type))
	}
	return domain.ReportItem{
		AccountID: &id,
		ParentID:  acc.ParentAccountID,
		Code:      acc.Code,
		Name:      acc.Name,
		Type:      acc.Type,
		Amount:    s.signed(acc.ID, acc.Type),
		Rollup:    rollup,
	}
}

func (s *Service) AccountsPayable(ctx context.Context) (*domain.CounterpartyReport, error) {
	code := s.ledgerConfig.Get().PayableAccountCode
	report, err := s.counterpartyReport(ctx, "accounts_payable", code, journaldomain.CounterpartySupplier, func(sum domain.CounterpartySum) decimal.Decimal {
		return sum.Credit.Sub(sum.Debit)
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *Service) AccountsReceivable(ctx context.Context) (*domain.CounterpartyReport, error) {
	code := s.ledgerConfig.Get().ReceivableAccountCode
	report, err := s.counterpartyReport(ctx, "accounts_receivable", code, journaldomain.CounterpartyCustomer, func(sum domain.CounterpartySum) decimal.Decimal {
		return sum.Debit.Sub(sum.Credit)
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// counterpartyReport nets the tagged lines posted to the control account
// and everything below it. Settled counterparties drop out of the result.
func (s *Service) counterpartyReport(
	ctx context.Context,
	name string,
	controlCode string,
	kind journaldomain.CounterpartyType,
	outstanding func(domain.CounterpartySum) decimal.Decimal,
) (*domain.CounterpartyReport, error) {
	ctx, span := tracing.Start(ctx, "report."+name, attribute.String("ledger.report", name))
	defer span.End()

	report := &domain.CounterpartyReport{
		ControlAccountCode: controlCode,
		Balances:           []domain.CounterpartyBalance{},
		Total:              decimal.Zero,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		accounts, err := s.accountRepo.List(ctx, tx)
		if err != nil {
			return err
		}
		chart := accountdomain.NewChart(accounts)
		control, ok := chart.FindByCode(controlCode)
		if !ok {
			return fmt.Errorf("%s: %w", controlCode, domain.ErrControlAccountMissing)
		}

		sums, err := s.repo.SumByCounterparty(ctx, tx, chart.Subtree(control.ID), kind)
		if err != nil {
			return err
		}
		for _, sum := range sums {
			amount := outstanding(sum)
			if amount.IsZero() {
				continue
			}
			report.Balances = append(report.Balances, domain.CounterpartyBalance{
				CounterpartyType: kind,
				CounterpartyID:   sum.CounterpartyID,
				Amount:           amount,
			})
			report.Total = report.Total.Add(amount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.obsMetrics.RecordReport(ctx, name)
	return report, nil
}
