package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	accountdomain "github.com/smallbiznis/goldbook/internal/account/domain"
	accountrepository "github.com/smallbiznis/goldbook/internal/account/repository"
	accountservice "github.com/smallbiznis/goldbook/internal/account/service"
	auditdomain "github.com/smallbiznis/goldbook/internal/audit/domain"
	"github.com/smallbiznis/goldbook/internal/clock"
	"github.com/smallbiznis/goldbook/internal/config"
	journaldomain "github.com/smallbiznis/goldbook/internal/journal/domain"
	journalrepository "github.com/smallbiznis/goldbook/internal/journal/repository"
	journalservice "github.com/smallbiznis/goldbook/internal/journal/service"
	"github.com/smallbiznis/goldbook/internal/report/domain"
	"github.com/smallbiznis/goldbook/internal/report/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	dayD    = time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	dayNext = dayD.AddDate(0, 0, 1)
)

type fixture struct {
	svc      domain.Service
	accounts accountdomain.Service
	journal  journaldomain.Service
	byCode   map[string]*accountdomain.Account
}

func setup(t *testing.T) *fixture {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(
		&accountdomain.Account{},
		&journaldomain.JournalEntry{},
		&journaldomain.JournalEntryLine{},
		&auditdomain.AuditLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(dayNext.Add(12 * time.Hour))
	accountRepo := accountrepository.Provide()
	ledgerCfg := config.NewStaticLedgerConfigHolder(config.DefaultLedgerConfig())

	f := &fixture{byCode: map[string]*accountdomain.Account{}}
	f.accounts = accountservice.NewService(accountservice.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  accountRepo,
	})
	f.journal = journalservice.NewService(journalservice.Params{
		DB:           conn,
		Log:          zap.NewNop(),
		GenID:        node,
		Clock:        fake,
		Repo:         journalrepository.Provide(),
		AccountRepo:  accountRepo,
		LedgerConfig: ledgerCfg,
	})
	f.svc = NewService(Params{
		DB:           conn,
		Log:          zap.NewNop(),
		Clock:        fake,
		Repo:         repository.Provide(),
		AccountRepo:  accountRepo,
		LedgerConfig: ledgerCfg,
	})

	f.add(t, "1000", "Cash", "Asset", "")
	f.add(t, "1100", "Bank", "Asset", "")
	f.add(t, "1200", "Accounts Receivable", "Asset", "")
	f.add(t, "1300", "Inventory", "Asset", "")
	f.add(t, "1310", "Gold Inventory", "Asset", "1300")
	f.add(t, "2000", "Accounts Payable", "Liability", "")
	f.add(t, "3000", "Owner Equity", "Equity", "")
	f.add(t, "4000", "Sales", "Revenue", "")
	f.add(t, "6000", "Rent", "Expense", "")
	return f
}

func (f *fixture) add(t *testing.T, code, name, typ, parentCode string) {
	t.Helper()
	req := accountdomain.CreateAccountRequest{Code: code, Name: name, Type: typ}
	if parentCode != "" {
		parentID := f.byCode[parentCode].ID
		req.ParentAccountID = &parentID
	}
	acc, err := f.accounts.Create(context.Background(), req)
	require.NoError(t, err)
	f.byCode[code] = acc
}

type leg struct {
	code   string
	debit  string
	credit string
	kind   string
	party  int64
}

func (f *fixture) post(t *testing.T, date time.Time, description string, legs ...leg) {
	t.Helper()
	lines := make([]journaldomain.CreateJournalEntryLineRequest, 0, len(legs))
	for _, l := range legs {
		line := journaldomain.CreateJournalEntryLineRequest{
			AccountID:    f.byCode[l.code].ID,
			DebitAmount:  decimal.Zero,
			CreditAmount: decimal.Zero,
		}
		if l.debit != "" {
			line.DebitAmount = decimal.RequireFromString(l.debit)
		}
		if l.credit != "" {
			line.CreditAmount = decimal.RequireFromString(l.credit)
		}
		if l.kind != "" {
			party := l.party
			line.CounterpartyType = l.kind
			line.CounterpartyID = &party
		}
		lines = append(lines, line)
	}
	_, err := f.journal.Create(context.Background(), journaldomain.CreateJournalEntryRequest{
		EntryDate:   date,
		Description: description,
		Lines:       lines,
	})
	require.NoError(t, err)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2), msgAndArgs...)
}

func rowByCode(rows []domain.TrialBalanceRow, code string) (domain.TrialBalanceRow, bool) {
	for _, row := range rows {
		if row.Code == code {
			return row, true
		}
	}
	return domain.TrialBalanceRow{}, false
}

func TestTrialBalanceAfterSale(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.post(t, dayD, "Cash sale", leg{code: "1000", debit: "1000.00"}, leg{code: "4000", credit: "1000.00"})

	report, err := f.svc.TrialBalance(ctx, &dayD)
	require.NoError(t, err)
	require.Len(t, report.Rows, len(f.byCode))

	for _, row := range report.Rows {
		switch row.Code {
		case "1000":
			assertAmount(t, "1000.00", row.DebitBalance)
			assertAmount(t, "0.00", row.CreditBalance)
		case "4000":
			assertAmount(t, "0.00", row.DebitBalance)
			assertAmount(t, "1000.00", row.CreditBalance)
		default:
			assert.True(t, row.DebitBalance.IsZero(), row.Code)
			assert.True(t, row.CreditBalance.IsZero(), row.Code)
		}
	}
	assertAmount(t, "1000.00", report.TotalDebit)
	assertAmount(t, "1000.00", report.TotalCredit)
}

func TestTrialBalanceAsOfExcludesLaterEntries(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.post(t, dayD, "Cash sale", leg{code: "1000", debit: "1000"}, leg{code: "4000", credit: "1000"})
	f.post(t, dayNext, "Rent", leg{code: "6000", debit: "300"}, leg{code: "1000", credit: "300"})

	before := dayD.AddDate(0, 0, -1)
	empty, err := f.svc.TrialBalance(ctx, &before)
	require.NoError(t, err)
	assert.True(t, empty.TotalDebit.IsZero())

	asOfD, err := f.svc.TrialBalance(ctx, &dayD)
	require.NoError(t, err)
	rent, ok := rowByCode(asOfD.Rows, "6000")
	require.True(t, ok)
	assert.True(t, rent.DebitBalance.IsZero())

	all, err := f.svc.TrialBalance(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, all.AsOf)
	cash, ok := rowByCode(all.Rows, "1000")
	require.True(t, ok)
	assertAmount(t, "700.00", cash.DebitBalance)
	assertAmount(t, "1300.00", all.TotalDebit)
	assert.True(t, all.TotalDebit.Equal(all.TotalCredit))
}

func TestTrialBalanceKeepsInactiveAccountWithBalance(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.post(t, dayD, "Purchase gold on credit",
		leg{code: "1310", debit: "500"},
		leg{code: "2000", credit: "500", kind: "supplier", party: 3},
	)
	_, err := f.accounts.Deactivate(ctx, f.byCode["1310"].ID)
	require.NoError(t, err)
	_, err = f.accounts.Deactivate(ctx, f.byCode["1100"].ID)
	require.NoError(t, err)

	report, err := f.svc.TrialBalance(ctx, nil)
	require.NoError(t, err)

	gold, ok := rowByCode(report.Rows, "1310")
	require.True(t, ok)
	assert.False(t, gold.IsActive)
	assertAmount(t, "500.00", gold.DebitBalance)

	_, ok = rowByCode(report.Rows, "1100")
	assert.False(t, ok)
	assert.True(t, report.TotalDebit.Equal(report.TotalCredit))
}

func TestTrialBalanceAbnormalBalanceStaysBalanced(t *testing.T) {
	f := setup(t)
	f.post(t, dayD, "Overdraw cash", leg{code: "6000", debit: "80"}, leg{code: "1000", credit: "80"})

	report, err := f.svc.TrialBalance(context.Background(), nil)
	require.NoError(t, err)
	cash, ok := rowByCode(report.Rows, "1000")
	require.True(t, ok)
	assertAmount(t, "80.00", cash.CreditBalance)
	assert.True(t, report.TotalDebit.Equal(report.TotalCredit))
}

func TestProfitLoss(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.post(t, dayD, "Cash sale", leg{code: "1000", debit: "1000.00"}, leg{code: "4000", credit: "1000.00"})
	f.post(t, dayD, "Rent", leg{code: "6000", debit: "300.00"}, leg{code: "1000", credit: "300.00"})
	f.post(t, dayNext, "Next day sale", leg{code: "1000", debit: "50"}, leg{code: "4000", credit: "50"})

	report, err := f.svc.ProfitLoss(ctx, dayD, dayD)
	require.NoError(t, err)
	require.Len(t, report.Revenues, 1)
	assert.Equal(t, "Sales", report.Revenues[0].Name)
	assertAmount(t, "1000.00", report.Revenues[0].Amount)
	require.Len(t, report.Expenses, 1)
	assert.Equal(t, "Rent", report.Expenses[0].Name)
	assertAmount(t, "300.00", report.Expenses[0].Amount)
	assertAmount(t, "700.00", report.NetIncome)

	wider, err := f.svc.ProfitLoss(ctx, dayD, dayNext)
	require.NoError(t, err)
	assertAmount(t, "1050.00", wider.TotalRevenue)
	assertAmount(t, "750.00", wider.NetIncome)

	_, err = f.svc.ProfitLoss(ctx, dayNext, dayD)
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
}

func TestProfitLossOmitsQuietAccounts(t *testing.T) {
	f := setup(t)
	f.post(t, dayD, "Cash sale", leg{code: "1000", debit: "10"}, leg{code: "4000", credit: "10"})

	report, err := f.svc.ProfitLoss(context.Background(), dayD, dayD)
	require.NoError(t, err)
	assert.Len(t, report.Revenues, 1)
	assert.Empty(t, report.Expenses)
	assertAmount(t, "0.00", report.TotalExpense)
}

func TestBalanceSheetEquation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.post(t, dayD, "Owner investment", leg{code: "1100", debit: "20000"}, leg{code: "3000", credit: "20000"})
	f.post(t, dayD, "Gold on credit",
		leg{code: "1310", debit: "7500.50"},
		leg{code: "2000", credit: "7500.50", kind: "supplier", party: 1},
	)
	f.post(t, dayD, "Ring sale", leg{code: "1000", debit: "1000"}, leg{code: "4000", credit: "1000"})
	f.post(t, dayD, "Rent", leg{code: "6000", debit: "300"}, leg{code: "1100", credit: "300"})

	report, err := f.svc.BalanceSheet(ctx, &dayD)
	require.NoError(t, err)
	assert.Equal(t, dayD, report.AsOf)
	assertAmount(t, "28200.50", report.TotalAssets)
	assertAmount(t, "7500.50", report.TotalLiabilities)
	assertAmount(t, "20700.00", report.TotalEquity)
	assert.True(t, report.Balanced())
	assert.True(t, report.TotalAssets.Equal(report.TotalLiabilitiesAndEquity))

	last := report.Equity[len(report.Equity)-1]
	assert.Equal(t, domain.CurrentEarningsCode, last.Code)
	assert.Nil(t, last.AccountID)
	assertAmount(t, "700.00", last.Amount)

	for _, item := range report.Assets {
		if item.Code == "1300" {
			assertAmount(t, "0.00", item.Amount)
			assertAmount(t, "7500.50", item.Rollup)
		}
	}
}

func TestBalanceSheetDefaultsToToday(t *testing.T) {
	f := setup(t)
	f.post(t, dayNext, "Ring sale", leg{code: "1000", debit: "40"}, leg{code: "4000", credit: "40"})

	report, err := f.svc.BalanceSheet(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, dayNext, report.AsOf)
	assertAmount(t, "40.00", report.TotalAssets)
	assert.True(t, report.Balanced())
}

func TestAccountsPayableAndReceivable(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.post(t, dayD, "Gold from supplier 1",
		leg{code: "1310", debit: "1000"},
		leg{code: "2000", credit: "1000", kind: "supplier", party: 1},
	)
	f.post(t, dayD, "Silver from supplier 2",
		leg{code: "1300", debit: "400"},
		leg{code: "2000", credit: "400", kind: "supplier", party: 2},
	)
	f.post(t, dayD, "Pay supplier 1 in part",
		leg{code: "2000", debit: "600", kind: "supplier", party: 1},
		leg{code: "1100", credit: "600"},
	)
	f.post(t, dayD, "Pay supplier 2 in full",
		leg{code: "2000", debit: "400", kind: "supplier", party: 2},
		leg{code: "1100", credit: "400"},
	)
	f.post(t, dayD, "Necklace on credit",
		leg{code: "1200", debit: "2500", kind: "customer", party: 9},
		leg{code: "4000", credit: "2500"},
	)

	payable, err := f.svc.AccountsPayable(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2000", payable.ControlAccountCode)
	require.Len(t, payable.Balances, 1)
	assert.Equal(t, int64(1), payable.Balances[0].CounterpartyID)
	assert.Equal(t, journaldomain.CounterpartySupplier, payable.Balances[0].CounterpartyType)
	assertAmount(t, "400.00", payable.Balances[0].Amount)
	assertAmount(t, "400.00", payable.Total)

	receivable, err := f.svc.AccountsReceivable(ctx)
	require.NoError(t, err)
	require.Len(t, receivable.Balances, 1)
	assert.Equal(t, int64(9), receivable.Balances[0].CounterpartyID)
	assertAmount(t, "2500.00", receivable.Total)
}

func TestAccountsPayableMissingControlAccount(t *testing.T) {
	f := setup(t)
	svc := f.svc.(*Service)
	svc.ledgerConfig = config.NewStaticLedgerConfigHolder(config.LedgerConfig{PayableAccountCode: "9999"})

	_, err := f.svc.AccountsPayable(context.Background())
	assert.ErrorIs(t, err, domain.ErrControlAccountMissing)
}
