package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/goldbook/internal/account/domain"
	auditdomain "github.com/smallbiznis/goldbook/internal/audit/domain"
	"github.com/smallbiznis/goldbook/internal/clock"
	"github.com/smallbiznis/goldbook/internal/config"
	"github.com/smallbiznis/goldbook/internal/journal/domain"
	obsmetrics "github.com/smallbiznis/goldbook/internal/observability/metrics"
	"github.com/smallbiznis/goldbook/internal/observability/tracing"
	"github.com/smallbiznis/goldbook/pkg/db/pagination"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	AccountRepo  accountdomain.Repository
	LedgerConfig *config.LedgerConfigHolder `optional:"true"`
	AuditSvc     auditdomain.Service        `optional:"true"`
	ObsMetrics   *obsmetrics.Metrics        `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	accountRepo  accountdomain.Repository
	ledgerConfig *config.LedgerConfigHolder
	auditSvc     auditdomain.Service
	obsMetrics   *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("journal.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		accountRepo:  p.AccountRepo,
		ledgerConfig: p.LedgerConfig,
		auditSvc:     p.AuditSvc,
		obsMetrics:   p.ObsMetrics,
	}
}

// Create posts a journal entry. Every check runs before the first write and
// the entry is stored together with its lines or not at all.
func (s *Service) Create(ctx context.Context, req domain.CreateJournalEntryRequest) (*domain.JournalEntry, error) {
	source := req.Source
	if source == "" {
		source = domain.SourceManual
	}

	ctx, span := tracing.Start(ctx, "journal.create", attribute.Int("ledger.line_count", len(req.Lines)))
	defer span.End()

	entry, err := s.post(ctx, source, req)
	if err != nil {
		fields := []zap.Field{zap.String("source", string(source)), zap.Error(err)}
		reason := domain.ReasonOf(err)
		if reason == "" {
			span.SetStatus(codes.Error, "post journal entry failed")
			s.obsMetrics.RecordJournalRejected(ctx, string(source), "internal")
			s.log.Error("journal entry post failed", fields...)
			return nil, err
		}
		s.obsMetrics.RecordJournalRejected(ctx, string(source), reason)
		s.log.Info("journal entry rejected", append(fields, zap.String("reason", reason))...)
		return nil, err
	}

	s.obsMetrics.RecordJournalPosted(ctx, string(source))
	s.log.Info("journal entry posted",
		zap.String("journal_entry_id", entry.ID.String()),
		zap.String("source", string(source)),
		zap.Int("lines", len(entry.Lines)),
	)
	return entry, nil
}

func (s *Service) post(ctx context.Context, source domain.SourceType, req domain.CreateJournalEntryRequest) (*domain.JournalEntry, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, domain.ErrInvalidDescription
	}
	if req.EntryDate.IsZero() {
		return nil, domain.ErrInvalidEntryDate
	}

	totals, err := domain.ValidateLines(req.Lines)
	if err != nil {
		return nil, err
	}

	entry := &domain.JournalEntry{
		ID:              s.genID.Generate(),
		EntryDate:       domain.EntryDateOf(req.EntryDate),
		ReferenceNumber: trimmedOrNil(req.ReferenceNumber),
		Description:     description,
		Source:          source,
		TotalDebit:      totals.Debit,
		TotalCredit:     totals.Credit,
		CreatedAt:       s.clock.Now().UTC(),
	}
	entry.Lines = make([]domain.JournalEntryLine, 0, len(req.Lines))
	for i, line := range req.Lines {
		row := domain.JournalEntryLine{
			ID:             s.genID.Generate(),
			JournalEntryID: entry.ID,
			LineNo:         i + 1,
			AccountID:      line.AccountID,
			DebitAmount:    line.DebitAmount,
			CreditAmount:   line.CreditAmount,
			Description:    trimmedOrNil(line.Description),
			CounterpartyID: line.CounterpartyID,
		}
		if line.CounterpartyType != "" {
			kind := domain.CounterpartyType(line.CounterpartyType)
			row.CounterpartyType = &kind
		}
		entry.Lines = append(entry.Lines, row)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkAccounts(ctx, tx, entry.Lines); err != nil {
			return err
		}
		if err := s.repo.InsertEntry(ctx, tx, entry); err != nil {
			return err
		}
		if err := s.repo.InsertLines(ctx, tx, entry.Lines); err != nil {
			return err
		}
		return s.audit(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) checkAccounts(ctx context.Context, tx *gorm.DB, lines []domain.JournalEntryLine) error {
	ids := make([]snowflake.ID, 0, len(lines))
	seen := make(map[snowflake.ID]struct{}, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.AccountID]; ok {
			continue
		}
		seen[line.AccountID] = struct{}{}
		ids = append(ids, line.AccountID)
	}

	accounts, err := s.accountRepo.FindByIDsForShare(ctx, tx, ids)
	if err != nil {
		return err
	}
	byID := make(map[snowflake.ID]accountdomain.Account, len(accounts))
	for _, acc := range accounts {
		byID[acc.ID] = acc
	}

	for _, line := range lines {
		acc, ok := byID[line.AccountID]
		if !ok {
			return fmt.Errorf("line %d account %s: %w", line.LineNo, line.AccountID, domain.ErrUnknownAccount)
		}
		if !acc.IsActive {
			return fmt.Errorf("line %d account %s: %w", line.LineNo, acc.Code, domain.ErrInactiveAccount)
		}
	}
	return nil
}

func (s *Service) List(ctx context.Context, req domain.ListJournalEntryRequest) (domain.ListJournalEntryResponse, error) {
	var from, before *time.Time
	if req.From != nil {
		day := domain.EntryDateOf(*req.From)
		from = &day
	}
	if req.To != nil {
		day := domain.EntryDateOf(*req.To).AddDate(0, 0, 1)
		before = &day
	}
	if from != nil && before != nil && !from.Before(*before) {
		return domain.ListJournalEntryResponse{}, domain.ErrInvalidDateRange
	}

	var cursor *domain.EntryCursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.ListJournalEntryResponse{}, domain.ErrInvalidPageToken
		}
		entryDate, err := decoded.CursorTime()
		if err != nil {
			return domain.ListJournalEntryResponse{}, domain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return domain.ListJournalEntryResponse{}, domain.ErrInvalidPageToken
		}
		cursor = &domain.EntryCursor{ID: id, EntryDate: entryDate}
	}

	pageSize := pagination.NormalizePageSize(req.PageSize)
	items, err := s.repo.List(ctx, s.db, domain.ListFilter{
		From:   from,
		Before: before,
		Cursor: cursor,
		Limit:  pageSize,
	})
	if err != nil {
		return domain.ListJournalEntryResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(item *domain.JournalEntry) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.EntryDate.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if len(items) > pageSize {
		items = items[:pageSize]
	}

	entries := make([]domain.JournalEntry, 0, len(items))
	ids := make([]snowflake.ID, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		entries = append(entries, *item)
		ids = append(ids, item.ID)
	}
	if err := s.attachLines(ctx, entries, ids); err != nil {
		return domain.ListJournalEntryResponse{}, err
	}

	return domain.ListJournalEntryResponse{PageInfo: *pageInfo, JournalEntries: entries}, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*domain.JournalEntry, error) {
	if id == 0 {
		return nil, domain.ErrInvalidID
	}
	entry, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, domain.ErrNotFound
	}

	lines, err := s.repo.FindLines(ctx, s.db, []snowflake.ID{id})
	if err != nil {
		return nil, err
	}
	entry.Lines = lines
	return entry, nil
}

func (s *Service) GetLines(ctx context.Context, entryID snowflake.ID) ([]domain.JournalEntryLine, error) {
	entry, err := s.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Lines == nil {
		return []domain.JournalEntryLine{}, nil
	}
	return entry.Lines, nil
}

func (s *Service) attachLines(ctx context.Context, entries []domain.JournalEntry, ids []snowflake.ID) error {
	lines, err := s.repo.FindLines(ctx, s.db, ids)
	if err != nil {
		return err
	}
	byEntry := make(map[snowflake.ID][]domain.JournalEntryLine, len(ids))
	for _, line := range lines {
		byEntry[line.JournalEntryID] = append(byEntry[line.JournalEntryID], line)
	}
	for i := range entries {
		entries[i].Lines = byEntry[entries[i].ID]
	}
	return nil
}

func (s *Service) audit(ctx context.Context, tx *gorm.DB, entry *domain.JournalEntry) error {
	if s.auditSvc == nil {
		return nil
	}
	targetID := entry.ID.String()
	return s.auditSvc.AuditLog(ctx, tx, "journal_entry.create", "journal_entry", &targetID, map[string]any{
		"journal_entry_id": targetID,
		"entry_date":       entry.EntryDate.Format(time.DateOnly),
		"source":           string(entry.Source),
		"total_debit":      entry.TotalDebit.StringFixed(2),
		"total_credit":     entry.TotalCredit.StringFixed(2),
		"line_count":       len(entry.Lines),
	})
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (s *Service) RecordCashTransaction(ctx context.Context, req domain.MoneyMovementRequest) (*domain.JournalEntry, error) {
	return s.recordMovement(ctx, domain.SourceCash, s.ledgerConfig.Get().CashAccountCode, req)
}

func (s *Service) RecordBankTransaction(ctx context.Context, req domain.MoneyMovementRequest) (*domain.JournalEntry, error) {
	return s.recordMovement(ctx, domain.SourceBank, s.ledgerConfig.Get().BankAccountCode, req)
}

// recordMovement turns a signed amount into a two-line entry. Money coming
// in debits the money account, money going out credits it.
func (s *Service) recordMovement(ctx context.Context, source domain.SourceType, defaultCode string, req domain.MoneyMovementRequest) (*domain.JournalEntry, error) {
	if req.Amount.IsZero() {
		return nil, domain.ErrInvalidAmount
	}
	if err := domain.CheckAmount(req.Amount.Abs()); err != nil {
		return nil, err
	}

	money, err := s.resolveMoneyAccount(ctx, req.AccountID, defaultCode)
	if err != nil {
		return nil, err
	}
	if req.CounterAccountID == 0 || req.CounterAccountID == money.ID {
		return nil, domain.ErrInvalidCounterAccount
	}

	amount := req.Amount.Abs()
	moneyLine := domain.CreateJournalEntryLineRequest{AccountID: money.ID}
	counterLine := domain.CreateJournalEntryLineRequest{
		AccountID:        req.CounterAccountID,
		CounterpartyType: req.CounterpartyType,
		CounterpartyID:   req.CounterpartyID,
	}
	if req.Amount.IsPositive() {
		moneyLine.DebitAmount = amount
		counterLine.CreditAmount = amount
	} else {
		moneyLine.CreditAmount = amount
		counterLine.DebitAmount = amount
	}

	return s.Create(ctx, domain.CreateJournalEntryRequest{
		EntryDate:       req.TransactionDate,
		ReferenceNumber: req.ReferenceNumber,
		Description:     req.Description,
		Source:          source,
		Lines:           []domain.CreateJournalEntryLineRequest{moneyLine, counterLine},
	})
}

func (s *Service) resolveMoneyAccount(ctx context.Context, id snowflake.ID, defaultCode string) (*accountdomain.Account, error) {
	var (
		acc *accountdomain.Account
		err error
	)
	if id == 0 {
		acc, err = s.accountRepo.FindByCode(ctx, s.db, defaultCode)
	} else {
		acc, err = s.accountRepo.FindByID(ctx, s.db, id)
	}
	if err != nil {
		return nil, err
	}
	if acc == nil || acc.Type != accountdomain.AccountTypeAsset {
		return nil, domain.ErrInvalidMoneyAccount
	}
	return acc, nil
}
