package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/goldbook/internal/account/domain"
	auditdomain "github.com/smallbiznis/goldbook/internal/audit/domain"
	"github.com/smallbiznis/goldbook/internal/clock"
	obsmetrics "github.com/smallbiznis/goldbook/internal/observability/metrics"
	"github.com/smallbiznis/goldbook/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	AuditSvc   auditdomain.Service `optional:"true"`
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	auditSvc   auditdomain.Service
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("account.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		auditSvc:   p.AuditSvc,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateAccountRequest) (*domain.Account, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, domain.ErrInvalidCode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	accountType, ok := domain.ParseAccountType(req.Type)
	if !ok {
		return nil, domain.ErrInvalidAccountType
	}

	now := s.clock.Now().UTC()
	account := &domain.Account{
		ID:        s.genID.Generate(),
		Code:      code,
		Name:      name,
		Type:      accountType,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByCode(ctx, tx, code)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicateCode
		}

		if req.ParentAccountID != nil {
			parent, err := s.repo.FindByID(ctx, tx, *req.ParentAccountID)
			if err != nil {
				return err
			}
			if parent == nil {
				return domain.ErrInvalidParent
			}
			parentID := parent.ID
			account.ParentAccountID = &parentID
		}

		if err := s.repo.Insert(ctx, tx, account); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrDuplicateCode
			}
			return err
		}

		return s.audit(ctx, tx, "account.create", account, nil)
	})
	if err != nil {
		return nil, err
	}

	s.obsMetrics.RecordAccountChange(ctx, "create")
	s.log.Info("account created",
		zap.String("account_id", account.ID.String()),
		zap.String("code", account.Code),
		zap.String("type", string(account.Type)),
	)
	return account, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateAccountRequest) (*domain.Account, error) {
	if req.ID == 0 {
		return nil, domain.ErrInvalidID
	}

	var code, name *string
	if req.Code != nil {
		trimmed := strings.TrimSpace(*req.Code)
		if trimmed == "" {
			return nil, domain.ErrInvalidCode
		}
		code = &trimmed
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return nil, domain.ErrInvalidName
		}
		name = &trimmed
	}

	var (
		updated *domain.Account
		changed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		accounts, err := s.repo.ListForUpdate(ctx, tx)
		if err != nil {
			return err
		}
		chart := domain.NewChart(accounts)

		current, ok := chart.Get(req.ID)
		if !ok {
			return domain.ErrNotFound
		}
		next := current
		changes := map[string]any{}

		if code != nil && *code != current.Code {
			if other, exists := chart.FindByCode(*code); exists && other.ID != current.ID {
				return domain.ErrDuplicateCode
			}
			next.Code = *code
			changes["code"] = map[string]any{"from": current.Code, "to": *code}
		}
		if name != nil && *name != current.Name {
			next.Name = *name
			changes["name"] = map[string]any{"from": current.Name, "to": *name}
		}

		switch {
		case req.ClearParent:
			if current.ParentAccountID != nil {
				next.ParentAccountID = nil
				changes["parent_account_id"] = map[string]any{"from": current.ParentAccountID.String(), "to": nil}
			}
		case req.ParentAccountID != nil:
			parentID := *req.ParentAccountID
			if _, exists := chart.Get(parentID); !exists {
				return domain.ErrInvalidParent
			}
			if chart.WouldCycle(current.ID, parentID) {
				return domain.ErrInvalidParent
			}
			if current.ParentAccountID == nil || *current.ParentAccountID != parentID {
				next.ParentAccountID = &parentID
				changes["parent_account_id"] = map[string]any{"from": idString(current.ParentAccountID), "to": parentID.String()}
			}
		}

		if len(changes) == 0 {
			updated = &current
			return nil
		}
		changed = true

		next.UpdatedAt = s.clock.Now().UTC()
		if err := s.repo.Update(ctx, tx, &next); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrDuplicateCode
			}
			return err
		}
		updated = &next
		return s.audit(ctx, tx, "account.update", &next, changes)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.obsMetrics.RecordAccountChange(ctx, "update")
	}
	return updated, nil
}

// Deactivate is idempotent and leaves child accounts untouched.
func (s *Service) Deactivate(ctx context.Context, id snowflake.ID) (*domain.Account, error) {
	if id == 0 {
		return nil, domain.ErrInvalidID
	}

	var (
		result  *domain.Account
		changed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if account == nil {
			return domain.ErrNotFound
		}
		if !account.IsActive {
			result = account
			return nil
		}

		account.IsActive = false
		account.UpdatedAt = s.clock.Now().UTC()
		if err := s.repo.Update(ctx, tx, account); err != nil {
			return err
		}
		result = account
		changed = true
		return s.audit(ctx, tx, "account.deactivate", account, nil)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.obsMetrics.RecordAccountChange(ctx, "deactivate")
	}
	return result, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	return accounts, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*domain.Account, error) {
	if id == 0 {
		return nil, domain.ErrInvalidID
	}
	account, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrNotFound
	}
	return account, nil
}

func (s *Service) Chart(ctx context.Context) (*domain.Chart, error) {
	accounts, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return domain.NewChart(accounts), nil
}

func (s *Service) audit(ctx context.Context, tx *gorm.DB, action string, account *domain.Account, changes map[string]any) error {
	if s.auditSvc == nil {
		return nil
	}
	targetID := account.ID.String()
	metadata := map[string]any{
		"account_id": targetID,
		"code":       account.Code,
		"type":       string(account.Type),
		"is_active":  account.IsActive,
	}
	if len(changes) > 0 {
		metadata["changes"] = changes
	}
	return s.auditSvc.AuditLog(ctx, tx, action, "account", &targetID, metadata)
}

func idString(id *snowflake.ID) any {
	if id == nil {
		return nil
	}
	return id.String()
}
