package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/goldbook/internal/account/domain"
	"github.com/smallbiznis/goldbook/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, account *domain.Account) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO accounts (id, code, name, type, parent_account_id, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID,
		account.Code,
		account.Name,
		account.Type,
		account.ParentAccountID,
		account.IsActive,
		account.CreatedAt,
		account.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, account *domain.Account) error {
	return db.WithContext(ctx).Exec(
		`UPDATE accounts
		SET code = ?, name = ?, parent_account_id = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		account.Code,
		account.Name,
		account.ParentAccountID,
		account.IsActive,
		account.UpdatedAt,
		account.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Account, error) {
	var account domain.Account
	err := db.WithContext(ctx).Where("id = ?", id).Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*domain.Account, error) {
	var account domain.Account
	err := db.WithContext(ctx).Where("code = ?", code).Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]domain.Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var accounts []domain.Account
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.Account, error) {
	var accounts []domain.Account
	if err := db.WithContext(ctx).Order("code asc").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Account, error) {
	var account domain.Account
	err := db.Lock(conn.WithContext(ctx), db.LockUpdate).Where("id = ?", id).Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByIDsForShare keeps the accounts from being deactivated until the
// caller's transaction ends. Rows are locked in id order.
func (r *repo) FindByIDsForShare(ctx context.Context, conn *gorm.DB, ids []snowflake.ID) ([]domain.Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var accounts []domain.Account
	err := db.Lock(conn.WithContext(ctx), db.LockShare).
		Where("id IN ?", ids).
		Order("id asc").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// ListForUpdate locks the whole chart in code order, so concurrent
// re-parenting is serialized and cannot close a cycle.
func (r *repo) ListForUpdate(ctx context.Context, conn *gorm.DB) ([]domain.Account, error) {
	var accounts []domain.Account
	err := db.Lock(conn.WithContext(ctx), db.LockUpdate).Order("code asc").Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}
