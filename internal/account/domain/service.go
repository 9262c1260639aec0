package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type CreateAccountRequest struct {
	Code            string
	Name            string
	Type            string
	ParentAccountID *snowflake.ID
}

// UpdateAccountRequest changes only the fields that are set. ClearParent
// detaches the account from its parent and wins over ParentAccountID.
type UpdateAccountRequest struct {
	ID              snowflake.ID
	Code            *string
	Name            *string
	ParentAccountID *snowflake.ID
	ClearParent     bool
}

type Service interface {
	Create(ctx context.Context, req CreateAccountRequest) (*Account, error)
	Update(ctx context.Context, req UpdateAccountRequest) (*Account, error)
	Deactivate(ctx context.Context, id snowflake.ID) (*Account, error)
	List(ctx context.Context) ([]Account, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Account, error)
	Chart(ctx context.Context) (*Chart, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, account *Account) error
	Update(ctx context.Context, db *gorm.DB, account *Account) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Account, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*Account, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]Account, error)
	List(ctx context.Context, db *gorm.DB) ([]Account, error)

	// Locking reads. They must run inside a transaction.
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Account, error)
	FindByIDsForShare(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]Account, error)
	ListForUpdate(ctx context.Context, db *gorm.DB) ([]Account, error)
}

var (
	ErrNotFound           = errors.New("account_not_found")
	ErrDuplicateCode      = errors.New("duplicate_code")
	ErrInvalidParent      = errors.New("invalid_parent")
	ErrInvalidCode        = errors.New("invalid_code")
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidAccountType = errors.New("invalid_account_type")
	ErrInvalidID          = errors.New("invalid_id")
)
