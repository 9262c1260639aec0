package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/goldbook/internal/account/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(&domain.Account{}))
	return conn
}

func seedAccounts(t *testing.T, conn *gorm.DB, r domain.Repository) []domain.Account {
	t.Helper()
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	accounts := []domain.Account{
		{ID: snowflake.ID(30), Code: "4000", Name: "Penjualan Emas", Type: domain.AccountTypeRevenue, IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: snowflake.ID(10), Code: "1000", Name: "Kas", Type: domain.AccountTypeAsset, IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: snowflake.ID(20), Code: "1100", Name: "Bank", Type: domain.AccountTypeAsset, IsActive: false, CreatedAt: now, UpdatedAt: now},
	}
	for i := range accounts {
		require.NoError(t, r.Insert(context.Background(), conn, &accounts[i]))
	}
	return accounts
}

func TestLockingReadsInsideTransaction(t *testing.T) {
	conn := openSQLite(t)
	r := Provide()
	seedAccounts(t, conn, r)
	ctx := context.Background()

	err := conn.Transaction(func(tx *gorm.DB) error {
		all, err := r.ListForUpdate(ctx, tx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"1000", "1100", "4000"}, []string{all[0].Code, all[1].Code, all[2].Code})

		shared, err := r.FindByIDsForShare(ctx, tx, []snowflake.ID{30, 20})
		require.NoError(t, err)
		require.Len(t, shared, 2)
		assert.Equal(t, snowflake.ID(20), shared[0].ID)
		assert.False(t, shared[0].IsActive)
		assert.Equal(t, snowflake.ID(30), shared[1].ID)

		one, err := r.FindByIDForUpdate(ctx, tx, 10)
		require.NoError(t, err)
		require.NotNil(t, one)
		assert.Equal(t, "Kas", one.Name)

		missing, err := r.FindByIDForUpdate(ctx, tx, 99)
		require.NoError(t, err)
		assert.Nil(t, missing)
		return nil
	})
	require.NoError(t, err)
}

func TestLockingReadsTakeRowLocksOnPostgres(t *testing.T) {
	conn, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=goldbook dbname=goldbook sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)

	var statements []string
	require.NoError(t, conn.Callback().Query().After("gorm:query").Register("test:capture_sql", func(tx *gorm.DB) {
		statements = append(statements, tx.Statement.SQL.String())
	}))

	r := Provide()
	ctx := context.Background()
	_, err = r.ListForUpdate(ctx, conn)
	require.NoError(t, err)
	_, err = r.FindByIDsForShare(ctx, conn, []snowflake.ID{1, 2})
	require.NoError(t, err)
	_, err = r.FindByIDForUpdate(ctx, conn, 1)
	require.NoError(t, err)

	require.Len(t, statements, 3)
	assert.Contains(t, statements[0], "FOR UPDATE")
	assert.Contains(t, statements[1], "FOR SHARE")
	assert.Contains(t, statements[2], "FOR UPDATE")
}
