package seed

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	accountdomain "github.com/smallbiznis/goldbook/internal/account/domain"
	"github.com/smallbiznis/goldbook/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(&accountdomain.Account{}))
	return conn
}

func TestEnsureDefaultChart(t *testing.T) {
	conn := openDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	created, err := EnsureDefaultChart(conn, node, clk)
	require.NoError(t, err)
	assert.Equal(t, len(defaultChart), created)

	var accounts []accountdomain.Account
	require.NoError(t, conn.Find(&accounts).Error)
	chart := accountdomain.NewChart(accounts)

	gold, ok := chart.FindByCode("1310")
	require.True(t, ok)
	inventory, ok := chart.FindByCode("1300")
	require.True(t, ok)
	require.NotNil(t, gold.ParentAccountID)
	assert.Equal(t, inventory.ID, *gold.ParentAccountID)

	for _, code := range []string{"1000", "1100", "1200", "2000"} {
		_, ok := chart.FindByCode(code)
		assert.True(t, ok, code)
	}

	again, err := EnsureDefaultChart(conn, node, clk)
	require.NoError(t, err)
	assert.Zero(t, again)

	var count int64
	require.NoError(t, conn.Model(&accountdomain.Account{}).Count(&count).Error)
	assert.Equal(t, int64(len(defaultChart)), count)
}

func TestEnsureDefaultChartKeepsExistingAccount(t *testing.T) {
	conn := openDB(t)
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	now := time.Now().UTC()
	existing := accountdomain.Account{
		ID: node.Generate(), Code: "1000", Name: "Petty Cash", Type: accountdomain.AccountTypeAsset,
		IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, conn.Create(&existing).Error)

	created, err := EnsureDefaultChart(conn, node, nil)
	require.NoError(t, err)
	assert.Equal(t, len(defaultChart)-1, created)

	var stored accountdomain.Account
	require.NoError(t, conn.Where("code = ?", "1000").Take(&stored).Error)
	assert.Equal(t, "Petty Cash", stored.Name)
}

func TestEnsureDefaultChartRequiresHandles(t *testing.T) {
	_, err := EnsureDefaultChart(nil, nil, nil)
	assert.Error(t, err)
}
