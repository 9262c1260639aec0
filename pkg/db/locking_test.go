package db

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type lockedRow struct {
	ID   int64
	Code string
}

func (lockedRow) TableName() string { return "accounts" }

func lockedSQL(conn *gorm.DB, strength string) string {
	return conn.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []lockedRow
		return Lock(tx, strength).Where("id IN ?", []int64{1, 2}).Order("id").Find(&rows)
	})
}

func TestLockRendersRowLocksOnPostgres(t *testing.T) {
	conn, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=goldbook dbname=goldbook sslmode=disable",
	}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)

	assert.Contains(t, lockedSQL(conn, LockUpdate), "FOR UPDATE")
	assert.Contains(t, lockedSQL(conn, LockShare), "FOR SHARE")
}

func TestLockSkipsSQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	assert.NotContains(t, lockedSQL(conn, LockUpdate), "FOR ")
}
