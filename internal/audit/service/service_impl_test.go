package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/smallbiznis/goldbook/internal/audit/domain"
	"github.com/smallbiznis/goldbook/internal/audit/repository"
	"github.com/smallbiznis/goldbook/internal/auditcontext"
	"github.com/smallbiznis/goldbook/internal/clock"
	"github.com/smallbiznis/goldbook/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupAuditService(t *testing.T) (auditdomain.Service, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  repository.Provide(),
	})
	return svc, fake
}

func TestAuditLogRequiresAction(t *testing.T) {
	svc, _ := setupAuditService(t)
	err := svc.AuditLog(context.Background(), nil, "  ", "account", nil, nil)
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

func TestAuditLogResolvesActorAndPaginates(t *testing.T) {
	svc, fake := setupAuditService(t)

	ctx := auditcontext.WithActor(context.Background(), "user", "cashier-7")
	ctx = auditcontext.WithRequestID(ctx, "req-1")

	for i := 0; i < 3; i++ {
		targetID := "100"
		require.NoError(t, svc.AuditLog(ctx, nil, "account.create", "account", &targetID, map[string]any{"code": "1000"}))
		fake.Advance(time.Second)
	}
	require.NoError(t, svc.AuditLog(context.Background(), nil, "journal_entry.create", "journal_entry", nil, nil))

	first, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{Action: "account.create", Pagination: paginationOf(2, "")})
	require.NoError(t, err)
	require.Len(t, first.AuditLogs, 2)
	assert.True(t, first.HasMore)
	assert.Equal(t, "user", first.AuditLogs[0].ActorType)
	require.NotNil(t, first.AuditLogs[0].ActorID)
	assert.Equal(t, "cashier-7", *first.AuditLogs[0].ActorID)
	assert.Equal(t, "req-1", first.AuditLogs[0].Metadata["request_id"])

	second, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{Action: "account.create", Pagination: paginationOf(2, first.NextPageToken)})
	require.NoError(t, err)
	require.Len(t, second.AuditLogs, 1)
	assert.False(t, second.HasMore)

	system, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{ActorType: "system"})
	require.NoError(t, err)
	require.Len(t, system.AuditLogs, 1)
	assert.Equal(t, "journal_entry.create", system.AuditLogs[0].Action)
}

func TestListRejectsBadInput(t *testing.T) {
	svc, _ := setupAuditService(t)

	_, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{Pagination: paginationOf(10, "not-a-token")})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidPageToken)

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	_, err = svc.List(context.Background(), auditdomain.ListAuditLogRequest{StartAt: &start, EndAt: &end})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidTimeRange)
}

func paginationOf(size int, token string) pagination.Pagination {
	return pagination.Pagination{PageSize: size, PageToken: token}
}
