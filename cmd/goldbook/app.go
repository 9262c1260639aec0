package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/goldbook/internal/clock"
	"github.com/smallbiznis/goldbook/internal/config"
	"github.com/smallbiznis/goldbook/internal/observability"
	"github.com/smallbiznis/goldbook/pkg/db"
	"go.uber.org/fx"
)

// infrastructure is shared by every command that touches the ledger database.
func infrastructure() fx.Option {
	return fx.Options(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
	)
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
