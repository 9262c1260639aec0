package migration

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/goldbook/internal/clock"
	"github.com/smallbiznis/goldbook/internal/config"
	"github.com/smallbiznis/goldbook/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, node *snowflake.Node, clk clock.Clock, log *zap.Logger) error {
		if cfg.Bootstrap.AutoMigrate {
			if err := Migrate(conn); err != nil {
				return err
			}
			log.Info("database schema up to date", zap.String("dialect", conn.Dialector.Name()))
		}

		if cfg.Bootstrap.SeedDefaultChart {
			created, err := seed.EnsureDefaultChart(conn, node, clk)
			if err != nil {
				return err
			}
			log.Info("default chart of accounts ensured", zap.Int("created", created))
		}
		return nil
	}),
)
