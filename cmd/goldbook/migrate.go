package main

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/goldbook/internal/clock"
	"github.com/smallbiznis/goldbook/internal/migration"
	"github.com/smallbiznis/goldbook/internal/seed"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newMigrateCommand() *cobra.Command {
	var withSeed bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(
				infrastructure(),
				fx.NopLogger,
				fx.Invoke(func(conn *gorm.DB, node *snowflake.Node, clk clock.Clock, log *zap.Logger) error {
					if err := migration.Migrate(conn); err != nil {
						return err
					}
					log.Info("database schema up to date", zap.String("dialect", conn.Dialector.Name()))

					if !withSeed {
						return nil
					}
					created, err := seed.EnsureDefaultChart(conn, node, clk)
					if err != nil {
						return err
					}
					log.Info("default chart of accounts ensured", zap.Int("created", created))
					return nil
				}),
			)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := app.Start(ctx); err != nil {
				return err
			}
			return app.Stop(ctx)
		},
	}

	cmd.Flags().BoolVar(&withSeed, "seed", false, "create the default jewelry chart of accounts")
	return cmd
}
