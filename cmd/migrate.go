package cmd

import (
	"fmt"

	"github.com/samber/do"
	"github.com/spf13/cobra"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/docuseek/indexcore/internal/migration"
	"github.com/docuseek/indexcore/internal/migrations"
)

func newMigrateCommand(i *do.Injector) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run pending data migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			runner, err := migration.NewRunnerFromInjector(i, migrations.All())
			if err != nil {
				return fmt.Errorf("failed to initialize migration runner: %w", err)
			}
			defer func() {
				if client, err := do.Invoke[*clientv3.Client](i); err == nil {
					client.Close()
				}
			}()

			if err := runner.Run(cmd.Context()); err != nil {
				return fmt.Errorf("migrations failed: %w", err)
			}

			logger.Info().Msg("migrations complete")
			return nil
		},
	}
}
