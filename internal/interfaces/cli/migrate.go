package cli

import (
	"github.com/spf13/cobra"

	"github.com/turtacn/molstandardizer/internal/infrastructure/monitoring/logging"
)

// NewMigrateCmd creates the migrate command group.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the result table schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPostgres(cmd, func(b *backends) error {
				conn, err := b.postgres()
				if err != nil {
					return err
				}
				if err := conn.RunMigrations(); err != nil {
					return err
				}
				return PrintResult(cmd, "migrations applied")
			})
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPostgres(cmd, func(b *backends) error {
				conn, err := b.postgres()
				if err != nil {
					return err
				}
				if err := conn.RollbackMigration(steps); err != nil {
					return err
				}
				return PrintResult(cmd, "migrations rolled back")
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(up, down)
	return cmd
}

// withPostgres runs fn with backends that are closed afterwards.
func withPostgres(cmd *cobra.Command, fn func(b *backends) error) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	b := newBackends(cliCtx.Config, cliCtx.Logger)
	defer func() {
		if cerr := b.Close(); cerr != nil {
			cliCtx.Logger.Warn("closing backends", logging.Err(cerr))
		}
	}()
	return fn(b)
}
