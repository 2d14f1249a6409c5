package bootstrap

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edusekai/school-saas/platform/go/persistence"
)

// Command groups bootstrap helpers. Bootstrap only creates shared-partition
// tables; tenant partitions are provisioned by registration.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Bootstrap platform resources",
	}
	cmd.AddCommand(sharedCommand())
	return cmd
}

func sharedCommand() *cobra.Command {
	var databaseURL string

	c := &cobra.Command{
		Use:   "shared",
		Short: "Create the shared partition tables (users, tenants, domains)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: databaseURL})
			if err != nil {
				return fmt.Errorf("init pool: %w", err)
			}
			defer persistence.ClosePool(pool)

			if err := persistence.BootstrapSharedSchema(ctx, pool); err != nil {
				return fmt.Errorf("bootstrap shared schema: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "shared partition ready")
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "Postgres connection string")
	_ = c.MarkFlagRequired("database-url")
	return c
}
