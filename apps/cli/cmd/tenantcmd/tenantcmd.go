package tenantcmd

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	acrepo "github.com/edusekai/school-saas/domains/accesscontrol/be/repo"
	acservice "github.com/edusekai/school-saas/domains/accesscontrol/be/service"
	directoryprov "github.com/edusekai/school-saas/domains/directory/be/provisioning"
	directoryrepo "github.com/edusekai/school-saas/domains/directory/be/repo"
	directoryservice "github.com/edusekai/school-saas/domains/directory/be/service"
	identityrepo "github.com/edusekai/school-saas/domains/identity/be/repo"
	identityservice "github.com/edusekai/school-saas/domains/identity/be/service"
	onboardingservice "github.com/edusekai/school-saas/domains/onboarding/be/service"
	profilesrepo "github.com/edusekai/school-saas/domains/profiles/be/repo"
	profilesservice "github.com/edusekai/school-saas/domains/profiles/be/service"
	platformlogging "github.com/edusekai/school-saas/platform/go/logging"
	"github.com/edusekai/school-saas/platform/go/persistence"
	"github.com/edusekai/school-saas/platform/go/tenant"
)

// Command groups tenant management helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenants",
	}
	cmd.AddCommand(registerCommand())
	return cmd
}

func registerCommand() *cobra.Command {
	var (
		databaseURL  string
		baseDomain   string
		schoolName   string
		partitionKey string
		email        string
		password     string
		firstName    string
		lastName     string
	)

	c := &cobra.Command{
		Use:   "register",
		Short: "Register a school with its owner account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			logger, err := platformlogging.NewLogger(platformlogging.Config{
				Component: "cli",
				Level:     "info",
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() {
				_ = logger.Sync()
			}()

			pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: databaseURL})
			if err != nil {
				return fmt.Errorf("init pool: %w", err)
			}
			defer persistence.ClosePool(pool)

			svc := buildOnboarding(pool, baseDomain, logger)
			res, err := svc.Register(ctx, onboardingservice.RegisterInput{
				SchoolName:   schoolName,
				PartitionKey: partitionKey,
				Email:        email,
				Password:     password,
				FirstName:    firstName,
				LastName:     lastName,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "registered %s\nentry url: %s\n", res.Tenant.PartitionKey, res.EntryURL)
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "Postgres connection string")
	c.Flags().StringVar(&baseDomain, "base-domain", "", "Base domain for tenant hostnames")
	c.Flags().StringVar(&schoolName, "name", "", "School display name")
	c.Flags().StringVar(&partitionKey, "partition-key", "", "Partition key (subdomain)")
	c.Flags().StringVar(&email, "email", "", "Owner email")
	c.Flags().StringVar(&password, "password", "", "Owner password")
	c.Flags().StringVar(&firstName, "first-name", "", "Owner first name")
	c.Flags().StringVar(&lastName, "last-name", "", "Owner last name")
	for _, f := range []string{"database-url", "base-domain", "name", "partition-key", "email", "password"} {
		_ = c.MarkFlagRequired(f)
	}
	return c
}

func buildOnboarding(pool *pgxpool.Pool, baseDomain string, logger *zap.Logger) *onboardingservice.Service {
	tenantDB := persistence.NewTenantDB(persistence.TenantDBConfig{
		Pool:         pool,
		SharedSchema: tenant.SharedSchema,
	})

	identityService := identityservice.New(identityrepo.NewPostgresRepository(tenantDB))
	directoryService := directoryservice.New(
		directoryrepo.NewPostgresRepository(tenantDB),
		directoryprov.NewSchemaProvisioner(pool),
		baseDomain,
		logger,
	)
	profileProvisioner := profilesservice.NewProvisioner(profilesservice.ProvisionerConfig{Logger: logger})
	profilesService := profilesservice.New(profilesservice.Config{
		Repository: profilesrepo.NewPostgresRepository(tenantDB),
		Logger:     logger,
	})
	accessService := acservice.New(acservice.Config{
		Store:       acrepo.NewPostgresStore(tenantDB),
		Users:       identityService,
		Provisioner: profileProvisioner,
		Logger:      logger,
	})

	return onboardingservice.New(onboardingservice.Config{
		Identities:    identityService,
		Directory:     directoryService,
		AccessControl: accessService,
		Consistency:   profilesService,
		Logger:        logger,
	})
}
