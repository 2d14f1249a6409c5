package root

import (
	"github.com/spf13/cobra"

	"github.com/edusekai/school-saas/apps/cli/cmd/bootstrap"
	"github.com/edusekai/school-saas/apps/cli/cmd/tenantcmd"
)

// rootCmd is the base command for the EduSekai admin CLI.
var rootCmd = &cobra.Command{
	Use:           "edusekai",
	Short:         "EduSekai admin CLI",
	Long:          "Administrative utilities for EduSekai (shared schema bootstrap, tenant management).",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.AddCommand(bootstrap.Command())
	rootCmd.AddCommand(tenantcmd.Command())
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}
