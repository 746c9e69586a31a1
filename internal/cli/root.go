package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/auburnhacks/sponsor-portal/internal/cli/commands"
	"github.com/auburnhacks/sponsor-portal/internal/logger"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "sponsor",
	Short: "Sponsor portal - AuburnHacks sponsorship management",
	Long: `Sponsor portal CLI - log in as a sponsor or admin, browse participants
and manage sponsor accounts.

Sessions are stored in the OS keyring per server and last one hour.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := os.Getenv("LOG_LEVEL")
		if level == "" {
			level = "warn"
		}
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = "debug"
		}
		logger.InitWriter(os.Stderr, level, "console")
	},
}

func init() {
	rootCmd.PersistentFlags().String("server", "", "Server alias from sponsor.yaml (uses the selected server if not specified)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log Auth API requests to stderr")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sponsor version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewValidateCmd())
	rootCmd.AddCommand(commands.NewParticipantsCmd())
	rootCmd.AddCommand(commands.NewCompaniesCmd())
	rootCmd.AddCommand(commands.NewSponsorsCmd())
	rootCmd.AddCommand(commands.NewAdminsCmd())
	rootCmd.AddCommand(commands.NewProfileCmd())
	rootCmd.AddCommand(commands.NewSelectServerCmd())
	rootCmd.AddCommand(commands.NewDashCmd())
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
