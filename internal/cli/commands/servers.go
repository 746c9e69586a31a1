package commands

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/auburnhacks/sponsor-portal/internal/cli/config"
	"github.com/auburnhacks/sponsor-portal/internal/cli/serverselect"
	"github.com/auburnhacks/sponsor-portal/internal/cli/userconfig"
)

// NewSelectServerCmd creates the select-server command
func NewSelectServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select-server [url-or-alias]",
		Short: "Select the Auth API server to use for commands",
		Long: `Select the Auth API server to use for commands.

If no param is provided, an interactive prompt will be shown.

Examples:
  $ sponsor select-server                        # Interactive selection
  $ sponsor select-server http://localhost:8080  # Select by url
  $ sponsor select-server production             # Select by alias`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var urlOrAlias string
			if len(args) > 0 {
				urlOrAlias = args[0]
			}
			return runSelectServer(urlOrAlias, WithOutput(cmd.OutOrStdout()))
		},
	}
}

func runSelectServer(urlOrAlias string, opts ...Option) error {
	o := newOptions(opts)

	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return fmt.Errorf("failed to load config: %w\nRun 'sponsor init <api-url>' to create a configuration file", err)
	}

	var server *config.Server
	if urlOrAlias != "" {
		server, err = serverselect.GetServerByURLOrAlias(cfg, urlOrAlias)
	} else {
		server, err = serverselect.PromptServerSelection(cfg)
	}
	if err != nil {
		return err
	}

	if err := userconfig.SetSelectedServer(server.URL); err != nil {
		return fmt.Errorf("failed to save selected server: %w", err)
	}

	fmt.Fprintf(o.out, "Selected server: %s (%s)\n", server.Alias, server.URL)
	return nil
}

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	var alias string

	cmd := &cobra.Command{
		Use:   "init <api-url>",
		Short: "Add an Auth API server to ./sponsor.yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(args[0], alias, WithOutput(cmd.OutOrStdout()))
		},
	}

	cmd.Flags().StringVar(&alias, "alias", "", "Name for the server (defaults to server-N)")

	return cmd
}

func runInit(apiURL, alias string, opts ...Option) error {
	o := newOptions(opts)

	currentDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	configPath := filepath.Join(currentDir, config.ConfigFileName)

	cfg := &config.Config{}
	isNewConfig := true
	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		isNewConfig = false
		fmt.Fprintf(o.out, "Found existing %s\n", config.ConfigFileName)
	}

	if alias == "" {
		alias = fmt.Sprintf("server-%d", len(cfg.Servers)+1)
	}
	if _, err := cfg.GetServerByAlias(alias); err == nil {
		return fmt.Errorf("alias %q is already used in %s", alias, config.ConfigFileName)
	}

	candidate := config.Server{URL: apiURL, Alias: alias}
	if err := candidate.Validate(); err != nil {
		return err
	}

	server, added := cfg.AddServer(apiURL, alias)
	if !added {
		fmt.Fprintf(o.out, "Server %s already exists in %s as %s\n", server.URL, config.ConfigFileName, server.Alias)
		return nil
	}

	if err := config.Save(configPath, cfg); err != nil {
		return err
	}

	if isNewConfig {
		fmt.Fprintf(o.out, "✓ Created ./%s with server %s (%s)\n", config.ConfigFileName, server.URL, server.Alias)
	} else {
		fmt.Fprintf(o.out, "✓ Added server %s (%s) to ./%s\n", server.URL, server.Alias, config.ConfigFileName)
	}

	fmt.Fprintln(o.out, "\nNext steps:")
	fmt.Fprintln(o.out, "  1. Run 'sponsor login' (or 'sponsor login --admin') to authenticate")
	fmt.Fprintln(o.out, "  2. Run 'sponsor whoami' to check the session")

	return nil
}

// NewDashCmd creates the dash command
func NewDashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dash",
		Short: "Open the sponsor portal dashboard in browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDash(WithServerAlias(serverAliasFlag(cmd)), WithOutput(cmd.OutOrStdout()))
		},
	}
}

func runDash(opts ...Option) error {
	o := newOptions(opts)

	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return fmt.Errorf("failed to load config: %w\nRun 'sponsor init <api-url>' to create a configuration file", err)
	}

	dashboardURL := cfg.Dashboard
	if dashboardURL == "" {
		server := o.server
		if server == nil {
			if server, err = serverselect.ResolveServer(cfg, o.serverAlias); err != nil {
				return err
			}
		}
		dashboardURL = server.URL
	}

	fmt.Fprintf(o.out, "Opening dashboard...\nURL: %s\n", dashboardURL)

	if err := o.openBrowser(dashboardURL); err != nil {
		return fmt.Errorf("failed to open browser: %w\nPlease visit: %s", err, dashboardURL)
	}

	return nil
}

// openBrowser opens the URL in the default browser
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
