package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/auburnhacks/sponsor-portal/internal/session"
)

type loginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
	Admin    bool
}

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var in loginInput

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the sponsor portal",
		Long: `Authenticate with the sponsor portal.

Sponsors log in by default; pass --admin for an admin account. The session
is kept for one hour.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(commandContext(cmd), in, WithServerAlias(serverAliasFlag(cmd)))
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "Email address (or set SPONSOR_EMAIL)")
	cmd.Flags().StringVar(&in.Password, "password", "", "Password (or set SPONSOR_PASSWORD, will prompt if not provided)")
	cmd.Flags().BoolVar(&in.Admin, "admin", false, "Log in as an admin")

	return cmd
}

func runLogin(ctx context.Context, in loginInput, opts ...Option) error {
	o := newOptions(opts)

	// Environment variables are useful for CI
	if in.Email == "" {
		in.Email = os.Getenv("SPONSOR_EMAIL")
	}
	if in.Password == "" {
		in.Password = os.Getenv("SPONSOR_PASSWORD")
	}
	if in.Email == "" {
		return fmt.Errorf("email is required (use --email flag or SPONSOR_EMAIL env var)")
	}
	if err := validate.Var(in.Email, "email"); err != nil {
		return fmt.Errorf("invalid email address %q", in.Email)
	}

	m, err := o.manager()
	if err != nil {
		return err
	}

	if in.Password == "" {
		in.Password, err = o.readPassword("Password: ")
		if err != nil {
			return fmt.Errorf("%w (use --password flag or SPONSOR_PASSWORD env var)", err)
		}
	}
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("invalid login input: %w", err)
	}

	fmt.Fprintf(o.out, "Logging in to %s (%s)...\n", o.server.Alias, o.server.URL)

	var id session.Identity
	if in.Admin {
		id, err = m.LoginAdmin(ctx, in.Email, in.Password)
	} else {
		id, err = m.LoginSponsor(ctx, in.Email, in.Password)
	}
	if err != nil {
		return describeError("login failed", err)
	}

	s, _ := m.Session()
	fmt.Fprintln(o.out, "✓ Login successful!")
	fmt.Fprintf(o.out, "  User: %s (%s)\n", id.Name, id.Email)
	fmt.Fprintf(o.out, "  Role: %s\n", id.Role)
	if id.Company != nil {
		fmt.Fprintf(o.out, "  Company: %s\n", id.Company.Name)
	}
	fmt.Fprintf(o.out, "  Expires: %s\n", s.ExpiresAt.Local().Format("2006-01-02 15:04:05"))

	return nil
}
