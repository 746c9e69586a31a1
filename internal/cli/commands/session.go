package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/auburnhacks/sponsor-portal/internal/auth"
	"github.com/auburnhacks/sponsor-portal/internal/session"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(WithServerAlias(serverAliasFlag(cmd)))
		},
	}
}

func runLogout(opts ...Option) error {
	o := newOptions(opts)

	m, err := o.manager()
	if err != nil {
		return err
	}

	// leftovers of a broken session are cleared too
	anonymous := m.State() == session.StateAnonymous
	m.Logout()

	if anonymous {
		fmt.Fprintln(o.out, "Not logged in.")
		return nil
	}
	fmt.Fprintf(o.out, "✓ Logged out of %s\n", o.server.Alias)
	return nil
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	var showClaims bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(showClaims, WithServerAlias(serverAliasFlag(cmd)))
		},
	}

	cmd.Flags().BoolVar(&showClaims, "claims", false, "Also print the claims carried by the token")

	return cmd
}

func runWhoami(showClaims bool, opts ...Option) error {
	o := newOptions(opts)

	m, err := o.manager()
	if err != nil {
		return err
	}

	// an expired session is still shown so the user knows who to log in as
	s, ok := m.Session()
	if !ok {
		fmt.Fprintln(o.out, "Not logged in. Run 'sponsor login' to authenticate.")
		return nil
	}
	state := m.State()
	id := s.Identity
	if current, ok := m.CurrentUser(); ok {
		id = current
	}

	w := tabwriter.NewWriter(o.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", id.ID)
	fmt.Fprintf(w, "Name:\t%s\n", id.Name)
	fmt.Fprintf(w, "Email:\t%s\n", id.Email)
	fmt.Fprintf(w, "Role:\t%s\n", id.Role)
	if id.Company != nil {
		fmt.Fprintf(w, "Company:\t%s\n", id.Company.Name)
	}
	fmt.Fprintf(w, "ACL:\t%s\n", strings.Join(id.Capabilities(), ", "))
	fmt.Fprintf(w, "Session:\t%s\n", state)
	fmt.Fprintf(w, "Expires:\t%s\n", s.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
	w.Flush()

	if state == session.StateExpired {
		fmt.Fprintln(o.out, "\nThe session has expired. Run 'sponsor login' again.")
	}

	if showClaims && s.Token != nil {
		claims, err := auth.InspectToken(s.Token.Unveil())
		if err != nil {
			fmt.Fprintf(o.out, "\nToken is not a readable JWT: %v\n", err)
			return nil
		}

		fmt.Fprintln(o.out, "\nToken claims (unverified):")
		w := tabwriter.NewWriter(o.out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "  sub:\t%s\n", claims.Subject)
		fmt.Fprintf(w, "  iss:\t%s\n", claims.Issuer)
		fmt.Fprintf(w, "  role:\t%s\n", claims.Role)
		fmt.Fprintf(w, "  acl:\t%s\n", claims.ACL)
		if claims.ExpiresAt != nil {
			fmt.Fprintf(w, "  exp:\t%s\n", claims.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
		}
		w.Flush()
	}

	return nil
}

// NewValidateCmd creates the validate command
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check with the Auth API that the logged in account still exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(commandContext(cmd), WithServerAlias(serverAliasFlag(cmd)))
		},
	}
}

func runValidate(ctx context.Context, opts ...Option) error {
	o := newOptions(opts)

	m, err := o.manager()
	if err != nil {
		return err
	}

	id, _, err := authenticated(m)
	if err != nil {
		return err
	}

	if !m.ValidateUser(ctx, id.ID) {
		return fmt.Errorf("the Auth API no longer accepts %s (%s). Run 'sponsor login' again", id.Email, id.Role)
	}

	fmt.Fprintf(o.out, "✓ %s (%s) is valid on %s\n", id.Email, id.Role, o.server.Alias)
	return nil
}
