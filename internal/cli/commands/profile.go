package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/auburnhacks/sponsor-portal/internal/cli/client"
	"github.com/auburnhacks/sponsor-portal/internal/session"
)

var errPasswordMismatch = errors.New("passwords do not match")

type profileInput struct {
	Name           string
	Password       string
	ChangePassword bool
}

// NewProfileCmd creates the profile command group
func NewProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage your own account",
	}

	var in profileInput
	update := &cobra.Command{
		Use:   "update",
		Short: "Change your name or password",
		Long: `Change your name or password. The email address cannot be changed.

A new password is always asked for a second time to confirm it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.ChangePassword = in.ChangePassword || cmd.Flags().Changed("password")
			return runProfileUpdate(commandContext(cmd), in, WithServerAlias(serverAliasFlag(cmd)))
		},
	}
	update.Flags().StringVar(&in.Name, "name", "", "New display name")
	update.Flags().StringVar(&in.Password, "password", "", "New password (prompted if --change-password is used)")
	update.Flags().BoolVar(&in.ChangePassword, "change-password", false, "Prompt for a new password")
	cmd.AddCommand(update)

	return cmd
}

func runProfileUpdate(ctx context.Context, in profileInput, opts ...Option) error {
	if in.Name == "" && !in.ChangePassword {
		return fmt.Errorf("nothing to update (use --name, --password or --change-password)")
	}

	o := newOptions(opts)

	m, err := o.manager()
	if err != nil {
		return err
	}

	id, token, err := authenticated(m)
	if err != nil {
		return err
	}

	update := client.ProfileUpdate{Name: in.Name}
	if in.ChangePassword {
		password := in.Password
		if password == "" {
			if password, err = o.readPassword("New password: "); err != nil {
				return err
			}
		}
		confirm, err := o.readPassword("Confirm new password: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return errPasswordMismatch
		}
		update.Password = password
	}
	if err := validate.Struct(update); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}

	var updated *session.Identity
	if id.Role == session.RoleAdmin {
		updated, err = o.api.UpdateAdmin(ctx, token, id.ID, update)
	} else {
		updated, err = o.api.UpdateSponsor(ctx, token, id.ID, update)
	}
	if err != nil {
		return describeError("failed to update profile", err)
	}

	fmt.Fprintf(o.out, "✓ Profile updated for %s\n", updated.Email)
	if update.Password != "" {
		fmt.Fprintln(o.out, "  Password changed. The current session stays valid until it expires.")
	}
	return nil
}
