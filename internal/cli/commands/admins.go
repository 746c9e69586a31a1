package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/auburnhacks/sponsor-portal/internal/auth"
	"github.com/auburnhacks/sponsor-portal/internal/cli/client"
)

type adminInput struct {
	Name     string
	Email    string
	Password string
	ACL      map[string]bool
}

// NewAdminsCmd creates the admins command group
func NewAdminsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admins",
		Short: "Manage admin accounts (admin only)",
	}

	in := adminInput{ACL: map[string]bool{}}
	var aclParticipants, aclResumes, aclAdmin bool

	create := &cobra.Command{
		Use:   "create",
		Short: "Create an admin account",
		Long: `Create an admin account.

Every admin can read and update. Further capabilities are granted with
the --acl-* flags.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.ACL[auth.CapParticipants] = aclParticipants
			in.ACL[auth.CapResumes] = aclResumes
			in.ACL[auth.CapAdmin] = aclAdmin
			return runAdminCreate(commandContext(cmd), in, WithServerAlias(serverAliasFlag(cmd)))
		},
	}

	create.Flags().StringVar(&in.Name, "name", "", "Admin's full name")
	create.Flags().StringVar(&in.Email, "email", "", "Admin's email address")
	create.Flags().StringVar(&in.Password, "password", "", "Initial password (will prompt if not provided)")
	create.Flags().BoolVar(&aclParticipants, "acl-participants", false, "Grant access to the participant list")
	create.Flags().BoolVar(&aclResumes, "acl-resumes", false, "Grant access to participant resumes")
	create.Flags().BoolVar(&aclAdmin, "acl-admin", false, "Grant admin management")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <admin-id>",
		Short: "Delete an admin account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminDelete(commandContext(cmd), args[0], WithServerAlias(serverAliasFlag(cmd)))
		},
	})

	return cmd
}

func runAdminCreate(ctx context.Context, in adminInput, opts ...Option) error {
	o := newOptions(opts)

	m, err := o.manager()
	if err != nil {
		return err
	}

	id, token, err := authenticated(m)
	if err != nil {
		return err
	}
	if err := requireAdmin(id); err != nil {
		return err
	}

	if in.Password == "" {
		in.Password, err = o.readPassword("Initial password: ")
		if err != nil {
			return fmt.Errorf("%w (use --password flag)", err)
		}
	}

	flags := map[string]bool{}
	for _, c := range auth.ParseACL(auth.DefaultAdminACL) {
		flags[c] = true
	}
	for c, on := range in.ACL {
		flags[c] = flags[c] || on
	}

	a := client.NewAdmin{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		ACL:      auth.ACLFromFlags(flags),
	}
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("invalid admin: %w", err)
	}

	created, err := o.api.CreateAdmin(ctx, token, a)
	if err != nil {
		return describeError("failed to create admin", err)
	}

	fmt.Fprintf(o.out, "✓ Created admin %s (%s)\n", created.Email, created.ID)
	fmt.Fprintf(o.out, "  ACL: %s\n", a.ACL)
	return nil
}

func runAdminDelete(ctx context.Context, adminID string, opts ...Option) error {
	o := newOptions(opts)

	m, err := o.manager()
	if err != nil {
		return err
	}

	id, token, err := authenticated(m)
	if err != nil {
		return err
	}
	if err := requireAdmin(id); err != nil {
		return err
	}
	if adminID == id.ID {
		return fmt.Errorf("refusing to delete the logged in account")
	}

	if err := o.api.DeleteAdmin(ctx, token, adminID); err != nil {
		return describeError("failed to delete admin", err)
	}

	fmt.Fprintf(o.out, "✓ Deleted admin %s\n", adminID)
	return nil
}
