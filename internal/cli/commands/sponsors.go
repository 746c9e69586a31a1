package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/auburnhacks/sponsor-portal/internal/auth"
	"github.com/auburnhacks/sponsor-portal/internal/cli/client"
)

type sponsorInput struct {
	Name     string
	Email    string
	Password string
	Company  string
	ACL      map[string]bool
}

// NewSponsorsCmd creates the sponsors command group
func NewSponsorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sponsors",
		Short: "Manage sponsor accounts (admin only)",
	}

	in := sponsorInput{ACL: map[string]bool{}}
	var aclRead, aclUpdate, aclParticipants, aclResumes bool

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a sponsor account",
		Long: `Create a sponsor account for a company representative.

Capabilities are granted with the --acl-* flags. Without any the account
gets read access only.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.ACL[auth.CapRead] = aclRead
			in.ACL[auth.CapUpdate] = aclUpdate
			in.ACL[auth.CapParticipants] = aclParticipants
			in.ACL[auth.CapResumes] = aclResumes
			return runSponsorCreate(commandContext(cmd), in, WithServerAlias(serverAliasFlag(cmd)))
		},
	}

	create.Flags().StringVar(&in.Name, "name", "", "Sponsor's full name")
	create.Flags().StringVar(&in.Email, "email", "", "Sponsor's email address")
	create.Flags().StringVar(&in.Password, "password", "", "Initial password (will prompt if not provided)")
	create.Flags().StringVar(&in.Company, "company", "", "Company id (see 'sponsor companies ls')")
	create.Flags().BoolVar(&aclRead, "acl-read", false, "Grant read access")
	create.Flags().BoolVar(&aclUpdate, "acl-update", false, "Grant update access")
	create.Flags().BoolVar(&aclParticipants, "acl-participants", false, "Grant access to the participant list")
	create.Flags().BoolVar(&aclResumes, "acl-resumes", false, "Grant access to participant resumes")
	cmd.AddCommand(create)

	return cmd
}

func runSponsorCreate(ctx context.Context, in sponsorInput, opts ...Option) error {
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

	acl := auth.ACLFromFlags(in.ACL)
	if acl == "" {
		acl = auth.DefaultSponsorACL
	}

	sp := client.NewSponsor{
		Name:      in.Name,
		Email:     in.Email,
		Password:  in.Password,
		ACL:       acl,
		CompanyID: in.Company,
	}
	if err := validate.Struct(sp); err != nil {
		return fmt.Errorf("invalid sponsor: %w", err)
	}

	created, err := o.api.CreateSponsor(ctx, token, sp)
	if err != nil {
		return describeError("failed to create sponsor", err)
	}

	fmt.Fprintf(o.out, "✓ Created sponsor %s (%s)\n", created.Email, created.ID)
	fmt.Fprintf(o.out, "  ACL: %s\n", acl)
	if created.Company != nil {
		fmt.Fprintf(o.out, "  Company: %s\n", created.Company.Name)
	}
	return nil
}
