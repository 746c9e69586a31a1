package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type companyInput struct {
	Name string `validate:"required,max=120"`
	Logo string `validate:"omitempty,url"`
}

// NewCompaniesCmd creates the companies command group
func NewCompaniesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "companies",
		Short: "Manage sponsoring companies",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List companies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompaniesList(commandContext(cmd), WithServerAlias(serverAliasFlag(cmd)))
		},
	})

	var in companyInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a company (admin only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompanyCreate(commandContext(cmd), in, WithServerAlias(serverAliasFlag(cmd)))
		},
	}
	create.Flags().StringVar(&in.Name, "name", "", "Company name")
	create.Flags().StringVar(&in.Logo, "logo", "", "Logo URL")
	cmd.AddCommand(create)

	return cmd
}

func runCompaniesList(ctx context.Context, opts ...Option) error {
	o := newOptions(opts)

	m, err := o.manager()
	if err != nil {
		return err
	}

	_, token, err := authenticated(m)
	if err != nil {
		return err
	}

	companies, err := o.api.ListCompanies(ctx, token)
	if err != nil {
		return describeError("failed to list companies", err)
	}

	if len(companies) == 0 {
		fmt.Fprintln(o.out, "No companies found.")
		fmt.Fprintln(o.out, "\nCreate one with: sponsor companies create --name <name>")
		return nil
	}

	w := tabwriter.NewWriter(o.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tLOGO")
	fmt.Fprintln(w, "──\t────\t────")
	for _, c := range companies {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, c.Name, c.Logo)
	}
	w.Flush()

	return nil
}

func runCompanyCreate(ctx context.Context, in companyInput, opts ...Option) error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("invalid company: %w", err)
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
	if err := requireAdmin(id); err != nil {
		return err
	}

	company, err := o.api.CreateCompany(ctx, token, in.Name, in.Logo)
	if err != nil {
		return describeError("failed to create company", err)
	}

	fmt.Fprintf(o.out, "✓ Created company %s (%s)\n", company.Name, company.ID)
	return nil
}
