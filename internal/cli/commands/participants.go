package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/auburnhacks/sponsor-portal/internal/auth"
	"github.com/auburnhacks/sponsor-portal/internal/session"
)

// NewParticipantsCmd creates the participants command group
func NewParticipantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "participants",
		Short: "Browse hackathon participants",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List participants",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParticipantsList(commandContext(cmd), WithServerAlias(serverAliasFlag(cmd)))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Re-import participants from the registration system now (admin only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParticipantsSync(commandContext(cmd), WithServerAlias(serverAliasFlag(cmd)))
		},
	})

	return cmd
}

func runParticipantsSync(ctx context.Context, opts ...Option) error {
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

	n, err := o.api.SyncParticipants(ctx, token)
	if err != nil {
		return describeError("failed to sync participants", err)
	}

	fmt.Fprintf(o.out, "✓ Synced %d participant(s)\n", n)
	return nil
}

func runParticipantsList(ctx context.Context, opts ...Option) error {
	o := newOptions(opts)

	m, err := o.manager()
	if err != nil {
		return err
	}

	id, token, err := authenticated(m)
	if err != nil {
		return err
	}
	if err := requireCapability(id, auth.CapParticipants); err != nil {
		return err
	}

	participants, err := o.api.ListParticipants(ctx, token)
	if err != nil {
		return describeError("failed to list participants", err)
	}

	if len(participants) == 0 {
		fmt.Fprintln(o.out, "No participants found.")
		return nil
	}

	showResumes := id.Role == session.RoleAdmin || id.Can(auth.CapResumes)

	w := tabwriter.NewWriter(o.out, 0, 0, 2, ' ', 0)
	if showResumes {
		fmt.Fprintln(w, "NAME\tEMAIL\tUNIVERSITY\tMAJOR\tGRAD\tRESUME")
		fmt.Fprintln(w, "────\t─────\t──────────\t─────\t────\t──────")
	} else {
		fmt.Fprintln(w, "NAME\tEMAIL\tUNIVERSITY\tMAJOR\tGRAD")
		fmt.Fprintln(w, "────\t─────\t──────────\t─────\t────")
	}

	for _, p := range participants {
		grad := "-"
		if p.GradYear > 0 {
			grad = fmt.Sprintf("%d", p.GradYear)
		}
		if showResumes {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", p.Name, p.Email, p.University, p.Major, grad, p.Resume)
		} else {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.Name, p.Email, p.University, p.Major, grad)
		}
	}

	w.Flush()

	fmt.Fprintf(o.out, "\n%d participant(s)\n", len(participants))
	return nil
}
