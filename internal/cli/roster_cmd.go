package cli

import (
	"github.com/spf13/cobra"

	"github.com/alexanderramin/expeditions/internal/cli/formatter"
	"github.com/alexanderramin/expeditions/internal/contract"
)

// The roster stands in for the classroom system; these commands seed it.
func newRosterCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Manage classroom membership",
	}

	var role string
	add := &cobra.Command{
		Use:   "add CLASSROOM_ID PROFILE_ID",
		Short: "Add or change a classroom member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Roster.Add(cmd.Context(), args[0], args[1], role); err != nil {
				return err
			}
			printf(cmd, "%s is a %s of %s\n", args[1], role, args[0])
			return nil
		},
	}
	add.Flags().StringVar(&role, "role", "STUDENT", "TEACHER or STUDENT")

	list := &cobra.Command{
		Use:   "list CLASSROOM_ID",
		Short: "List classroom members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			members, err := app.Roster.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(members) == 0 {
				write(cmd, "No members.\n")
				return nil
			}
			write(cmd, formatter.FormatRoster(contract.NewRosterMemberViews(members)))
			return nil
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}
