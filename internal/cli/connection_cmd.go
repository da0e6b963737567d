package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/expeditions/internal/contract"
	"github.com/alexanderramin/expeditions/internal/importer"
)

// parseWhen maps --when to a connection outcome filter.
func parseWhen(when string) (*bool, error) {
	switch when {
	case "always", "pass", "fail":
		return importer.OnSuccessFor(when), nil
	default:
		return nil, fmt.Errorf("invalid --when %q (expected always, pass or fail)", when)
	}
}

func newConnectionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "connection",
		Aliases: []string{"conn"},
		Short:   "Edit the routes between pins of a draft expedition",
	}
	cmd.AddCommand(
		newConnectionAddCmd(app),
		newConnectionUpdateCmd(app),
		newConnectionRemoveCmd(app),
	)
	return cmd
}

func newConnectionAddCmd(app *App) *cobra.Command {
	var when string

	cmd := &cobra.Command{
		Use:   "add EXPEDITION_ID FROM_PIN_ID TO_PIN_ID",
		Short: "Connect two pins",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			teacher, err := app.actor()
			if err != nil {
				return err
			}
			onSuccess, err := parseWhen(when)
			if err != nil {
				return err
			}
			conn, err := app.Graph.CreateConnection(cmd.Context(), contract.NewConnectionRequest{
				TeacherProfileID: teacher,
				ExpeditionID:     args[0],
				FromPinID:        args[1],
				ToPinID:          args[2],
				OnSuccess:        onSuccess,
			})
			if err != nil {
				return err
			}
			printf(cmd, "Connected %s → %s (%s) [%s]\n", conn.FromPinID, conn.ToPinID, conn.ConditionLabel(), conn.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&when, "when", "always", "Outcome that follows this route: always, pass or fail")
	return cmd
}

func newConnectionUpdateCmd(app *App) *cobra.Command {
	var when string

	cmd := &cobra.Command{
		Use:   "update CONNECTION_ID",
		Short: "Change the outcome a route follows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			teacher, err := app.actor()
			if err != nil {
				return err
			}
			onSuccess, err := parseWhen(when)
			if err != nil {
				return err
			}
			conn, err := app.Graph.UpdateConnection(cmd.Context(), contract.UpdateConnectionRequest{
				TeacherProfileID: teacher,
				ConnectionID:     args[0],
				OnSuccess:        onSuccess,
			})
			if err != nil {
				return err
			}
			printf(cmd, "Connection %s now follows %s\n", conn.ID, conn.ConditionLabel())
			return nil
		},
	}
	cmd.Flags().StringVar(&when, "when", "", "Outcome that follows this route: always, pass or fail")
	_ = cmd.MarkFlagRequired("when")
	return cmd
}

func newConnectionRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove CONNECTION_ID",
		Short: "Delete a route",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			teacher, err := app.actor()
			if err != nil {
				return err
			}
			if err := app.Graph.DeleteConnection(cmd.Context(), teacher, args[0]); err != nil {
				return err
			}
			printf(cmd, "Removed connection %s\n", args[0])
			return nil
		},
	}
}
