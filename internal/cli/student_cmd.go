package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/expeditions/internal/cli/formatter"
	"github.com/alexanderramin/expeditions/internal/contract"
)

func newStateCmd(app *App) *cobra.Command {
	var student string

	cmd := &cobra.Command{
		Use:   "state EXPEDITION_ID",
		Short: "Show a student's progress through an expedition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			viewer, err := app.actor()
			if err != nil {
				return err
			}
			if student == "" {
				student = viewer
			}
			st, err := app.Progression.GetExpeditionState(cmd.Context(), viewer, args[0], student)
			if err != nil {
				return err
			}
			write(cmd, formatter.FormatState(st, app.now()))
			return nil
		},
	}
	cmd.Flags().StringVar(&student, "student", "", "Student profile (teachers only; defaults to --as)")
	return cmd
}

func newAttemptCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "attempt PIN_ID",
		Short: "Open or complete an unlocked pin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			student, err := app.actor()
			if err != nil {
				return err
			}
			res, err := app.Progression.AttemptPin(cmd.Context(), contract.AttemptRequest{StudentProfileID: student, PinID: args[0]})
			if err != nil {
				return err
			}
			write(cmd, formatter.FormatTransition(res, pinNames(cmd.Context(), app, student, res.ExpeditionID)))
			return nil
		},
	}
}

func newSubmitCmd(app *App) *cobra.Command {
	var files []string
	var comment string

	cmd := &cobra.Command{
		Use:   "submit PIN_ID",
		Short: "Submit work for a pin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			student, err := app.actor()
			if err != nil {
				return err
			}
			res, err := app.Progression.Submit(cmd.Context(), contract.SubmitRequest{
				StudentProfileID: student,
				PinID:            args[0],
				Files:            files,
				Comment:          comment,
			})
			if err != nil {
				return err
			}
			write(cmd, formatter.FormatTransition(res, pinNames(cmd.Context(), app, student, res.ExpeditionID)))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&files, "file", nil, "Uploaded file URL (repeatable)")
	cmd.Flags().StringVar(&comment, "comment", "", "Note for the teacher")
	return cmd
}

// pinNames looks up display names for the expedition's pins. It is best
// effort; raw IDs are shown when the lookup fails.
func pinNames(ctx context.Context, app *App, viewer, expeditionID string) map[string]string {
	g, err := app.Graph.GetGraph(ctx, viewer, expeditionID)
	if err != nil {
		return nil
	}
	return formatter.PinNames(g)
}
