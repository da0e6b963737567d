package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/expeditions/internal/cli/formatter"
	"github.com/alexanderramin/expeditions/internal/contract"
)

func newReviewCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review student submissions",
	}
	cmd.AddCommand(
		newReviewPendingCmd(app),
		newReviewDecideCmd(app),
		newReviewSubmissionsCmd(app),
	)
	return cmd
}

func newReviewPendingCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pending EXPEDITION_ID",
		Short: "List submissions waiting for a decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			teacher, err := app.actor()
			if err != nil {
				return err
			}
			reviews, err := app.Progression.ListPendingReviews(cmd.Context(), teacher, args[0])
			if err != nil {
				return err
			}
			if len(reviews) == 0 {
				write(cmd, "Nothing to review.\n")
				return nil
			}
			write(cmd, formatter.FormatPendingReviews(reviews, app.now()))
			return nil
		},
	}
}

func newReviewDecideCmd(app *App) *cobra.Command {
	var pass, fail bool

	cmd := &cobra.Command{
		Use:   "decide PIN_ID STUDENT_ID",
		Short: "Pass or fail a student's submission",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pass == fail {
				return errors.New("exactly one of --pass or --fail is required")
			}
			teacher, err := app.actor()
			if err != nil {
				return err
			}
			res, err := app.Progression.SetTeacherDecision(cmd.Context(), contract.DecisionRequest{
				TeacherProfileID: teacher,
				PinID:            args[0],
				StudentProfileID: args[1],
				Passed:           &pass,
			})
			if err != nil {
				return err
			}
			write(cmd, formatter.FormatTransition(res, pinNames(cmd.Context(), app, teacher, res.ExpeditionID)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&pass, "pass", false, "Pass the submission")
	cmd.Flags().BoolVar(&fail, "fail", false, "Fail the submission")
	return cmd
}

func newReviewSubmissionsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "submissions PIN_ID STUDENT_ID",
		Short: "Show a student's submissions for a pin",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			viewer, err := app.actor()
			if err != nil {
				return err
			}
			subs, err := app.Progression.ListSubmissions(cmd.Context(), viewer, args[0], args[1])
			if err != nil {
				return err
			}
			if len(subs) == 0 {
				write(cmd, "No submissions.\n")
				return nil
			}
			write(cmd, formatter.FormatSubmissions(subs, app.now()))
			return nil
		},
	}
}
