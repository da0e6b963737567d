package cli

import (
	"github.com/spf13/cobra"

	"github.com/alexanderramin/expeditions/internal/cli/formatter"
)

func newRewardsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rewards",
		Short: "Inspect and redeliver reward grants",
	}

	var student string
	list := &cobra.Command{
		Use:   "list",
		Short: "List a student's reward grants",
		RunE: func(cmd *cobra.Command, args []string) error {
			if student == "" {
				s, err := app.actor()
				if err != nil {
					return err
				}
				student = s
			}
			grants, err := app.Rewards.ListGrants(cmd.Context(), student)
			if err != nil {
				return err
			}
			if len(grants) == 0 {
				write(cmd, "No rewards yet.\n")
				return nil
			}
			write(cmd, formatter.FormatRewards(grants))
			return nil
		},
	}
	list.Flags().StringVar(&student, "student", "", "Student profile (defaults to --as)")

	var limit int
	retry := &cobra.Command{
		Use:   "retry",
		Short: "Deliver grants the rewards ledger has not accepted yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("limit") && app.RetryLimit > 0 {
				limit = app.RetryLimit
			}
			report, err := app.Rewards.RetryPending(cmd.Context(), limit)
			if err != nil {
				return err
			}
			write(cmd, formatter.FormatRetryReport(report))
			return nil
		},
	}
	retry.Flags().IntVar(&limit, "limit", 100, "Maximum grants to retry")

	cmd.AddCommand(list, retry)
	return cmd
}
