package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/expeditions/internal/service"
)

// App holds the services CLI commands run against.
type App struct {
	Graph       service.GraphService
	Progression service.ProgressionService
	Rewards     service.RewardService
	Roster      service.RosterService
	Import      service.ImportService

	// Profile is the default acting profile, overridden by --as.
	Profile string
	// RetryLimit bounds "rewards retry" when --limit is not given.
	RetryLimit int

	// Serve runs the HTTP API until ctx is cancelled. Nil disables "serve".
	Serve func(ctx context.Context) error
	// IsInteractive reports whether stdin is a terminal; "play" needs one.
	IsInteractive func() bool
	Now           func() time.Time
}

var errNoProfile = errors.New("no acting profile: pass --as or set EXPEDITIONS_PROFILE")

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now().UTC()
}

// NewRootCmd creates the top-level "expeditions" command and registers all
// subcommands against app.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "expeditions",
		Short:         "Classroom expedition maps: author, play and review",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	// --config is read before wiring; it is declared here for help output.
	root.PersistentFlags().String("config", "", "Config file (yaml, toml or json)")
	root.PersistentFlags().StringVar(&app.Profile, "as", app.Profile, "Acting profile ID")

	root.AddCommand(
		newExpeditionCmd(app),
		newPinCmd(app),
		newConnectionCmd(app),
		newRosterCmd(app),
		newStateCmd(app),
		newAttemptCmd(app),
		newSubmitCmd(app),
		newPlayCmd(app),
		newReviewCmd(app),
		newRewardsCmd(app),
		newServeCmd(app),
	)
	return root
}

// actor returns the acting profile or errNoProfile.
func (a *App) actor() (string, error) {
	if a.Profile == "" {
		return "", errNoProfile
	}
	return a.Profile, nil
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

func write(cmd *cobra.Command, s string) {
	io.WriteString(cmd.OutOrStdout(), s)
}
