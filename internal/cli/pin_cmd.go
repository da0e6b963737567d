package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/alexanderramin/expeditions/internal/contract"
	"github.com/alexanderramin/expeditions/internal/domain"
	"github.com/alexanderramin/expeditions/internal/importer"
)

// pinFlags binds the authored pin fields to command flags. Dates and the
// auto-progress override are kept as strings until apply.
type pinFlags struct {
	fields contract.PinFields
	due    string
	early  string
	auto   string
}

func (f *pinFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.fields.Type, "type", "", "Pin type: INTRO, OBJECTIVE or FINAL")
	fs.StringVar(&f.fields.Name, "name", "", "Pin name")
	fs.StringVar(&f.fields.Story, "story", "", "Narrative text")
	fs.Float64Var(&f.fields.PosX, "x", 0, "Map X position")
	fs.Float64Var(&f.fields.PosY, "y", 0, "Map Y position")
	fs.BoolVar(&f.fields.RequiresSubmission, "submission", false, "Students must submit work")
	fs.StringVar(&f.due, "due", "", "Due date (YYYY-MM-DD or RFC3339)")
	fs.StringVar(&f.early, "early", "", "Early submission deadline; enables the early bonus")
	fs.IntVar(&f.fields.RewardXP, "xp", 0, "XP reward")
	fs.IntVar(&f.fields.RewardGP, "gp", 0, "GP reward")
	fs.IntVar(&f.fields.EarlyBonusXP, "bonus-xp", 0, "Early bonus XP")
	fs.IntVar(&f.fields.EarlyBonusGP, "bonus-gp", 0, "Early bonus GP")
	fs.StringVar(&f.auto, "auto", "inherit", "Auto-progress override: true, false or inherit")
}

// apply writes the flags that were set onto dst.
func (f *pinFlags) apply(fs *pflag.FlagSet, dst *contract.PinFields) error {
	set := func(name string, fn func()) {
		if fs.Changed(name) {
			fn()
		}
	}
	set("type", func() { dst.Type = strings.ToUpper(f.fields.Type) })
	set("name", func() { dst.Name = f.fields.Name })
	set("story", func() { dst.Story = f.fields.Story })
	set("x", func() { dst.PosX = f.fields.PosX })
	set("y", func() { dst.PosY = f.fields.PosY })
	set("submission", func() { dst.RequiresSubmission = f.fields.RequiresSubmission })
	set("xp", func() { dst.RewardXP = f.fields.RewardXP })
	set("gp", func() { dst.RewardGP = f.fields.RewardGP })
	set("bonus-xp", func() { dst.EarlyBonusXP = f.fields.EarlyBonusXP })
	set("bonus-gp", func() { dst.EarlyBonusGP = f.fields.EarlyBonusGP })

	if fs.Changed("due") {
		due, err := parseDate("due", f.due)
		if err != nil {
			return err
		}
		dst.DueDate = due
	}
	if fs.Changed("early") {
		early, err := parseDate("early", f.early)
		if err != nil {
			return err
		}
		dst.EarlySubmissionDate = early
		dst.EarlySubmissionEnabled = early != nil
	}
	if fs.Changed("auto") {
		auto, err := parseOverride(f.auto)
		if err != nil {
			return err
		}
		dst.AutoProgress = auto
	}
	return nil
}

// parseDate reads an optional date flag; "" or "none" clears it.
func parseDate(flag, s string) (*time.Time, error) {
	if s == "" || s == "none" {
		return nil, nil
	}
	t, err := importer.ParseTime(s)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q (expected YYYY-MM-DD or RFC3339)", flag, s)
	}
	return &t, nil
}

func parseOverride(s string) (*bool, error) {
	if s == "" || s == "inherit" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("invalid --auto %q (expected true, false or inherit)", s)
	}
	return &b, nil
}

func newPinCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pin",
		Short: "Edit the pins of a draft expedition",
	}
	cmd.AddCommand(
		newPinAddCmd(app),
		newPinUpdateCmd(app),
		newPinRemoveCmd(app),
	)
	return cmd
}

func newPinAddCmd(app *App) *cobra.Command {
	var flags pinFlags

	cmd := &cobra.Command{
		Use:   "add EXPEDITION_ID",
		Short: "Add a pin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			teacher, err := app.actor()
			if err != nil {
				return err
			}
			req := contract.NewPinRequest{TeacherProfileID: teacher, ExpeditionID: args[0]}
			if err := flags.apply(cmd.Flags(), &req.PinFields); err != nil {
				return err
			}
			pin, err := app.Graph.CreatePin(cmd.Context(), req)
			if err != nil {
				return err
			}
			printf(cmd, "Added %s pin %s [%s]\n", pin.Type, pin.Name, pin.ID)
			return nil
		},
	}
	flags.register(cmd.Flags())
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newPinUpdateCmd(app *App) *cobra.Command {
	var flags pinFlags

	cmd := &cobra.Command{
		Use:   "update EXPEDITION_ID PIN_ID",
		Short: "Change the given fields of a pin",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			teacher, err := app.actor()
			if err != nil {
				return err
			}
			g, err := app.Graph.GetGraph(cmd.Context(), teacher, args[0])
			if err != nil {
				return err
			}
			var current *contract.PinView
			for i := range g.Pins {
				if g.Pins[i].ID == args[1] {
					current = &g.Pins[i]
				}
			}
			if current == nil {
				return &domain.NotFoundError{Entity: "pin", ID: args[1]}
			}

			req := contract.UpdatePinRequest{TeacherProfileID: teacher, PinID: current.ID, PinFields: current.PinFields}
			if err := flags.apply(cmd.Flags(), &req.PinFields); err != nil {
				return err
			}
			pin, err := app.Graph.UpdatePin(cmd.Context(), req)
			if err != nil {
				return err
			}
			printf(cmd, "Updated pin %s\n", pin.Name)
			return nil
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func newPinRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove PIN_ID",
		Short: "Delete a pin and its connections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			teacher, err := app.actor()
			if err != nil {
				return err
			}
			if err := app.Graph.DeletePin(cmd.Context(), teacher, args[0]); err != nil {
				return err
			}
			printf(cmd, "Removed pin %s\n", args[0])
			return nil
		},
	}
}
