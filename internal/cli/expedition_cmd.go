package cli

import (
	"github.com/spf13/cobra"

	"github.com/alexanderramin/expeditions/internal/cli/formatter"
	"github.com/alexanderramin/expeditions/internal/contract"
)

func newExpeditionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "expedition",
		Aliases: []string{"exp"},
		Short:   "Author and manage expeditions",
	}
	cmd.AddCommand(
		newExpeditionCreateCmd(app),
		newExpeditionListCmd(app),
		newExpeditionShowCmd(app),
		newExpeditionUpdateCmd(app),
		newExpeditionPublishCmd(app),
		newExpeditionArchiveCmd(app),
		newExpeditionImportCmd(app),
	)
	return cmd
}

func newExpeditionCreateCmd(app *App) *cobra.Command {
	var req contract.NewExpeditionRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft expedition",
		RunE: func(cmd *cobra.Command, args []string) error {
			teacher, err := app.actor()
			if err != nil {
				return err
			}
			req.TeacherProfileID = teacher
			exp, err := app.Graph.CreateExpedition(cmd.Context(), req)
			if err != nil {
				return err
			}
			printf(cmd, "Created expedition %s [%s]\n", exp.Name, exp.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.ClassroomID, "classroom", "", "Classroom ID")
	cmd.Flags().StringVar(&req.Name, "name", "", "Expedition name")
	cmd.Flags().StringVar(&req.MapImageURL, "map", "", "Map image URL")
	cmd.Flags().BoolVar(&req.AutoProgress, "auto", false, "Resolve submissions without teacher review")
	_ = cmd.MarkFlagRequired("classroom")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newExpeditionListCmd(app *App) *cobra.Command {
	var classroom string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a classroom's expeditions",
		RunE: func(cmd *cobra.Command, args []string) error {
			viewer, err := app.actor()
			if err != nil {
				return err
			}
			exps, err := app.Graph.ListExpeditions(cmd.Context(), viewer, classroom)
			if err != nil {
				return err
			}
			if len(exps) == 0 {
				write(cmd, "No expeditions found.\n")
				return nil
			}
			views := make([]contract.ExpeditionView, 0, len(exps))
			for _, e := range exps {
				views = append(views, contract.NewExpeditionView(e))
			}
			write(cmd, formatter.FormatExpeditionList(views))
			return nil
		},
	}
	cmd.Flags().StringVar(&classroom, "classroom", "", "Classroom ID")
	_ = cmd.MarkFlagRequired("classroom")
	return cmd
}

func newExpeditionShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show EXPEDITION_ID",
		Short: "Show an expedition's pins and routes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			viewer, err := app.actor()
			if err != nil {
				return err
			}
			g, err := app.Graph.GetGraph(cmd.Context(), viewer, args[0])
			if err != nil {
				return err
			}
			write(cmd, formatter.FormatGraph(g, app.now()))
			return nil
		},
	}
}

func newExpeditionUpdateCmd(app *App) *cobra.Command {
	var name, mapURL string
	var auto bool

	cmd := &cobra.Command{
		Use:   "update EXPEDITION_ID",
		Short: "Change an expedition's name, map or review mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			teacher, err := app.actor()
			if err != nil {
				return err
			}
			req := contract.UpdateExpeditionRequest{TeacherProfileID: teacher, ExpeditionID: args[0]}
			if cmd.Flags().Changed("name") {
				req.Name = &name
			}
			if cmd.Flags().Changed("map") {
				req.MapImageURL = &mapURL
			}
			if cmd.Flags().Changed("auto") {
				req.AutoProgress = &auto
			}
			exp, err := app.Graph.UpdateExpedition(cmd.Context(), req)
			if err != nil {
				return err
			}
			write(cmd, formatter.FormatExpedition(contract.NewExpeditionView(exp)))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&mapURL, "map", "", "New map image URL")
	cmd.Flags().BoolVar(&auto, "auto", false, "Resolve submissions without teacher review")
	return cmd
}

func newExpeditionPublishCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "publish EXPEDITION_ID",
		Short: "Publish a draft; its graph is frozen afterwards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			teacher, err := app.actor()
			if err != nil {
				return err
			}
			exp, err := app.Graph.Publish(cmd.Context(), teacher, args[0])
			if err != nil {
				return err
			}
			printf(cmd, "Published %s\n", exp.Name)
			return nil
		},
	}
}

func newExpeditionArchiveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "archive EXPEDITION_ID",
		Short: "Archive an expedition; student progress stays readable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			teacher, err := app.actor()
			if err != nil {
				return err
			}
			exp, err := app.Graph.Archive(cmd.Context(), teacher, args[0])
			if err != nil {
				return err
			}
			printf(cmd, "Archived %s\n", exp.Name)
			return nil
		},
	}
}

func newExpeditionImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Create an expedition from a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			teacher, err := app.actor()
			if err != nil {
				return err
			}
			res, err := app.Import.ImportExpedition(cmd.Context(), teacher, args[0])
			if err != nil {
				return err
			}
			write(cmd, formatter.FormatImportResult(res))
			return nil
		},
	}
}
