package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tara-vision/codekt/internal/service"
)

func newDocsCmd(opts *options) *cobra.Command {
	var files bool

	cmd := &cobra.Command{
		Use:   "docs <project-id>",
		Short: "Print the documentation of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := opts.app
			s := a.spinner()
			s.Start("Fetching documentation...")
			doc, err := a.client.Documentation(cmd.Context(), args[0])
			s.Stop()
			if err != nil {
				a.printError(err)
				return ErrReported
			}

			fmt.Fprint(a.out, a.renderer.Documentation(doc))
			if files {
				fmt.Fprintln(a.out)
				fmt.Fprint(a.out, a.renderer.Files(doc.Files))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&files, "files", false, "also print per-file metrics")
	return cmd
}

func newPlanCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <project-id>",
		Short: "Print the KT plan of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := opts.app
			s := a.spinner()
			s.Start("Fetching KT plan...")
			plan, err := a.client.KTPlan(cmd.Context(), args[0])
			s.Stop()
			if err != nil {
				a.printError(err)
				return ErrReported
			}
			fmt.Fprint(a.out, a.renderer.Plan(plan))
			return nil
		},
	}
}

func newProjectsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List analyzed projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := opts.app
			projects, err := a.client.Projects(cmd.Context())
			if err != nil {
				a.printError(err)
				return ErrReported
			}
			fmt.Fprint(a.out, a.renderer.Projects(projects))
			return nil
		},
	}
}

func newProgressCmd(opts *options) *cobra.Command {
	var update service.ProgressUpdate

	cmd := &cobra.Command{
		Use:   "progress <project-id>",
		Short: "Record progress on a KT plan day",
		Example: `  codekt progress abc123 --day 2 --done --notes "read the router"
  codekt progress abc123 --day 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := opts.app
			if update.Day < 1 {
				return fmt.Errorf("--day must be a positive number")
			}
			if err := a.client.UpdateProgress(cmd.Context(), args[0], update); err != nil {
				a.printError(err)
				return ErrReported
			}

			state := "not done"
			if update.Completed {
				state = "done"
			}
			fmt.Fprintln(a.out, a.renderer.SuccessMessage(fmt.Sprintf("Day %d marked as %s", update.Day, state)))
			return nil
		},
	}
	cmd.Flags().IntVar(&update.Day, "day", 0, "KT plan day")
	cmd.Flags().BoolVar(&update.Completed, "done", false, "mark the day as completed")
	cmd.Flags().StringVar(&update.Notes, "notes", "", "notes for the day")
	cmd.MarkFlagRequired("day")
	return cmd
}
