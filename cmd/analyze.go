package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tara-vision/codekt/internal/config"
	"github.com/tara-vision/codekt/internal/submission"
)

// analyzeFlags is one submission attempt's input. role and branch start
// from the config; branchSet means the branch was chosen explicitly.
type analyzeFlags struct {
	archive   string
	dir       string
	repo      string
	noOpen    bool
	role      submission.Role
	branch    string
	branchSet bool
}

func newAnalyzeCmd(opts *options) *cobra.Command {
	var f analyzeFlags

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Submit a codebase for analysis",
		Long: `Submit a ZIP archive, a local directory or a git repository for
analysis, then open the project view.

--repo accepts a repository URL or a local checkout; for a checkout the
origin URL and current branch are used.`,
		Example: `  codekt analyze --archive shop.zip --role backend
  codekt analyze --dir ./shop
  codekt analyze --repo https://github.com/acme/shop --branch develop
  codekt analyze --repo .`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := opts.app
			f.role, f.branch = a.cfg.Role, a.cfg.Branch
			f.branchSet = cmd.Flags().Changed("branch")
			p, cleanup, err := a.buildPayload(f)
			if err != nil {
				return err
			}
			defer cleanup()

			id, err := a.submit(cmd.Context(), p)
			if err != nil {
				a.printError(err)
				return ErrReported
			}
			fmt.Fprintln(a.out, a.renderer.Submitted(id))

			if f.noOpen {
				fmt.Fprintln(a.out, id)
				return nil
			}
			return a.runView(cmd.Context(), id)
		},
	}

	cmd.Flags().StringVar(&f.archive, "archive", "", "ZIP archive to upload")
	cmd.Flags().StringVar(&f.dir, "dir", "", "directory to pack and upload")
	cmd.Flags().StringVar(&f.repo, "repo", "", "git repository URL or local checkout")
	cmd.Flags().String("branch", "", "branch to analyze (default \""+submission.DefaultBranch+"\")")
	cmd.Flags().String("role", "", "role the documentation is written for: fullstack, frontend, backend, devops")
	cmd.Flags().BoolVar(&f.noOpen, "no-open", false, "print the project id instead of opening the project view")
	cmd.MarkFlagsMutuallyExclusive("archive", "dir", "repo")
	cmd.MarkFlagsOneRequired("archive", "dir", "repo")

	opts.v.BindPFlag(config.KeyBranch, cmd.Flags().Lookup("branch"))
	opts.v.BindPFlag(config.KeyRole, cmd.Flags().Lookup("role"))
	return cmd
}

// buildPayload validates the flags into a payload. The cleanup func is
// never nil.
func (a *app) buildPayload(f analyzeFlags) (submission.Payload, func(), error) {
	noop := func() {}
	role := f.role

	switch {
	case f.archive != "":
		p, err := submission.BuildArchive(f.archive, role)
		return p, noop, err

	case f.dir != "":
		archive, cleanup, err := a.packDirectory(f.dir)
		if err != nil {
			return submission.Payload{}, noop, err
		}
		p, err := submission.BuildArchive(archive, role)
		if err != nil {
			cleanup()
			return submission.Payload{}, noop, err
		}
		return p, cleanup, nil

	default:
		locator, branch := f.repo, f.branch
		if info, err := os.Stat(locator); err == nil && info.IsDir() {
			local, err := submission.ResolveLocalRepository(locator)
			if err != nil {
				return submission.Payload{}, noop, err
			}
			locator = local.RemoteURL
			if !f.branchSet && local.Branch != "" {
				branch = local.Branch
			}
		}
		p, err := submission.BuildRepository(locator, branch, role)
		return p, noop, err
	}
}
