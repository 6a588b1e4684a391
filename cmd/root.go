package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tara-vision/codekt/internal/config"
	"github.com/tara-vision/codekt/internal/service"
)

var Version = "dev"

// ErrReported is returned when the failure was already shown to the user
var ErrReported = errors.New("error already reported")

// options holds the persistent flags and the application built from them
type options struct {
	cfgFile string
	v       *viper.Viper
	app     *app
}

// NewRootCmd builds the codekt command tree
func NewRootCmd() *cobra.Command {
	opts := &options{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:     "codekt",
		Version: Version,
		Short:   "codekt - codebase knowledge transfer from the terminal",
		Long: `codekt submits a codebase to an analysis service and lets you read
the generated documentation, follow the knowledge-transfer plan and ask
questions about the code.

Run without arguments for the guided flow.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.app.runInteractive(cmd.Context())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/.codekt/config.yaml)")
	flags.String("server", "", "analysis service URL (default \""+service.DefaultBaseURL+"\")")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.Bool("no-spinner", false, "disable spinner animations")
	flags.Bool("no-markdown", false, "print documentation and answers as plain text")

	opts.v.BindPFlag(config.KeyServer, flags.Lookup("server"))
	opts.v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	opts.v.BindPFlag(config.KeyNoSpinner, flags.Lookup("no-spinner"))
	opts.v.BindPFlag(config.KeyNoMarkdown, flags.Lookup("no-markdown"))

	rootCmd.AddCommand(
		newAnalyzeCmd(opts),
		newViewCmd(opts),
		newDocsCmd(opts),
		newPlanCmd(opts),
		newProjectsCmd(opts),
		newProgressCmd(opts),
	)
	return rootCmd
}

// Execute runs the root command until ctx is cancelled
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func (o *options) init(cmd *cobra.Command) error {
	dir := ""
	if o.cfgFile == "" {
		d, err := config.Dir()
		if err != nil {
			return err
		}
		dir = d
	}

	cfg, err := config.Load(o.v, o.cfgFile, dir)
	if err != nil {
		return err
	}

	a, err := newApp(cfg, dir, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	o.app = a
	return nil
}
