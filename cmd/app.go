package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tara-vision/codekt/internal/config"
	"github.com/tara-vision/codekt/internal/flight"
	"github.com/tara-vision/codekt/internal/service"
	"github.com/tara-vision/codekt/internal/submission"
	"github.com/tara-vision/codekt/internal/ui"
)

// app carries what every command needs
type app struct {
	cfg         *config.Config
	configDir   string
	logger      *slog.Logger
	renderer    *ui.Renderer
	client      *service.Client
	coordinator *submission.Coordinator
	out         io.Writer
	errOut      io.Writer
}

func newApp(cfg *config.Config, configDir string, out, errOut io.Writer) (*app, error) {
	logger := cfg.NewLogger(errOut)

	client, err := service.New(cfg.Server)
	if err != nil {
		return nil, err
	}

	renderer := ui.NewRendererWithConfig(&ui.Config{
		EnableSpinner:  !cfg.NoSpinner,
		EnableMarkdown: !cfg.NoMarkdown,
		WordWrap:       terminalWidth(),
	})

	logger.Debug("configured", "server", client.Info().BaseURL, "role", string(cfg.Role))

	return &app{
		cfg:         cfg,
		configDir:   configDir,
		logger:      logger,
		renderer:    renderer,
		client:      client,
		coordinator: submission.NewCoordinator(client, logger),
		out:         out,
		errOut:      errOut,
	}, nil
}

func (a *app) spinner() *ui.Spinner {
	return ui.NewSpinner(a.errOut, a.renderer.Config().EnableSpinner)
}

func (a *app) historyFile() string {
	if a.configDir == "" {
		return ""
	}
	return filepath.Join(a.configDir, "history")
}

// submit sends a validated payload and returns the project id
func (a *app) submit(ctx context.Context, p submission.Payload) (string, error) {
	s := a.spinner()
	s.Start(fmt.Sprintf("Analyzing %s as %s...", describePayload(p), p.Role.DisplayName()))
	id, err := a.coordinator.Submit(ctx, p)
	s.Stop()
	return id, err
}

// packDirectory zips dir into a temporary archive named after it. The
// returned cleanup removes the archive.
func (a *app) packDirectory(dir string) (string, func(), error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", submission.ErrInvalidInput, err)
	}

	tmp, err := os.MkdirTemp("", "codekt-")
	if err != nil {
		return "", nil, fmt.Errorf("create temp dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(tmp) }

	dst := filepath.Join(tmp, filepath.Base(abs)+submission.ArchiveExtension)
	n, err := submission.PackDirectory(abs, dst)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	a.logger.Debug("packed directory", "dir", abs, "files", n)
	return dst, cleanup, nil
}

func describePayload(p submission.Payload) string {
	if p.Method == submission.MethodRepository {
		return fmt.Sprintf("%s (%s)", p.RepoURL, p.Branch)
	}
	return filepath.Base(p.ArchivePath)
}

// userMessage turns an error into the text shown to the user
func userMessage(err error) string {
	var rejected *service.RejectedError
	switch {
	case errors.Is(err, flight.ErrBusy):
		return "a request is already in progress"
	case errors.As(err, &rejected):
		return rejected.Detail
	case errors.Is(err, service.ErrUnreachable):
		return service.UnreachableMessage
	default:
		return err.Error()
	}
}

func (a *app) printError(err error) {
	fmt.Fprintln(a.errOut, a.renderer.ErrorMessage(errors.New(userMessage(err))))
}
