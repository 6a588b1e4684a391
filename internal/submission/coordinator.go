package submission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tara-vision/codekt/internal/flight"
	"github.com/tara-vision/codekt/internal/service"
)

// Submitter sends submissions to the analysis service
type Submitter interface {
	SubmitArchive(ctx context.Context, filename string, archive io.Reader, role string) (*service.AnalyzeResponse, error)
	SubmitRepository(ctx context.Context, body service.RepositoryRequest) (*service.AnalyzeResponse, error)
}

// Coordinator sends one submission at a time. A Submit call made while
// another is in flight fails with flight.ErrBusy and sends nothing.
type Coordinator struct {
	submitter Submitter
	gate      flight.Gate
	logger    *slog.Logger
}

// NewCoordinator creates a coordinator backed by submitter
func NewCoordinator(submitter Submitter, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{submitter: submitter, logger: logger}
}

// Busy reports whether a submission is in flight
func (c *Coordinator) Busy() bool {
	return c.gate.Busy()
}

// Submit sends the payload and returns the new project identifier.
//
// Failures are *service.RejectedError when the service declined the
// request, *service.UnreachableError when no usable response arrived, or
// ErrInvalidInput. The coordinator is idle again after every outcome.
func (c *Coordinator) Submit(ctx context.Context, p Payload) (string, error) {
	if err := c.gate.Begin(); err != nil {
		return "", err
	}
	defer c.gate.End()

	op := "submit " + p.Method.String()
	c.logger.Debug("submitting", "method", p.Method.String(), "role", string(p.Role))

	var (
		resp *service.AnalyzeResponse
		err  error
	)
	switch p.Method {
	case MethodArchive:
		resp, err = c.submitArchive(ctx, p)
	case MethodRepository:
		resp, err = c.submitter.SubmitRepository(ctx, service.RepositoryRequest{
			RepoURL: p.RepoURL,
			Role:    string(p.Role),
			Branch:  p.Branch,
		})
	default:
		return "", fmt.Errorf("%w: unknown submission method", ErrInvalidInput)
	}

	if err != nil {
		err = classify(op, err)
		c.logger.Warn("submission failed", "method", p.Method.String(), "error", errorCause(err))
		return "", err
	}
	if resp == nil || resp.ProjectID == "" {
		err := &service.UnreachableError{Op: op, Err: errors.New("response has no project_id")}
		c.logger.Warn("submission failed", "method", p.Method.String(), "error", err.Cause())
		return "", err
	}

	c.logger.Info("submission accepted", "project_id", resp.ProjectID, "files_analyzed", resp.FilesAnalyzed)
	return resp.ProjectID, nil
}

func (c *Coordinator) submitArchive(ctx context.Context, p Payload) (*service.AnalyzeResponse, error) {
	f, err := os.Open(p.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	defer f.Close()

	return c.submitter.SubmitArchive(ctx, filepath.Base(p.ArchivePath), f, string(p.Role))
}

// classify maps any failure onto the submission error classes
func classify(op string, err error) error {
	if errors.Is(err, ErrInvalidInput) || errors.Is(err, service.ErrRejected) || errors.Is(err, service.ErrUnreachable) {
		return err
	}
	return &service.UnreachableError{Op: op, Err: err}
}

func errorCause(err error) string {
	var unreachable *service.UnreachableError
	if errors.As(err, &unreachable) {
		return unreachable.Cause()
	}
	return err.Error()
}
