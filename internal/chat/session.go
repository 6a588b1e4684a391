// Package chat runs the question/answer session for one analyzed project.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/tara-vision/codekt/internal/flight"
	"github.com/tara-vision/codekt/internal/service"
)

// FailedAnswerText replaces the answer when a question fails
const FailedAnswerText = "Failed to get answer"

// ErrAnswerFailed wraps the cause of a failed question in logs
var ErrAnswerFailed = errors.New("answer failed")

// Asker sends a question to the analysis service
type Asker interface {
	Ask(ctx context.Context, projectID, question string) (*service.Answer, error)
}

// Session is the question/answer session of a single project. At most one
// question is in flight; the project never changes for the session's
// lifetime.
type Session struct {
	id         string
	projectID  string
	asker      Asker
	logger     *slog.Logger
	gate       flight.Gate
	transcript Transcript
}

// NewSession creates an empty session for projectID
func NewSession(projectID string, asker Asker, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	return &Session{
		id:        id,
		projectID: projectID,
		asker:     asker,
		logger:    logger.With("project_id", projectID, "session_id", id),
	}
}

// ID returns the session identifier, used in logs
func (s *Session) ID() string {
	return s.id
}

// ProjectID returns the project the session asks about
func (s *Session) ProjectID() string {
	return s.projectID
}

// State reports whether a question is in flight
func (s *Session) State() flight.State {
	return s.gate.State()
}

// Transcript returns a copy of the transcript
func (s *Session) Transcript() []Message {
	return s.transcript.Messages()
}

// Len returns the number of transcript entries
func (s *Session) Len() int {
	return s.transcript.Len()
}

// Ask appends the question to the transcript, sends it, and appends the
// answer or a fixed error entry. It returns the appended response.
//
// Blank questions are ignored: Ask returns nil, nil and nothing is sent.
// While another question is pending Ask returns flight.ErrBusy and the
// transcript is unchanged.
func (s *Session) Ask(ctx context.Context, question string) (*Message, error) {
	ex, err := s.Start(question)
	if ex == nil {
		return nil, err
	}
	return ex.Finish(ctx), nil
}

// Exchange is a question that is in the transcript and waiting for its
// response. The session stays pending until Finish is called, exactly once.
type Exchange struct {
	session  *Session
	question Message
}

// Start claims the session and appends the question without sending it, so
// callers can send it on another goroutine. Blank questions return nil, nil.
// While another question is pending Start returns flight.ErrBusy and the
// transcript is unchanged.
func (s *Session) Start(question string) (*Exchange, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, nil
	}
	if err := s.gate.Begin(); err != nil {
		return nil, err
	}
	return &Exchange{session: s, question: s.transcript.appendQuestion(question)}, nil
}

// Question returns the appended question
func (e *Exchange) Question() Message {
	return e.question
}

// Finish sends the question, appends the answer or the fixed error entry,
// releases the session and returns the appended response.
func (e *Exchange) Finish(ctx context.Context) *Message {
	s, q := e.session, e.question
	defer s.gate.End()

	answer, err := s.asker.Ask(ctx, s.projectID, q.Text)
	if err == nil && answer == nil {
		err = errors.New("empty response")
	}
	if err != nil {
		s.logger.Warn("question failed", "seq", q.Seq, "error", fmt.Errorf("%w: %w", ErrAnswerFailed, describe(err)))
		msg := s.transcript.appendResponse(KindError, q.Seq, FailedAnswerText, nil)
		return &msg
	}

	var sources []service.SourceRef
	if answer.Sources != nil {
		sources = make([]service.SourceRef, len(answer.Sources))
		copy(sources, answer.Sources)
	}
	msg := s.transcript.appendResponse(KindAnswer, q.Seq, answer.Answer, sources)
	s.logger.Debug("question answered", "seq", q.Seq, "sources", len(sources))
	return &msg
}

func describe(err error) error {
	var unreachable *service.UnreachableError
	if errors.As(err, &unreachable) {
		return errors.New(unreachable.Cause())
	}
	return err
}
