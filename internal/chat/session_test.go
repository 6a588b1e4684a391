package chat

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tara-vision/codekt/internal/flight"
	"github.com/tara-vision/codekt/internal/service"
	"github.com/tara-vision/codekt/internal/service/servicetest"
)

type stubAsker struct {
	mu      sync.Mutex
	calls   []string
	answer  *service.Answer
	err     error
	release chan struct{}
}

func (s *stubAsker) Ask(ctx context.Context, projectID, question string) (*service.Answer, error) {
	s.mu.Lock()
	s.calls = append(s.calls, projectID+"|"+question)
	release := s.release
	s.mu.Unlock()
	if release != nil {
		<-release
	}
	return s.answer, s.err
}

func (s *stubAsker) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func TestAskAppendsQuestionAndAnswer(t *testing.T) {
	asker := &stubAsker{answer: &service.Answer{
		Answer:  "It parses files.",
		Sources: []service.SourceRef{{FileName: "x.py"}, {FileName: "y.py"}},
	}}
	s := NewSession("abc123", asker, nil)

	msg, err := s.Ask(context.Background(), "  What does module X do?  ")
	require.NoError(t, err)
	require.NotNil(t, msg)

	transcript := s.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, KindQuestion, transcript[0].Kind)
	assert.Equal(t, "What does module X do?", transcript[0].Text)
	assert.Empty(t, transcript[0].Sources)

	assert.Equal(t, KindAnswer, transcript[1].Kind)
	assert.Equal(t, "It parses files.", transcript[1].Text)
	assert.Equal(t, []service.SourceRef{{FileName: "x.py"}, {FileName: "y.py"}}, transcript[1].Sources)
	assert.Equal(t, transcript[0].Seq, transcript[1].ReplyTo)
	assert.Equal(t, transcript[1], *msg)

	assert.Equal(t, []string{"abc123|What does module X do?"}, asker.calls)
	assert.Equal(t, flight.StateIdle, s.State())
	assert.Empty(t, s.transcript.Unanswered())
}

func TestAskBlankIsNoop(t *testing.T) {
	asker := &stubAsker{answer: &service.Answer{Answer: "x"}}
	s := NewSession("abc123", asker, nil)

	for _, q := range []string{"", "   ", "\n\t "} {
		msg, err := s.Ask(context.Background(), q)
		assert.NoError(t, err)
		assert.Nil(t, msg)
	}
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, asker.count())
}

func TestAskFailureAppendsFixedError(t *testing.T) {
	causes := []error{
		&service.UnreachableError{Op: "ask", Err: errors.New("connection refused")},
		&service.RejectedError{StatusCode: 500, Detail: "anthropic quota exceeded"},
		errors.New("decode response: unexpected EOF"),
		nil, // nil answer without error
	}

	for _, cause := range causes {
		s := NewSession("abc123", &stubAsker{err: cause}, nil)
		msg, err := s.Ask(context.Background(), "why?")
		require.NoError(t, err)

		transcript := s.Transcript()
		require.Len(t, transcript, 2)
		assert.Equal(t, KindQuestion, transcript[0].Kind)
		assert.Equal(t, KindError, transcript[1].Kind)
		assert.Equal(t, FailedAnswerText, transcript[1].Text)
		assert.Nil(t, transcript[1].Sources)
		assert.Equal(t, transcript[0].Seq, transcript[1].ReplyTo)
		assert.Equal(t, KindError, msg.Kind)
		assert.Equal(t, flight.StateIdle, s.State())
	}
}

func TestAskWhilePendingIsRejected(t *testing.T) {
	asker := &stubAsker{answer: &service.Answer{Answer: "first"}, release: make(chan struct{})}
	s := NewSession("abc123", asker, nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.Ask(context.Background(), "first question")
		done <- err
	}()

	require.Eventually(t, func() bool { return asker.count() == 1 }, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, flight.StatePending, s.State())

	// the question is visible before the answer arrives
	transcript := s.Transcript()
	require.Len(t, transcript, 1)
	assert.Equal(t, "first question", transcript[0].Text)
	assert.Len(t, s.transcript.Unanswered(), 1)

	for i := 0; i < 5; i++ {
		msg, err := s.Ask(context.Background(), "second question")
		assert.ErrorIs(t, err, flight.ErrBusy)
		assert.Nil(t, msg)
	}
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, asker.count())

	close(asker.release)
	require.NoError(t, <-done)
	assert.Equal(t, flight.StateIdle, s.State())
	assert.Equal(t, 2, s.Len())

	asker.mu.Lock()
	asker.release = nil
	asker.mu.Unlock()
	_, err := s.Ask(context.Background(), "second question")
	require.NoError(t, err)
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, 2, asker.count())
}

func TestTranscriptGrowsInPairs(t *testing.T) {
	asker := &stubAsker{answer: &service.Answer{Answer: "ok"}}
	s := NewSession("abc123", asker, nil)

	for i := 0; i < 5; i++ {
		before := s.Len()
		if i%2 == 1 {
			asker.mu.Lock()
			asker.err = errors.New("boom")
			asker.mu.Unlock()
		} else {
			asker.mu.Lock()
			asker.err = nil
			asker.mu.Unlock()
		}
		_, err := s.Ask(context.Background(), "q")
		require.NoError(t, err)
		assert.Equal(t, before+2, s.Len())
	}

	transcript := s.Transcript()
	for i, m := range transcript {
		assert.Equal(t, i+1, m.Seq)
		if i%2 == 0 {
			assert.Equal(t, KindQuestion, m.Kind)
		} else {
			assert.True(t, m.IsResponse())
			assert.Equal(t, transcript[i-1].Seq, m.ReplyTo)
		}
	}
}

func TestSessionsDoNotShareTranscripts(t *testing.T) {
	asker := &stubAsker{answer: &service.Answer{Answer: "ok"}}
	a := NewSession("p1", asker, nil)
	_, err := a.Ask(context.Background(), "hello")
	require.NoError(t, err)

	b := NewSession("p2", asker, nil)
	assert.Equal(t, 0, b.Len())
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, "p2", b.ProjectID())
}

func TestTranscriptCopyIsIsolated(t *testing.T) {
	s := NewSession("abc123", &stubAsker{answer: &service.Answer{Answer: "ok"}}, nil)
	_, err := s.Ask(context.Background(), "hello")
	require.NoError(t, err)

	copyOf := s.Transcript()
	copyOf[0].Text = "mutated"
	assert.Equal(t, "hello", s.Transcript()[0].Text)
}

func TestAskScenarioAgainstService(t *testing.T) {
	fake := servicetest.New(t)
	fake.OnAsk(func(projectID, question string) (*service.Answer, int) {
		if question == "break" {
			return nil, http.StatusInternalServerError
		}
		return &service.Answer{Answer: "Module X loads config.", Sources: []service.SourceRef{{FileName: "x.py"}}}, http.StatusOK
	})
	client, err := service.New(fake.URL())
	require.NoError(t, err)

	s := NewSession("abc123", client, nil)
	_, err = s.Ask(context.Background(), "What does module X do?")
	require.NoError(t, err)
	_, err = s.Ask(context.Background(), "break")
	require.NoError(t, err)

	transcript := s.Transcript()
	require.Len(t, transcript, 4)
	assert.Equal(t, "Module X loads config.", transcript[1].Text)
	assert.Equal(t, []service.SourceRef{{FileName: "x.py"}}, transcript[1].Sources)
	assert.Equal(t, KindError, transcript[3].Kind)
	assert.Equal(t, FailedAnswerText, transcript[3].Text)
	assert.Equal(t, 2, fake.Count("/chat"))
}

func TestStartAppendsBeforeSending(t *testing.T) {
	asker := &stubAsker{answer: &service.Answer{Answer: "ok"}}
	s := NewSession("abc123", asker, nil)

	ex, err := s.Start("  first  ")
	require.NoError(t, err)
	require.NotNil(t, ex)
	assert.Equal(t, "first", ex.Question().Text)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, flight.StatePending, s.State())
	assert.Equal(t, 0, asker.count())

	second, err := s.Start("second")
	assert.ErrorIs(t, err, flight.ErrBusy)
	assert.Nil(t, second)
	assert.Equal(t, 1, s.Len())

	msg := ex.Finish(context.Background())
	require.NotNil(t, msg)
	assert.Equal(t, KindAnswer, msg.Kind)
	assert.Equal(t, ex.Question().Seq, msg.ReplyTo)
	assert.Equal(t, flight.StateIdle, s.State())
	assert.Equal(t, []string{"abc123|first"}, asker.calls)

	blank, err := s.Start(" \t")
	assert.NoError(t, err)
	assert.Nil(t, blank)
	assert.Equal(t, 2, s.Len())
}
