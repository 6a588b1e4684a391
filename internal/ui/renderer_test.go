package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tara-vision/codekt/internal/artifact"
	"github.com/tara-vision/codekt/internal/chat"
	"github.com/tara-vision/codekt/internal/service"
)

func plainRenderer() *Renderer {
	return NewRendererWithConfig(&Config{EnableMarkdown: false})
}

func TestMessageKindsRenderDistinctly(t *testing.T) {
	r := plainRenderer()

	q := r.Message(chat.Message{Kind: chat.KindQuestion, Text: "What does module X do?"})
	assert.Contains(t, q, "What does module X do?")
	assert.Contains(t, q, IconQuestion)

	a := r.Message(chat.Message{Kind: chat.KindAnswer, Text: "It loads config.", Sources: []service.SourceRef{{FileName: "x.py"}, {FileName: "y.py"}}})
	assert.Contains(t, a, "It loads config.")
	assert.Contains(t, a, "Sources: x.py, y.py")

	e := r.Message(chat.Message{Kind: chat.KindError, Text: chat.FailedAnswerText})
	assert.Contains(t, e, chat.FailedAnswerText)
	assert.Contains(t, e, IconError)
	assert.NotContains(t, e, "Sources")
}

func TestTranscript(t *testing.T) {
	r := plainRenderer()
	assert.Contains(t, r.Transcript(nil), "No questions")

	out := r.Transcript([]chat.Message{
		{Seq: 1, Kind: chat.KindQuestion, Text: "first"},
		{Seq: 2, Kind: chat.KindAnswer, Text: "second", ReplyTo: 1},
	})
	assert.Less(t, strings.Index(out, "first"), strings.Index(out, "second"))
}

func TestDocumentation(t *testing.T) {
	r := plainRenderer()
	out := r.Documentation(&service.Documentation{
		Project:       &service.Project{Path: "shop.zip", Role: "backend", FilesAnalyzed: 12},
		Documentation: "# Shop\nHandles orders.",
	})
	assert.Contains(t, out, "shop.zip")
	assert.Contains(t, out, "12 files analyzed")
	assert.Contains(t, out, "Handles orders.")

	assert.Contains(t, r.Documentation(&service.Documentation{}), "No documentation")
}

func TestFiles(t *testing.T) {
	r := plainRenderer()
	out := r.Files([]service.FileAnalysis{
		{FileName: "a.py", Complexity: 3.5, Classes: []service.Class{{Name: "A"}}, Functions: []service.Function{{Name: "f"}, {Name: "g"}}},
		{FileName: "b.py", FilePath: "pkg/b.py", Complexity: 1},
	})
	assert.Contains(t, out, "a.py")
	assert.Contains(t, out, "pkg/b.py")
	assert.Contains(t, out, "3.5")
	assert.Contains(t, out, "COMPLEXITY")

	assert.Contains(t, r.Files(nil), "No files")
}

func TestPlan(t *testing.T) {
	r := plainRenderer()
	out := r.Plan(&service.KTPlanResponse{
		KTPlan: &service.KTPlan{Plan: []service.DayPlan{
			{Day: 1, Title: "Setup", Focus: "Run it locally", FilesToStudy: []string{"main.py"}, CheckpointQuestions: []string{"Where is config read?"}},
			{Day: 2, Title: "Core", Concepts: []string{"Routing"}, Exercise: "Add an endpoint"},
		}},
		Progress: []service.DayProgress{{Day: 1, Completed: true}},
	})

	assert.Contains(t, out, "Day 1: Setup")
	assert.Contains(t, out, "Day 2: Core")
	assert.Contains(t, out, "- main.py")
	assert.Contains(t, out, "Where is config read?")
	assert.Contains(t, out, "Add an endpoint")
	assert.Equal(t, 1, strings.Count(out, IconSuccess))

	assert.Contains(t, r.Plan(nil), "no days")
	assert.Contains(t, r.Plan(&service.KTPlanResponse{KTPlan: &service.KTPlan{}}), "no days")
}

func TestProjects(t *testing.T) {
	r := plainRenderer()
	out := r.Projects([]service.Project{{ID: "abc123", Path: "https://github.com/x/y", Role: "devops", FilesAnalyzed: 4}})
	assert.Contains(t, out, "abc123")
	assert.Contains(t, out, "https://github.com/x/y")
	assert.Contains(t, r.Projects(nil), "codekt analyze")
}

func TestStatus(t *testing.T) {
	r := plainRenderer()
	out := r.Status("abc123", artifact.Snapshot{
		Docs: artifact.Slot[service.Documentation]{Status: artifact.StatusAvailable},
		Plan: artifact.Slot[service.KTPlanResponse]{Status: artifact.StatusFailed},
	}, true, 3)
	assert.Contains(t, out, "abc123")
	assert.Contains(t, out, "available")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "waiting for answer, 3 transcript entries")
}

func TestMessages(t *testing.T) {
	r := plainRenderer()
	assert.Contains(t, r.ErrorMessage(errors.New("boom")), "Error: boom")
	assert.Contains(t, r.WarningMessage("careful"), "careful")
	assert.Contains(t, r.InfoMessage("fyi"), "fyi")
	assert.Contains(t, r.SuccessMessage("ok"), "ok")
	assert.Contains(t, r.Submitted("abc123"), "abc123")
	assert.Contains(t, r.WelcomeMessage("abc123"), "abc123")
}

func TestMarkdownEnabled(t *testing.T) {
	r := NewRenderer()
	assert.True(t, r.Config().EnableMarkdown)
	assert.Contains(t, r.Markdown("plain words"), "plain words")
}

func TestSpinner(t *testing.T) {
	var off bytes.Buffer
	s := NewSpinner(&off, false)
	s.Start("waiting")
	assert.False(t, s.IsRunning())
	s.Stop()
	assert.Empty(t, off.String())

	var on bytes.Buffer
	s = NewSpinner(&on, true)
	s.Start("Analyzing")
	assert.True(t, s.IsRunning())
	time.Sleep(20 * time.Millisecond)
	s.Stop()
	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Contains(t, on.String(), "Analyzing")
	assert.True(t, strings.HasSuffix(on.String(), "\r\033[K"))
}
