package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/tara-vision/codekt/internal/artifact"
	"github.com/tara-vision/codekt/internal/chat"
	"github.com/tara-vision/codekt/internal/service"
)

// Config holds UI configuration options
type Config struct {
	EnableSpinner  bool
	EnableMarkdown bool
	WordWrap       int
}

// DefaultConfig returns the default UI configuration
func DefaultConfig() *Config {
	return &Config{
		EnableSpinner:  true,
		EnableMarkdown: true,
		WordWrap:       defaultWordWrap,
	}
}

// Renderer formats everything codekt prints for the user
type Renderer struct {
	config *Config
	md     *markdown
}

// NewRenderer creates a renderer with default config
func NewRenderer() *Renderer {
	return NewRendererWithConfig(DefaultConfig())
}

// NewRendererWithConfig creates a renderer with custom config
func NewRendererWithConfig(config *Config) *Renderer {
	r := &Renderer{config: config}
	if config.EnableMarkdown {
		r.md = newMarkdown(config.WordWrap)
	}
	return r
}

// Config returns the renderer configuration
func (r *Renderer) Config() *Config {
	return r.config
}

// Markdown renders markdown, or returns it unchanged when disabled
func (r *Renderer) Markdown(content string) string {
	return r.md.render(content)
}

// WelcomeMessage returns the banner of the project view
func (r *Renderer) WelcomeMessage(projectID string) string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render(IconBook+" codekt") + " - " + Subtle.Render("project "+projectID) + "\n")
	sb.WriteString(Subtle.Render("Ask anything about the codebase. Type '/help' for commands, 'exit' to quit"))
	sb.WriteString("\n")
	return sb.String()
}

// Submitted announces the project id of a finished submission
func (r *Renderer) Submitted(projectID string) string {
	return SuccessStyle.Render(fmt.Sprintf("%s Analysis complete: project %s", IconSuccess, projectID))
}

// Documentation renders the generated documentation
func (r *Renderer) Documentation(doc *service.Documentation) string {
	var sb strings.Builder
	if p := doc.Project; p != nil {
		sb.WriteString(HeadingStyle.Render(fmt.Sprintf("%s %s", IconBook, p.Path)))
		sb.WriteString(Subtle.Render(fmt.Sprintf("  role %s, %d files analyzed", p.Role, p.FilesAnalyzed)))
		sb.WriteString("\n\n")
	}
	if strings.TrimSpace(doc.Documentation) == "" {
		sb.WriteString(Subtle.Render("No documentation was generated."))
	} else {
		sb.WriteString(r.Markdown(doc.Documentation))
	}
	sb.WriteString("\n")
	return sb.String()
}

// Files renders per-file metrics as a table
func (r *Renderer) Files(files []service.FileAnalysis) string {
	if len(files) == 0 {
		return Subtle.Render("No files were analyzed.") + "\n"
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(Subtle).
		Headers("FILE", "COMPLEXITY", "CLASSES", "FUNCTIONS")
	for _, f := range files {
		name := f.FileName
		if f.FilePath != "" {
			name = f.FilePath
		}
		t.Row(name,
			strconv.FormatFloat(f.Complexity, 'f', -1, 64),
			strconv.Itoa(len(f.Classes)),
			strconv.Itoa(len(f.Functions)))
	}
	return t.String() + "\n"
}

// Plan renders the KT plan day by day, marking completed days
func (r *Renderer) Plan(resp *service.KTPlanResponse) string {
	if resp == nil || resp.KTPlan == nil || len(resp.KTPlan.Plan) == 0 {
		return Subtle.Render("The KT plan has no days.") + "\n"
	}

	done := make(map[int]bool)
	for _, p := range resp.Progress {
		if p.Completed {
			done[p.Day] = true
		}
	}

	var sb strings.Builder
	for i, day := range resp.KTPlan.Plan {
		if i > 0 {
			sb.WriteString("\n")
		}
		mark := Subtle.Render("○")
		if done[day.Day] {
			mark = SuccessStyle.Render(IconSuccess)
		}
		sb.WriteString(fmt.Sprintf("%s %s\n", mark, HeadingStyle.Render(fmt.Sprintf("%s Day %d: %s", IconDay, day.Day, day.Title))))
		if day.Focus != "" {
			sb.WriteString("  " + day.Focus + "\n")
		}
		writeList(&sb, "Files to study", day.FilesToStudy)
		writeList(&sb, "Concepts", day.Concepts)
		if day.Exercise != "" {
			sb.WriteString("  " + Bold.Render("Exercise") + "\n    " + day.Exercise + "\n")
		}
		writeList(&sb, "Checkpoint questions", day.CheckpointQuestions)
	}
	return sb.String()
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString("  " + Bold.Render(title) + "\n")
	for _, item := range items {
		sb.WriteString("    - " + item + "\n")
	}
}

// Message renders one transcript entry. Failed answers are styled apart
// from real answers.
func (r *Renderer) Message(m chat.Message) string {
	switch m.Kind {
	case chat.KindQuestion:
		return QuestionStyle.Render(IconQuestion+" "+m.Text) + "\n"
	case chat.KindError:
		return FailedStyle.Render(IconError+" "+m.Text) + "\n"
	default:
		var sb strings.Builder
		sb.WriteString(r.Markdown(m.Text))
		sb.WriteString("\n")
		if len(m.Sources) > 0 {
			names := make([]string, len(m.Sources))
			for i, s := range m.Sources {
				names[i] = s.FileName
			}
			sb.WriteString(SourceStyle.Render(IconFile + " Sources: " + strings.Join(names, ", ")))
			sb.WriteString("\n")
		}
		return sb.String()
	}
}

// Transcript renders every entry in order
func (r *Renderer) Transcript(messages []chat.Message) string {
	if len(messages) == 0 {
		return Subtle.Render("No questions asked yet.") + "\n"
	}
	var sb strings.Builder
	for _, m := range messages {
		sb.WriteString(r.Message(m))
	}
	return sb.String()
}

// Projects renders the project list
func (r *Renderer) Projects(projects []service.Project) string {
	if len(projects) == 0 {
		return Subtle.Render("No projects yet. Run 'codekt analyze' to submit one.") + "\n"
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(Subtle).
		Headers("ID", "PATH", "ROLE", "FILES", "CREATED")
	for _, p := range projects {
		t.Row(p.ID, p.Path, p.Role, strconv.Itoa(p.FilesAnalyzed), p.CreatedAt)
	}
	return t.String() + "\n"
}

// Status summarizes artifact and chat state of the project view
func (r *Renderer) Status(projectID string, snap artifact.Snapshot, pending bool, entries int) string {
	var sb strings.Builder
	sb.WriteString(InfoStyle.Render(IconInfo+" Project "+projectID) + "\n")
	sb.WriteString(fmt.Sprintf("  Documentation: %s\n", slotStatus(snap.Docs.Status)))
	sb.WriteString(fmt.Sprintf("  KT plan:       %s\n", slotStatus(snap.Plan.Status)))
	chatState := "idle"
	if pending {
		chatState = "waiting for answer"
	}
	sb.WriteString(fmt.Sprintf("  Chat:          %s, %d transcript entries\n", chatState, entries))
	return sb.String()
}

func slotStatus(s artifact.Status) string {
	switch s {
	case artifact.StatusAvailable:
		return SuccessStyle.Render(IconSuccess + " " + s.String())
	case artifact.StatusFailed:
		return ErrorStyle.Render(IconError + " " + s.String())
	default:
		return Subtle.Render(IconPending + " " + s.String())
	}
}

// PromptString returns the styled prompt
func (r *Renderer) PromptString() string {
	return PromptStyle.Render("❯") + " "
}

// ErrorMessage formats an error message
func (r *Renderer) ErrorMessage(err error) string {
	return ErrorStyle.Render(fmt.Sprintf("%s Error: %v", IconError, err))
}

// WarningMessage formats a warning message
func (r *Renderer) WarningMessage(msg string) string {
	return WarningStyle.Render(fmt.Sprintf("%s %s", IconWarning, msg))
}

// InfoMessage formats an info message
func (r *Renderer) InfoMessage(msg string) string {
	return InfoStyle.Render(fmt.Sprintf("%s %s", IconInfo, msg))
}

// SuccessMessage formats a success message
func (r *Renderer) SuccessMessage(msg string) string {
	return SuccessStyle.Render(fmt.Sprintf("%s %s", IconSuccess, msg))
}
