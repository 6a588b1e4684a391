package ui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	Accent  = lipgloss.Color("#0EA5E9") // Sky
	Success = lipgloss.Color("#10B981") // Green
	Error   = lipgloss.Color("#EF4444") // Red
	Warning = lipgloss.Color("#F59E0B") // Amber
	Muted   = lipgloss.Color("#6B7280") // Gray
	Info    = lipgloss.Color("#6366F1") // Indigo
)

// Text styles
var (
	Bold   = lipgloss.NewStyle().Bold(true)
	Subtle = lipgloss.NewStyle().Foreground(Muted)
)

// Transcript styles
var (
	QuestionStyle = lipgloss.NewStyle().Foreground(Accent).Bold(true)
	AnswerStyle   = lipgloss.NewStyle()
	SourceStyle   = lipgloss.NewStyle().Foreground(Muted).Italic(true)
	FailedStyle   = lipgloss.NewStyle().Foreground(Error)
)

// UI element styles
var (
	PromptStyle  = lipgloss.NewStyle().Foreground(Accent).Bold(true)
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(Accent)
	HeadingStyle = lipgloss.NewStyle().Bold(true).Foreground(Info)
	SpinnerStyle = lipgloss.NewStyle().Foreground(Accent)
	InfoStyle    = lipgloss.NewStyle().Foreground(Info)
	WarningStyle = lipgloss.NewStyle().Foreground(Warning)
	SuccessStyle = lipgloss.NewStyle().Foreground(Success)
	ErrorStyle   = lipgloss.NewStyle().Foreground(Error)
)

// Icon constants
const (
	IconSuccess  = "✓"
	IconError    = "✗"
	IconArrow    = "→"
	IconWarning  = "⚠"
	IconInfo     = "ℹ"
	IconPending  = "…"
	IconQuestion = "?"
	IconFile     = "📄"
	IconBook     = "📘"
	IconDay      = "📅"
)
