package service

import (
	"encoding/json"
	"fmt"
)

// Project is the unit of analysis created by the service on submission
type Project struct {
	ID            string `json:"id"`
	Path          string `json:"path"`           // archive name or repository locator
	Role          string `json:"role"`           // fullstack, frontend, backend, devops
	FilesAnalyzed int    `json:"files_analyzed"`
	Status        string `json:"status,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"` // service-formatted, kept verbatim
}

// Function describes a declared function or method
type Function struct {
	Name       string   `json:"name"`
	Docstring  string   `json:"docstring,omitempty"`
	Args       []string `json:"args,omitempty"`
	LineNumber int      `json:"line_number,omitempty"`
	Returns    string   `json:"returns,omitempty"`
}

// Class describes a declared class and its methods
type Class struct {
	Name       string     `json:"name"`
	Docstring  string     `json:"docstring,omitempty"`
	LineNumber int        `json:"line_number,omitempty"`
	Methods    []Function `json:"methods,omitempty"`
}

// FileAnalysis holds the metrics of one analyzed file
type FileAnalysis struct {
	FileName   string     `json:"file_name"`
	FilePath   string     `json:"file_path,omitempty"`
	Complexity float64    `json:"complexity"`
	Classes    []Class    `json:"classes"`
	Functions  []Function `json:"functions"`
	Imports    []string   `json:"imports,omitempty"`
}

// Documentation is the documentation+file-metrics artifact
type Documentation struct {
	Project       *Project       `json:"project"`
	Documentation string         `json:"documentation"`
	Files         []FileAnalysis `json:"files"`
}

// DayPlan is one day of a KT plan
type DayPlan struct {
	Day                 int      `json:"day"`
	Title               string   `json:"title"`
	Focus               string   `json:"focus"`
	FilesToStudy        []string `json:"files_to_study"`
	Concepts            []string `json:"concepts"`
	Exercise            string   `json:"exercise,omitempty"`
	CheckpointQuestions []string `json:"checkpoint_questions"`
}

// KTPlan is the ordered onboarding plan. The number of days is decided by
// the service.
type KTPlan struct {
	Plan []DayPlan `json:"plan"`
}

// DayProgress records completion of a KT day
type DayProgress struct {
	Day         int      `json:"day"`
	Completed   FlexBool `json:"completed"`
	CompletedAt string   `json:"completed_at,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// KTPlanResponse is the KT plan artifact
type KTPlanResponse struct {
	Project  *Project      `json:"project,omitempty"`
	KTPlan   *KTPlan       `json:"kt_plan"`
	Progress []DayProgress `json:"progress,omitempty"`
}

// SourceRef attributes an answer to a file
type SourceRef struct {
	FileName string `json:"file_name"`
}

// Answer is the service reply to a question
type Answer struct {
	Answer  string      `json:"answer"`
	Sources []SourceRef `json:"sources"`
}

// RepositoryRequest is the JSON body for repository submissions
type RepositoryRequest struct {
	RepoURL string `json:"repo_url"`
	Role    string `json:"role"`
	Branch  string `json:"branch"`
}

// AnalyzeResponse is returned by both submission endpoints
type AnalyzeResponse struct {
	ProjectID     string `json:"project_id"`
	FilesAnalyzed int    `json:"files_analyzed,omitempty"`
	Status        string `json:"status,omitempty"`
}

// ProgressUpdate marks a KT day as done or not done
type ProgressUpdate struct {
	Day       int
	Completed bool
	Notes     string
}

type chatRequest struct {
	Question  string `json:"question"`
	ProjectID string `json:"project_id"`
}

type projectsResponse struct {
	Projects []Project `json:"projects"`
}

// FlexBool decodes JSON booleans as well as 0/1 integers, which is how
// SQLite-backed services report flags.
type FlexBool bool

// UnmarshalJSON implements json.Unmarshaler
func (b *FlexBool) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	switch t := v.(type) {
	case nil:
		*b = false
	case bool:
		*b = FlexBool(t)
	case float64:
		*b = t != 0
	default:
		return fmt.Errorf("cannot decode %s as bool", string(data))
	}
	return nil
}
