// Package servicetest provides an in-process fake of the analysis service
// for tests.
package servicetest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/tara-vision/codekt/internal/service"
)

// Request is a recorded incoming request
type Request struct {
	Method string
	Path   string
	Query  string
	Body   []byte
}

// Upload is a recorded archive upload
type Upload struct {
	Filename string
	Role     string
	Size     int64
}

// Fake is a fake analysis service. Configure it through the exported
// setters; they are safe to call while requests are being served.
type Fake struct {
	Server *httptest.Server

	mu           sync.Mutex
	requests     []Request
	uploads      []Upload
	repoRequests []service.RepositoryRequest
	progress     []service.ProgressUpdate
	projectID    string
	rejectStatus int
	rejectDetail string
	docs         map[string]*service.Documentation
	plans        map[string]*service.KTPlanResponse
	projects     []service.Project
	answer       func(projectID, question string) (*service.Answer, int)
	holds        map[string]chan struct{}
}

// New starts a fake service that is closed when the test ends
func New(t testing.TB) *Fake {
	f := &Fake{
		projectID: "abc123",
		docs:      make(map[string]*service.Documentation),
		plans:     make(map[string]*service.KTPlanResponse),
		holds:     make(map[string]chan struct{}),
		answer: func(_, question string) (*service.Answer, int) {
			return &service.Answer{Answer: "answer: " + question}, http.StatusOK
		},
	}

	r := chi.NewRouter()
	r.Use(f.record)
	r.Post("/upload", f.handleUpload)
	r.Post("/analyze-repo", f.handleAnalyzeRepo)
	r.Get("/documentation/{projectID}", f.handleDocumentation)
	r.Get("/kt/{projectID}", f.handleKTPlan)
	r.Post("/chat", f.handleChat)
	r.Get("/projects", f.handleProjects)
	r.Post("/progress/{projectID}", f.handleProgress)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Close)
	return f
}

// URL returns the base URL of the fake
func (f *Fake) URL() string {
	return f.Server.URL
}

// Close releases held requests and stops the server
func (f *Fake) Close() {
	f.mu.Lock()
	for route, ch := range f.holds {
		close(ch)
		delete(f.holds, route)
	}
	f.mu.Unlock()
	f.Server.Close()
}

// SetProjectID sets the id returned by successful submissions
func (f *Fake) SetProjectID(id string) {
	f.mu.Lock()
	f.projectID = id
	f.mu.Unlock()
}

// Reject makes submissions fail with status and {"detail": detail}
func (f *Fake) Reject(status int, detail string) {
	f.mu.Lock()
	f.rejectStatus = status
	f.rejectDetail = detail
	f.mu.Unlock()
}

// AddDocumentation registers the documentation artifact of a project
func (f *Fake) AddDocumentation(id string, doc *service.Documentation) {
	f.mu.Lock()
	f.docs[id] = doc
	f.mu.Unlock()
}

// AddPlan registers the KT plan artifact of a project
func (f *Fake) AddPlan(id string, plan *service.KTPlanResponse) {
	f.mu.Lock()
	f.plans[id] = plan
	f.mu.Unlock()
}

// SetProjects sets the project list
func (f *Fake) SetProjects(projects []service.Project) {
	f.mu.Lock()
	f.projects = projects
	f.mu.Unlock()
}

// OnAsk replaces the chat handler. A non-2xx status is sent as a detail error.
func (f *Fake) OnAsk(fn func(projectID, question string) (*service.Answer, int)) {
	f.mu.Lock()
	f.answer = fn
	f.mu.Unlock()
}

// Hold blocks requests to route (a chi route pattern such as "/chat") until
// the returned release func is called.
func (f *Fake) Hold(route string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.holds[route] = ch
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			// Close may already have released it.
			if f.holds[route] == ch {
				delete(f.holds, route)
				close(ch)
			}
		})
	}
}

// Requests returns every recorded request in arrival order
func (f *Fake) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Request, len(f.requests))
	copy(out, f.requests)
	return out
}

// Count returns the number of requests whose path equals path
func (f *Fake) Count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r.Path == path {
			n++
		}
	}
	return n
}

// Uploads returns the recorded archive uploads
func (f *Fake) Uploads() []Upload {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Upload, len(f.uploads))
	copy(out, f.uploads)
	return out
}

// RepositoryRequests returns the recorded repository submissions
func (f *Fake) RepositoryRequests() []service.RepositoryRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]service.RepositoryRequest, len(f.repoRequests))
	copy(out, f.repoRequests)
	return out
}

// ProgressUpdates returns the recorded progress updates
func (f *Fake) ProgressUpdates() []service.ProgressUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]service.ProgressUpdate, len(f.progress))
	copy(out, f.progress)
	return out
}

func (f *Fake) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := Request{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery}
		if r.Header.Get("Content-Type") == "application/json" {
			body, _ := io.ReadAll(r.Body)
			r.Body.Close()
			rec.Body = body
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
		f.mu.Lock()
		f.requests = append(f.requests, rec)
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *Fake) wait(r *http.Request) {
	route := chi.RouteContext(r.Context()).RoutePattern()
	f.mu.Lock()
	ch := f.holds[route]
	f.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case <-ch:
	case <-r.Context().Done():
	}
}

func (f *Fake) rejection() (int, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rejectStatus, f.rejectDetail
}

func (f *Fake) handleUpload(w http.ResponseWriter, r *http.Request) {
	f.wait(r)
	if status, detail := f.rejection(); status != 0 {
		writeDetail(w, status, detail)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "file is required")
		return
	}
	defer file.Close()
	size, _ := io.Copy(io.Discard, file)

	f.mu.Lock()
	f.uploads = append(f.uploads, Upload{
		Filename: header.Filename,
		Role:     r.URL.Query().Get("role"),
		Size:     size,
	})
	id := f.projectID
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, service.AnalyzeResponse{ProjectID: id, Status: "completed"})
}

func (f *Fake) handleAnalyzeRepo(w http.ResponseWriter, r *http.Request) {
	f.wait(r)
	var body service.RepositoryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	f.mu.Lock()
	f.repoRequests = append(f.repoRequests, body)
	f.mu.Unlock()

	if status, detail := f.rejection(); status != 0 {
		writeDetail(w, status, detail)
		return
	}

	f.mu.Lock()
	id := f.projectID
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, service.AnalyzeResponse{ProjectID: id, Status: "completed"})
}

func (f *Fake) handleDocumentation(w http.ResponseWriter, r *http.Request) {
	f.wait(r)
	id := chi.URLParam(r, "projectID")
	f.mu.Lock()
	doc := f.docs[id]
	f.mu.Unlock()

	if doc == nil {
		writeDetail(w, http.StatusNotFound, "Project not found")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (f *Fake) handleKTPlan(w http.ResponseWriter, r *http.Request) {
	f.wait(r)
	id := chi.URLParam(r, "projectID")
	f.mu.Lock()
	plan := f.plans[id]
	f.mu.Unlock()

	if plan == nil {
		writeDetail(w, http.StatusNotFound, "Project not found")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (f *Fake) handleChat(w http.ResponseWriter, r *http.Request) {
	f.wait(r)
	var body struct {
		Question  string `json:"question"`
		ProjectID string `json:"project_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	f.mu.Lock()
	fn := f.answer
	f.mu.Unlock()

	answer, status := fn(body.ProjectID, body.Question)
	if status < 200 || status >= 300 {
		writeDetail(w, status, "chat failed")
		return
	}
	writeJSON(w, status, answer)
}

func (f *Fake) handleProjects(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	projects := f.projects
	f.mu.Unlock()
	if projects == nil {
		projects = []service.Project{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"projects": projects})
}

func (f *Fake) handleProgress(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	day, err := strconv.Atoi(q.Get("day"))
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "day must be an integer")
		return
	}
	completed, _ := strconv.ParseBool(q.Get("completed"))

	f.mu.Lock()
	f.progress = append(f.progress, service.ProgressUpdate{Day: day, Completed: completed, Notes: q.Get("notes")})
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Progress updated"})
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
