package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultConnectTimeout = 10 * time.Second
	maxErrorBody          = 1 << 20

	// DefaultBaseURL is used when no server is configured
	DefaultBaseURL = "http://localhost:8000/api"
)

// Endpoint paths, relative to the base URL
const (
	pathUpload        = "/upload"
	pathAnalyzeRepo   = "/analyze-repo"
	pathDocumentation = "/documentation/"
	pathKTPlan        = "/kt/"
	pathChat          = "/chat"
	pathProjects      = "/projects"
	pathProgress      = "/progress/"
)

// Info holds connection metadata
type Info struct {
	BaseURL string
}

// Client talks to the analysis service over HTTP
type Client struct {
	info       *Info
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client for the service at baseURL
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("server URL is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q", baseURL)
	}

	c := &Client{
		info:       &Info{BaseURL: baseURL},
		httpClient: newHTTPClient(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Info returns connection metadata
func (c *Client) Info() *Info {
	return c.info
}

// SubmitArchive uploads an archive as multipart field "file" with the role
// as a query parameter.
func (c *Client) SubmitArchive(ctx context.Context, filename string, archive io.Reader, role string) (*AnalyzeResponse, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(filename))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, archive); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	query := url.Values{"role": {role}}
	req, err := c.newRequest(ctx, http.MethodPost, pathUpload+"?"+query.Encode(), pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out AnalyzeResponse
	if err := c.do(req, "submit archive", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitRepository asks the service to analyze a remote repository
func (c *Client) SubmitRepository(ctx context.Context, body RepositoryRequest) (*AnalyzeResponse, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, pathAnalyzeRepo, body)
	if err != nil {
		return nil, err
	}

	var out AnalyzeResponse
	if err := c.do(req, "submit repository", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Documentation fetches the documentation and file metrics of a project
func (c *Client) Documentation(ctx context.Context, projectID string) (*Documentation, error) {
	req, err := c.newRequest(ctx, http.MethodGet, pathDocumentation+url.PathEscape(projectID), nil)
	if err != nil {
		return nil, err
	}

	var out Documentation
	if err := c.do(req, "fetch documentation", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// KTPlan fetches the onboarding plan of a project
func (c *Client) KTPlan(ctx context.Context, projectID string) (*KTPlanResponse, error) {
	req, err := c.newRequest(ctx, http.MethodGet, pathKTPlan+url.PathEscape(projectID), nil)
	if err != nil {
		return nil, err
	}

	var out KTPlanResponse
	if err := c.do(req, "fetch kt plan", &out); err != nil {
		return nil, err
	}
	if out.KTPlan == nil {
		return nil, fmt.Errorf("fetch kt plan: response has no kt_plan")
	}
	return &out, nil
}

// Ask sends a question about a project's codebase
func (c *Client) Ask(ctx context.Context, projectID, question string) (*Answer, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, pathChat, chatRequest{
		Question:  question,
		ProjectID: projectID,
	})
	if err != nil {
		return nil, err
	}

	var out Answer
	if err := c.do(req, "ask", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Projects lists the projects known to the service
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	req, err := c.newRequest(ctx, http.MethodGet, pathProjects, nil)
	if err != nil {
		return nil, err
	}

	var out projectsResponse
	if err := c.do(req, "list projects", &out); err != nil {
		return nil, err
	}
	return out.Projects, nil
}

// UpdateProgress records completion of a KT day
func (c *Client) UpdateProgress(ctx context.Context, projectID string, update ProgressUpdate) error {
	query := url.Values{
		"day":       {strconv.Itoa(update.Day)},
		"completed": {strconv.FormatBool(update.Completed)},
	}
	if update.Notes != "" {
		query.Set("notes", update.Notes)
	}

	req, err := c.newRequest(ctx, http.MethodPost, pathProgress+url.PathEscape(projectID)+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	return c.do(req, "update progress", nil)
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := c.newRequest(ctx, method, path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.info.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

// do executes req and decodes a 2xx JSON body into out. Transport failures
// become *UnreachableError, non-2xx statuses become *RejectedError.
func (c *Client) do(req *http.Request, op string, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &UnreachableError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &RejectedError{
			StatusCode: resp.StatusCode,
			Detail:     parseDetail(resp.StatusCode, body),
		}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// newHTTPClient creates the HTTP client for service requests.
// Analysis can take minutes, so there is no client-level timeout; only
// connection setup is bounded.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 0,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   defaultConnectTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}
