// Package artifact loads the generated artifacts of a project: the
// documentation with its file metrics, and the KT plan. The two fetches run
// independently; either may finish first and a failure of one never
// affects the other.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tara-vision/codekt/internal/service"
)

// ErrUnavailable marks an artifact whose fetch failed
var ErrUnavailable = errors.New("artifact unavailable")

// Status of one artifact slot
type Status int

const (
	StatusPending Status = iota
	StatusAvailable
	StatusFailed
)

// String returns the status name
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusAvailable:
		return "available"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Slot holds one artifact and its load status
type Slot[T any] struct {
	Status Status
	Value  *T
	Err    error
}

// Available reports whether the artifact was fetched
func (s Slot[T]) Available() bool {
	return s.Status == StatusAvailable
}

// Snapshot is a point-in-time copy of both slots
type Snapshot struct {
	Docs Slot[service.Documentation]
	Plan Slot[service.KTPlanResponse]
}

// Fetcher retrieves artifacts from the analysis service
type Fetcher interface {
	Documentation(ctx context.Context, projectID string) (*service.Documentation, error)
	KTPlan(ctx context.Context, projectID string) (*service.KTPlanResponse, error)
}

// Loader loads the artifacts of a single project. Create a new Loader for
// a different project.
type Loader struct {
	projectID string
	fetcher   Fetcher
	logger    *slog.Logger

	mu         sync.Mutex
	generation int
	docs       Slot[service.Documentation]
	plan       Slot[service.KTPlanResponse]
	docsDone   chan struct{}
	done       chan struct{}
}

// NewLoader creates a loader for projectID
func NewLoader(projectID string, fetcher Fetcher, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		projectID: projectID,
		fetcher:   fetcher,
		logger:    logger.With("project_id", projectID),
		docsDone:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// ProjectID returns the project this loader serves
func (l *Loader) ProjectID() string {
	return l.projectID
}

// Load starts both fetches and returns immediately. Calling it again
// re-fetches and replaces both artifacts; results of a superseded load are
// discarded.
func (l *Loader) Load(ctx context.Context) {
	l.mu.Lock()
	l.generation++
	gen := l.generation
	l.docs = Slot[service.Documentation]{Status: StatusPending}
	l.plan = Slot[service.KTPlanResponse]{Status: StatusPending}
	l.docsDone = make(chan struct{})
	l.done = make(chan struct{})
	docsDone, done := l.docsDone, l.done
	l.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		defer close(docsDone)
		doc, err := l.fetcher.Documentation(ctx, l.projectID)
		l.mu.Lock()
		defer l.mu.Unlock()
		if gen != l.generation {
			return
		}
		l.docs = resolve(l.logger, "documentation", doc, err)
	}()

	go func() {
		defer wg.Done()
		plan, err := l.fetcher.KTPlan(ctx, l.projectID)
		l.mu.Lock()
		defer l.mu.Unlock()
		if gen != l.generation {
			return
		}
		l.plan = resolve(l.logger, "kt plan", plan, err)
	}()

	go func() {
		wg.Wait()
		close(done)
	}()
}

func resolve[T any](logger *slog.Logger, name string, value *T, err error) Slot[T] {
	if err == nil && value == nil {
		err = errors.New("empty response")
	}
	if err != nil {
		var unreachable *service.UnreachableError
		if errors.As(err, &unreachable) {
			logger.Warn("artifact fetch failed", "artifact", name, "error", unreachable.Cause())
		} else {
			logger.Warn("artifact fetch failed", "artifact", name, "error", err)
		}
		return Slot[T]{Status: StatusFailed, Err: fmt.Errorf("%w: %s: %v", ErrUnavailable, name, err)}
	}
	logger.Debug("artifact loaded", "artifact", name)
	return Slot[T]{Status: StatusAvailable, Value: value}
}

// Loading is true only while the documentation fetch is pending. A slow or
// failed KT plan never holds the view in the loading state.
func (l *Loader) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.generation > 0 && l.docs.Status == StatusPending
}

// DocsDone is closed when the documentation fetch of the latest load
// resolves.
func (l *Loader) DocsDone() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.docsDone
}

// Done is closed when both fetches of the latest load have resolved.
func (l *Loader) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

// Snapshot returns the current state of both artifacts
func (l *Loader) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Snapshot{Docs: l.docs, Plan: l.plan}
}
