package ui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Spinner animates a busy indicator on one terminal line. A disabled
// spinner prints nothing.
type Spinner struct {
	out      io.Writer
	enabled  bool
	frames   []string
	interval time.Duration

	mu      sync.Mutex
	message string
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// DotFrames is the default animation
var DotFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewSpinner creates a spinner writing to out
func NewSpinner(out io.Writer, enabled bool) *Spinner {
	return &Spinner{
		out:      out,
		enabled:  enabled,
		frames:   DotFrames,
		interval: 80 * time.Millisecond,
	}
}

// Start begins the animation with message. Starting a running spinner
// only replaces the message.
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.message = message
	if s.running || !s.enabled {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.stop, s.done)
}

func (s *Spinner) run(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for i := 0; ; i = (i + 1) % len(s.frames) {
		s.mu.Lock()
		fmt.Fprintf(s.out, "\r%s %s", SpinnerStyle.Render(s.frames[i]), s.message)
		s.mu.Unlock()

		select {
		case <-stop:
			fmt.Fprint(s.out, "\r\033[K")
			return
		case <-ticker.C:
		}
	}
}

// Stop halts the animation and clears the line
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done
}

// IsRunning returns whether the spinner is animating
func (s *Spinner) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
