package ui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner shows an animated progress indicator for slow network calls.
// In plain mode it stays silent so piped output is not polluted.
type Spinner struct {
	out     io.Writer
	mode    Mode
	mu      sync.Mutex
	active  bool
	stopped chan struct{}
	done    chan struct{}
}

// NewSpinner builds a spinner bound to one output stream.
func NewSpinner(out io.Writer, mode Mode) *Spinner {
	return &Spinner{out: out, mode: mode}
}

// Start begins the animation with the given label. Calling Start on a
// running spinner is a no-op.
func (s *Spinner) Start(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active || s.mode == ModePlain {
		return
	}
	s.active = true
	s.stopped = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(label, s.stopped, s.done)
}

// Stop halts the animation and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	close(s.stopped)
	<-s.done
	s.active = false
}

func (s *Spinner) run(label string, stopped, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()
	frame := 0
	for {
		select {
		case <-stopped:
			fmt.Fprintf(s.out, "\r%s\r", spaces(len(label)+4))
			return
		case <-ticker.C:
			fmt.Fprintf(s.out, "\r%s %s", dimStyle.Render(spinnerFrames[frame%len(spinnerFrames)]), label)
			frame++
		}
	}
}

func spaces(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
