package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

// Spinner shows that a build step is still running, with the elapsed
// time. In non-TTY mode Start prints the message once and nothing is
// animated.
type Spinner struct {
	mu      sync.Mutex
	output  io.Writer
	message string
	started time.Time
	done    chan struct{}
	exited  chan struct{}
	running bool
	isTTY   bool
}

// NewSpinner creates a spinner writing to output, or os.Stderr if nil.
func NewSpinner(output io.Writer) *Spinner {
	if output == nil {
		output = os.Stderr
	}
	return &Spinner{
		output: output,
		isTTY:  ShouldShowProgress(),
	}
}

// Start shows message. Calling Start on a running spinner only
// replaces the message.
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	s.message = message
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.started = time.Now()
	s.done = make(chan struct{})
	s.exited = make(chan struct{})
	s.mu.Unlock()

	if !s.isTTY {
		fmt.Fprintf(s.output, "%s\n", message)
		close(s.exited)
		return
	}

	go s.animate(s.done, s.exited)
}

// Stop halts the spinner and prints final, if non-empty, on its own line.
// Stop on a stopped spinner is a no-op.
func (s *Spinner) Stop(final string) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	done, exited := s.done, s.exited
	s.mu.Unlock()

	close(done)
	<-exited

	if s.isTTY {
		clearLine(s.output)
	}
	if final != "" {
		fmt.Fprintf(s.output, "%s\n", final)
	}
}

// Elapsed returns the time since the spinner was last started.
func (s *Spinner) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started.IsZero() {
		return 0
	}
	return time.Since(s.started).Round(time.Second)
}

func (s *Spinner) animate(done <-chan struct{}, exited chan<- struct{}) {
	defer close(exited)

	ticker := time.NewTicker(redrawInterval)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.mu.Lock()
			msg := s.message
			elapsed := time.Since(s.started).Round(time.Second)
			s.mu.Unlock()

			char := spinnerFrames[frame%len(spinnerFrames)]
			fmt.Fprint(s.output, padLine(fmt.Sprintf("\r%s %s (%s)", char, msg, elapsed)))
		}
	}
}
