package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = [...]string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// Spinner animates a message on stderr while a generation runs. It stops
// when Stop is called or its parent context is done, whichever is first.
type Spinner struct {
	out     io.Writer
	message string

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex // guards out
	once    sync.Once
	started chan struct{}
	exited  chan struct{}
	begin   time.Time
}

func newSpinner(message string) *Spinner {
	return newSpinnerWithContext(context.Background(), message)
}

// newSpinnerWithContext ties the spinner's lifetime to ctx.
func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	ctx, cancel := context.WithCancel(ctx)
	return &Spinner{
		out:     os.Stderr,
		message: message,
		ctx:     ctx,
		cancel:  cancel,
		started: make(chan struct{}),
		exited:  make(chan struct{}),
	}
}

// Start launches the animation goroutine.
func (s *Spinner) Start() {
	s.begin = time.Now()
	close(s.started)
	go s.run()
}

func (s *Spinner) run() {
	defer close(s.exited)
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-s.ctx.Done():
			s.clear()
			return
		case <-ticker.C:
			s.draw(spinnerFrames[frame%len(spinnerFrames)])
		}
	}
}

func (s *Spinner) draw(frame string) {
	line := fmt.Sprintf("\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.message))
	if d := time.Since(s.begin); d >= time.Second {
		line += StyleDim.Render(fmt.Sprintf(" (%s)", d.Round(time.Second)))
	}
	s.mu.Lock()
	io.WriteString(s.out, line)
	s.mu.Unlock()
}

func (s *Spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", len(s.message)+16))
}

// Stop ends the animation and clears the line. Later calls do nothing.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		select {
		case <-s.started:
			<-s.exited
		default:
		}
	})
}

// StopWithSuccess stops the spinner and reports message as done.
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	printSuccess("%s", message)
}

// StopWithError stops the spinner and reports message as failed.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled reports whether the spinner has stopped or its context ended.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}
