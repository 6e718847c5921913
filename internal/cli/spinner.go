package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a one-line status while a conversion runs. On anything
// but a terminal it draws nothing, so piped output stays clean.
type Spinner struct {
	ctx     context.Context
	w       io.Writer
	message string

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // serializes writes to w
}

func newSpinner(ctx context.Context, w io.Writer, message string) *Spinner {
	return &Spinner{ctx: ctx, w: w, message: message, stop: make(chan struct{})}
}

// Start begins drawing. It returns immediately.
func (s *Spinner) Start() {
	if !isTerminal(s.w) {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		tick := time.NewTicker(80 * time.Millisecond)
		defer tick.Stop()
		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				return
			case <-s.stop:
				return
			case <-tick.C:
				s.draw(fmt.Sprintf("\r%s %s", styleIconSpinner.Render(spinnerFrames[i%len(spinnerFrames)]), StyleDim.Render(s.message)))
			}
		}
	}()
}

// Stop ends the animation and blanks the line. Calling it again, or
// without Start, is harmless.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
	if isTerminal(s.w) {
		s.draw("\r" + strings.Repeat(" ", len(s.message)+4) + "\r")
	}
}

// Cancelled reports whether the command's context ended, which is how a
// Ctrl-C during the conversion shows up.
func (s *Spinner) Cancelled() bool { return s.ctx.Err() != nil }

func (s *Spinner) draw(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprint(s.w, text)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
