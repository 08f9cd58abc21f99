// Package spinner shows progress for long-running steps on a terminal.
package spinner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const interval = 80 * time.Millisecond

// Start displays an animated spinner with the given message on w and
// returns a function that stops it, clears the line, and reports the
// elapsed time. The returned function is safe to call more than once.
func Start(w io.Writer, message string) (stop func() time.Duration) {
	started := time.Now()
	done := make(chan struct{})
	cleared := make(chan struct{})
	width := runewidth.StringWidth(message) + 2
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		i := 0
		for {
			select {
			case <-done:
				fmt.Fprintf(w, "\r%s\r", strings.Repeat(" ", width)) //nolint:errcheck
				close(cleared)
				return
			case <-ticker.C:
				fmt.Fprintf(w, "\r%s %s", frames[i%len(frames)], message) //nolint:errcheck
				i++
			}
		}
	}()

	var (
		once    sync.Once
		elapsed time.Duration
	)
	return func() time.Duration {
		once.Do(func() {
			elapsed = time.Since(started)
			close(done)
			<-cleared
		})
		return elapsed
	}
}

// StartIfTerminal is Start when w is a terminal. Otherwise nothing is drawn
// and stop only measures elapsed time, so piped output stays clean.
func StartIfTerminal(w io.Writer, message string) (stop func() time.Duration) {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return Start(w, message)
	}
	started := time.Now()
	return func() time.Duration { return time.Since(started) }
}
