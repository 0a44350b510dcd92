// Package spinner draws a single-line progress indicator on a terminal.
package spinner

import (
	"fmt"
	"io"
	"sync"
)

// Spinner struct holds the spinner state
type Spinner struct {
	mu     sync.Mutex
	w      io.Writer
	frames []string
	index  int
	label  string
	shown  bool
}

// NewSpinner creates a spinner writing to w, prefixing the count with label
func NewSpinner(w io.Writer, label string) *Spinner {
	// braille arrow sequence
	return &Spinner{
		w:     w,
		label: label,
		frames: []string{
			"⣀⣀ ",
			"⣄⣀ ",
			"⣤⣀ ",
			"⣦⣄ ",
			"⣶⣤ ",
			"⣿⣦ ",
			"⣿⣷ ",
			"⣿⣿ ",
			"⣿⣿ ",
			"⣷⣿ ",
			"⣦⣿ ",
			"⣤⣷ ",
			"⣄⣦ ",
			"⣀⣤ ",
			"⣀⣄ ",
			"⣀⣀ ",
		},
	}
}

// Update advances the spinner to the next frame and prints done/total.
// It is safe for concurrent use.
func (s *Spinner) Update(done, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.shown {
		// Hide cursor
		fmt.Fprint(s.w, "\033[?25l")
		s.shown = true
	}
	fmt.Fprintf(s.w, "\r%s%s %d/%d", s.frames[s.index], s.label, done, total)

	s.index++
	if s.index >= len(s.frames) {
		s.index = 0
	}
}

// Cleanup clears the spinner line and shows the cursor
func (s *Spinner) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.shown {
		return
	}
	fmt.Fprint(s.w, "\r\033[K")
	fmt.Fprint(s.w, "\033[?25h")
	s.shown = false
}
