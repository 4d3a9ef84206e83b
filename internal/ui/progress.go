package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Spinner represents an animated spinner for long operations
type Spinner struct {
	frames  []string
	current int
	message string
	stop    chan bool
	stopped bool
	mu      sync.Mutex
}

// NewSpinner creates a new spinner
func NewSpinner(message string) *Spinner {
	return &Spinner{
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		message: message,
		stop:    make(chan bool),
	}
}

// Start begins the spinner animation
func (s *Spinner) Start() {
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.mu.Lock()
				if !s.stopped {
					fmt.Printf("\r%s %s %s",
						ColorProgress(s.frames[s.current]),
						s.message,
						strings.Repeat(" ", 10),
					)
					s.current = (s.current + 1) % len(s.frames)
				}
				s.mu.Unlock()
			}
		}
	}()
}

// Stop stops the spinner and prints a final status line
func (s *Spinner) Stop(success bool, message string) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	close(s.stop)

	fmt.Print("\r\033[K")
	if success {
		ShowSuccess(message)
	} else {
		fmt.Printf("%s %s\n", ColorError("✗"), message)
	}
}
