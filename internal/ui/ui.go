// Package ui provides terminal output helpers shared by the commands.
package ui

import "fmt"

// UI carries output verbosity state through the commands
type UI struct {
	Verbose bool
	Quiet   bool
	spinner *Spinner
}

// NewUI creates a new UI instance
func NewUI(verbose, quiet bool) *UI {
	return &UI{Verbose: verbose, Quiet: quiet}
}

// Printf prints formatted output if not in quiet mode
func (u *UI) Printf(format string, args ...interface{}) {
	if !u.Quiet {
		fmt.Printf(format, args...)
	}
}

// Println prints a line if not in quiet mode
func (u *UI) Println(args ...interface{}) {
	if !u.Quiet {
		fmt.Println(args...)
	}
}

// VerbosePrintf prints formatted output only in verbose mode
func (u *UI) VerbosePrintf(format string, args ...interface{}) {
	if u.Verbose && !u.Quiet {
		fmt.Printf(format, args...)
	}
}

// StartProgress starts a spinner with a message
func (u *UI) StartProgress(message string) {
	if !u.Quiet {
		u.spinner = NewSpinner(message)
		u.spinner.Start()
	}
}

// StopProgress stops the spinner
func (u *UI) StopProgress(success bool, message string) {
	if u.spinner != nil {
		u.spinner.Stop(success, message)
		u.spinner = nil
	}
}
