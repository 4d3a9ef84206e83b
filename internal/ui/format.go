package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/mgutz/ansi"
)

var (
	// Check if output supports colors
	supportsColor = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	// Color functions
	ColorSuccess  = colorFunc(ansi.Green)
	ColorError    = colorFunc(ansi.Red)
	ColorWarning  = colorFunc(ansi.Yellow)
	ColorInfo     = colorFunc(ansi.Cyan)
	ColorProgress = colorFunc(ansi.Blue)
	ColorBold     = colorFunc("default+b")
	ColorDim      = colorFunc("default+h")
)

// colorFunc returns a function that colors text if supported
func colorFunc(color string) func(string) string {
	return func(text string) string {
		if supportsColor {
			return ansi.Color(text, color)
		}
		return text
	}
}

// ShowHeader displays a formatted section header
func ShowHeader(title string) {
	fmt.Printf("\n%s\n%s\n", ColorBold(title), strings.Repeat("-", len(title)))
}

// ShowError displays a formatted error message
func ShowError(err error) {
	fmt.Printf("%s %s\n", ColorError("✗"), err.Error())
}

// ShowSuccess displays a success message
func ShowSuccess(message string) {
	fmt.Printf("%s %s\n", ColorSuccess("✓"), message)
}

// ShowWarning displays a warning message
func ShowWarning(message string) {
	fmt.Printf("%s %s\n", ColorWarning("⚠"), message)
}

// ShowInfo displays an informational message
func ShowInfo(message string) {
	fmt.Printf("%s %s\n", ColorInfo("ℹ"), message)
}
