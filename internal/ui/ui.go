// Package ui provides the small set of terminal-presentation helpers
// every nlco subcommand uses: colored headers, status lines, and dim
// secondary text, with color suppressed automatically when stdout
// isn't a terminal or when NO_COLOR/--no-color is set.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	Green  = color.New(color.FgGreen)
	Yellow = color.New(color.FgYellow)
	Red    = color.New(color.FgRed)
	Cyan   = color.New(color.FgCyan)
	Dim    = color.New(color.Faint)
	Bold   = color.New(color.Bold)
)

// Disable turns off all color output, regardless of terminal detection.
// Called once from main when --no-color is passed; NO_COLOR is
// honored by the color library itself.
func Disable() {
	color.NoColor = true
}

// AutoDetect sets color.NoColor based on whether stdout is a real
// terminal, matching the teacher's startup check in cmd/cie.
func AutoDetect() {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}

// Header prints a bold section title.
func Header(msg string) {
	Bold.Println(msg)
}

// SubHeader prints a secondary, dimmer section title under a Header.
func SubHeader(msg string) {
	Dim.Println(msg)
}

// Success prints a green "ok" style line, prefixed with a checkmark.
func Success(msg string) {
	Green.Printf("✓ %s\n", msg)
}

// Info prints a plain informational line.
func Info(msg string) {
	fmt.Println(msg)
}

// Infof is Info with formatting.
func Infof(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
}

// Warning prints a yellow warning line, prefixed with "!".
func Warning(msg string) {
	Yellow.Printf("! %s\n", msg)
}

// Label prints a bold key followed by a plain value on one line.
func Label(key, value string) {
	Bold.Printf("%s: ", key)
	fmt.Println(value)
}

// DimText prints msg in faint/dim styling, for secondary detail.
func DimText(msg string) {
	Dim.Println(msg)
}

// CountText returns a dim "(n item[s])" suffix, singularizing n==1.
func CountText(n int, noun string) string {
	if n == 1 {
		return Dim.Sprintf("(1 %s)", noun)
	}
	return Dim.Sprintf("(%d %ss)", n, noun)
}
