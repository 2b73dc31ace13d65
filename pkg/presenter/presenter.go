// Package presenter provides consistent CLI output functionality for
// user-facing messages, including success, error, warning, and informational
// output with color support and quiet mode.
package presenter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// ColorMode represents different color output modes
type ColorMode int

const (
	// ColorAuto automatically detects whether to use colored output based on terminal capabilities
	ColorAuto ColorMode = iota
	// ColorAlways forces colored output regardless of terminal capabilities
	ColorAlways
	// ColorNever disables colored output regardless of terminal capabilities
	ColorNever
)

// TerminalPresenter implements user-facing terminal output
type TerminalPresenter struct {
	output      io.Writer
	errorOutput io.Writer
	quiet       bool
}

// New creates a new TerminalPresenter with default settings
func New() *TerminalPresenter {
	return NewWithOptions(os.Stdout, os.Stderr, detectColorMode())
}

// NewWithOptions creates a TerminalPresenter with custom settings
func NewWithOptions(output, errorOutput io.Writer, colorMode ColorMode) *TerminalPresenter {
	switch colorMode {
	case ColorAlways:
		color.NoColor = false
	case ColorNever:
		color.NoColor = true
	case ColorAuto:
		// Let the color package auto-detect
	}

	return &TerminalPresenter{
		output:      output,
		errorOutput: errorOutput,
	}
}

// detectColorMode determines the appropriate color mode based on environment
func detectColorMode() ColorMode {
	if os.Getenv("NO_COLOR") != "" {
		return ColorNever
	}

	switch os.Getenv("TELOS_COLOR") {
	case "always", "force":
		return ColorAlways
	case "never", "off":
		return ColorNever
	default:
		return ColorAuto
	}
}

// Error displays an error message to stderr
func (p *TerminalPresenter) Error(err error, context string) {
	if err == nil {
		return
	}

	errorColor := color.New(color.FgRed, color.Bold)
	if context != "" {
		errorColor.Fprintf(p.errorOutput, "[ERROR] %s: %v\n", context, err)
	} else {
		errorColor.Fprintf(p.errorOutput, "[ERROR] %v\n", err)
	}
}

// Success displays a success message
func (p *TerminalPresenter) Success(message string) {
	if p.quiet {
		return
	}
	successColor := color.New(color.FgGreen, color.Bold)
	successColor.Fprintf(p.output, "%s\n", message)
}

// Warning displays a warning message
func (p *TerminalPresenter) Warning(message string) {
	if p.quiet {
		return
	}
	warningColor := color.New(color.FgYellow)
	warningColor.Fprintf(p.output, "[WARNING] %s\n", message)
}

// Info displays an informational message
func (p *TerminalPresenter) Info(message string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.output, "%s\n", message)
}

// Dim displays a de-emphasized message
func (p *TerminalPresenter) Dim(message string) {
	if p.quiet {
		return
	}
	dimColor := color.New(color.Faint)
	dimColor.Fprintf(p.output, "%s\n", message)
}

// Section displays a section header
func (p *TerminalPresenter) Section(title string) {
	if p.quiet {
		return
	}
	sectionColor := color.New(color.FgCyan, color.Bold)
	sectionColor.Fprintf(p.output, "\n%s\n", title)
	fmt.Fprintf(p.output, "%s\n", strings.Repeat("-", len(title)))
}

// Separator displays a visual separator line
func (p *TerminalPresenter) Separator() {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.output, strings.Repeat("-", 40))
}

// Prompt asks the user a question and returns the trimmed answer
func (p *TerminalPresenter) Prompt(question string) string {
	fmt.Fprintf(p.output, "%s ", question)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(answer)
}

// SetQuiet enables or disables quiet mode
func (p *TerminalPresenter) SetQuiet(quiet bool) {
	p.quiet = quiet
}

// IsQuiet returns whether quiet mode is enabled
func (p *TerminalPresenter) IsQuiet() bool {
	return p.quiet
}

var defaultPresenter = New()

// Error displays an error via the default presenter
func Error(err error, context string) { defaultPresenter.Error(err, context) }

// Success displays a success message via the default presenter
func Success(message string) { defaultPresenter.Success(message) }

// Warning displays a warning via the default presenter
func Warning(message string) { defaultPresenter.Warning(message) }

// Info displays an informational message via the default presenter
func Info(message string) { defaultPresenter.Info(message) }

// Dim displays a de-emphasized message via the default presenter
func Dim(message string) { defaultPresenter.Dim(message) }

// Section displays a section header via the default presenter
func Section(title string) { defaultPresenter.Section(title) }

// Separator displays a separator via the default presenter
func Separator() { defaultPresenter.Separator() }

// Prompt asks a question via the default presenter
func Prompt(question string) string { return defaultPresenter.Prompt(question) }

// SetQuiet toggles quiet mode on the default presenter
func SetQuiet(quiet bool) { defaultPresenter.SetQuiet(quiet) }
