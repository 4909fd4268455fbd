package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/devicelab-dev/uiscript/pkg/core"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// Slow step threshold in milliseconds (5 seconds)
const slowThresholdMs = 5000

// colorsEnabled determines if ANSI colors should be used
var colorsEnabled = true

func init() {
	// Respect NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		colorsEnabled = false
		return
	}
	// Check if stdout is a terminal
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			colorsEnabled = false
		}
	}
}

// color returns the color code if colors are enabled, empty string otherwise
func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}

func printSetupSuccess(msg string) {
	fmt.Printf("  %s✓%s %s\n", color(colorGreen), color(colorReset), msg)
}

func printValidationErrors(errs []error) {
	fmt.Fprintf(os.Stderr, "Validation errors:\n")
	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "  - %v\n", err)
	}
}

func printSummary(w io.Writer, suite *core.SuiteResult) {
	totalSteps, passedSteps, failedSteps, skippedSteps := 0, 0, 0, 0
	for _, sc := range suite.Scenarios {
		totalSteps += sc.TotalSteps
		passedSteps += sc.PassedSteps + sc.WarnedSteps
		failedSteps += sc.FailedSteps
		skippedSteps += sc.SkippedSteps
	}

	fmt.Fprintln(w)
	tableWidth := 92
	fmt.Fprintln(w, strings.Repeat("═", tableWidth))
	fmt.Fprintf(w, "  %-42s %6s %7s %6s %6s %6s %10s\n", "Scenario", "Status", "Steps", "Pass", "Fail", "Skip", "Duration")
	fmt.Fprintln(w, strings.Repeat("─", tableWidth))

	for _, sc := range suite.Scenarios {
		var status, statusColor string
		switch {
		case sc.Status == core.StatusSkipped:
			status = "- SKIP"
			statusColor = color(colorCyan)
		case sc.Status.IsSuccess():
			status = "✓ PASS"
			statusColor = color(colorGreen)
		default:
			status = "✗ FAIL"
			statusColor = color(colorRed)
		}

		name := sc.Name
		if len(name) > 42 {
			name = name[:39] + "..."
		}
		fmt.Fprintf(w, "  %-42s %s%6s%s %7d %6d %6d %6d %10s\n",
			name, statusColor, status, color(colorReset),
			sc.TotalSteps, sc.PassedSteps+sc.WarnedSteps, sc.FailedSteps, sc.SkippedSteps,
			formatDuration(sc.Duration.Milliseconds()))
	}

	fmt.Fprintln(w, strings.Repeat("─", tableWidth))
	statusStr := fmt.Sprintf("%d/%d", suite.PassedScenarios, suite.TotalScenarios)
	statusColor := color(colorGreen)
	if suite.FailedScenarios > 0 {
		statusColor = color(colorRed)
	}
	fmt.Fprintf(w, "  %s%-42s%s %s%6s%s %7d %6d %6d %6d %10s\n",
		color(colorBold), "TOTAL", color(colorReset),
		statusColor, statusStr, color(colorReset),
		totalSteps, passedSteps, failedSteps, skippedSteps,
		formatDuration(suite.Duration.Milliseconds()))
	fmt.Fprintln(w, strings.Repeat("═", tableWidth))

	for _, sc := range suite.Scenarios {
		if sc.Status.IsSuccess() || sc.Status == core.StatusSkipped {
			continue
		}
		fmt.Fprintf(w, "  %s✗%s %s: %s\n", color(colorRed), color(colorReset), sc.Name, sc.Error)
		if !sc.Location.IsZero() {
			fmt.Fprintf(w, "      at %s\n", sc.Location)
		}
	}
	fmt.Fprintln(w)
}

// formatDuration formats milliseconds to a human-readable string.
// Shows milliseconds for values < 1s, seconds otherwise.
func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%dm %ds", mins, secs)
}
