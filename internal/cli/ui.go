package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Terminal palette. Kept muted so output reads on both light and dark
// backgrounds.
var (
	colorAccent  = lipgloss.Color("36")
	colorSuccess = lipgloss.Color("35")
	colorWarning = lipgloss.Color("220")
	colorError   = lipgloss.Color("167")
	colorCommand = lipgloss.Color("75")
	colorValue   = lipgloss.Color("255")
	colorMuted   = lipgloss.Color("240")
)

// Styles shared with the tree viewer.
var (
	// StyleTitle for headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)

	// StyleDim for secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorMuted)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorValue)
)

var styleIconSpinner = lipgloss.NewStyle().Foreground(colorAccent)

// status prints a one-line message behind a colored icon.
func status(icon string, color lipgloss.Color, msg string) {
	fmt.Println(lipgloss.NewStyle().Foreground(color).Render(icon) + " " + msg)
}

func printSuccess(format string, args ...any) {
	status("✓", colorSuccess, fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	status("✗", colorError, fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	msg := lipgloss.NewStyle().Foreground(colorWarning).Render(fmt.Sprintf(format, args...))
	status("!", colorWarning, msg)
}

func printInfo(format string, args ...any) {
	status("›", colorMuted, fmt.Sprintf(format, args...))
}

// printDetail prints an indented secondary line under a status message.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints an output file path.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render("→") + " " + StyleValue.Render(path))
}

// printStats prints diagram statistics on a single indented line.
func printStats(nodeCount, rootCount int, cached bool) {
	var parts []string
	if nodeCount > 0 {
		parts = append(parts, fmt.Sprintf("%d nodes", nodeCount))
	}
	if rootCount > 0 {
		parts = append(parts, fmt.Sprintf("%d roots", rootCount))
	}
	if cached {
		parts = append(parts, "cached")
	} else {
		parts = append(parts, "fresh")
	}
	fmt.Println("  " + StyleDim.Render(strings.Join(parts, " · ")))
}

// printNextStep prints a suggested follow-up command.
func printNextStep(description, cmd string) {
	style := lipgloss.NewStyle().Foreground(colorCommand)
	fmt.Println(StyleDim.Render(description+":") + " " + style.Render(cmd))
}

func printNewline() {
	fmt.Println()
}
