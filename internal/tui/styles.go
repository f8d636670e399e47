// Package tui provides terminal output for srcstage commands.
//
// Styling uses Lip Gloss with AdaptiveColor for light and dark terminals.
//
// # Semantic Colors
//
//   - ColorPrimary (Blue): informational messages, headers
//   - ColorSuccess (Green): applied patches, published trees, commits
//   - ColorWarning (Yellow): partial publishes, no-op records
//   - ColorError (Red): failed patches and commands
//   - ColorMuted (Gray): secondary text
//
// # NO_COLOR Support
//
// NewTTYOutput calls CheckNoColor, which disables colors when NO_COLOR is set
// or TERM=dumb.
package tui

import (
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

//nolint:gochecknoglobals // Intentional package-level constants for styling API
var (
	// ColorPrimary is blue, used for informational output.
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#00D7FF"}

	// ColorSuccess is green, used for success states.
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#00FF87"}

	// ColorWarning is yellow, used for warning states.
	ColorWarning = lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD700"}

	// ColorError is red, used for error states.
	ColorError = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}

	// ColorMuted is gray, used for secondary text.
	ColorMuted = lipgloss.AdaptiveColor{Light: "#585858", Dark: "#6C6C6C"}

	// StyleBold applies bold formatting to text.
	StyleBold = lipgloss.NewStyle().Bold(true)

	// StyleDim applies dim formatting to text.
	StyleDim = lipgloss.NewStyle().Faint(true)
)

// Status icons. Every status is shown as icon, color and text.
const (
	IconSuccess = "✓"
	IconError   = "✗"
	IconWarning = "⚠"
	IconInfo    = "ℹ"
	IconPending = "○"
)

// TableStyles holds lipgloss styles for table rendering.
type TableStyles struct {
	Header lipgloss.Style
	Cell   lipgloss.Style
	Dim    lipgloss.Style
}

// NewTableStyles creates styles for table rendering.
func NewTableStyles() *TableStyles {
	return &TableStyles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#DDDDDD"}),
		Cell: lipgloss.NewStyle(),
		Dim: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}),
	}
}

// OutputStyles holds common output styles.
type OutputStyles struct {
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Dim     lipgloss.Style
}

// NewOutputStyles creates common output styles.
func NewOutputStyles() *OutputStyles {
	return &OutputStyles{
		Success: lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(ColorWarning),
		Info: lipgloss.NewStyle().
			Foreground(ColorPrimary),
		Dim: lipgloss.NewStyle().
			Foreground(ColorMuted),
	}
}

// CheckNoColor switches lipgloss to plain ASCII when colors are unsupported.
func CheckNoColor() {
	if !HasColorSupport() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// HasColorSupport returns false if NO_COLOR is set (any value, including
// empty) or TERM=dumb. See https://no-color.org/.
func HasColorSupport() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// PatchStatus renders a patch outcome cell: applied, failed or not attempted.
func PatchStatus(attempted, success bool) string {
	switch {
	case !attempted:
		return lipgloss.NewStyle().Foreground(ColorMuted).Render(IconPending + " not attempted")
	case success:
		return lipgloss.NewStyle().Foreground(ColorSuccess).Render(IconSuccess + " applied")
	default:
		return lipgloss.NewStyle().Foreground(ColorError).Render(IconError + " failed")
	}
}

// LineDelta renders "+added -removed" with the counts colored.
func LineDelta(added, removed int) string {
	plus := lipgloss.NewStyle().Foreground(ColorSuccess).Render("+" + strconv.Itoa(added))
	minus := lipgloss.NewStyle().Foreground(ColorError).Render("-" + strconv.Itoa(removed))
	return plus + " " + minus
}

// stripANSI removes ANSI escape codes from a string.
// Handles CSI sequences (\x1b[...letter) and OSC sequences (\x1b]...ST).
func stripANSI(s string) string {
	var result strings.Builder
	runes := []rune(s)
	i := 0
	for i < len(runes) {
		if newI := trySkipANSI(runes, i); newI != i {
			i = newI
			continue
		}
		result.WriteRune(runes[i])
		i++
	}
	return result.String()
}

// trySkipANSI returns the position after an escape sequence at i, or i.
func trySkipANSI(runes []rune, i int) int {
	if i >= len(runes) || runes[i] != '\x1b' || i+1 >= len(runes) {
		return i
	}

	switch runes[i+1] {
	case '[':
		return skipCSISequence(runes, i)
	case ']':
		return skipOSCSequence(runes, i)
	default:
		return i
	}
}

// skipCSISequence skips a CSI sequence: \x1b[...letter
func skipCSISequence(runes []rune, i int) int {
	i += 2
	for i < len(runes) {
		c := runes[i]
		i++
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			break
		}
	}
	return i
}

// skipOSCSequence skips an OSC sequence: \x1b]...ST (where ST is \x1b\\ or \x07)
func skipOSCSequence(runes []rune, i int) int {
	i += 2
	for i < len(runes) {
		c := runes[i]
		if c == '\x07' {
			i++
			break
		}
		if c == '\x1b' && i+1 < len(runes) && runes[i+1] == '\\' {
			i += 2
			break
		}
		i++
	}
	return i
}

// padRight pads s with spaces to width visible characters.
// Strings already at or beyond width are returned unchanged.
func padRight(s string, width int) string {
	runeCount := utf8.RuneCountInString(stripANSI(s))
	if runeCount >= width {
		return s
	}
	return s + strings.Repeat(" ", width-runeCount)
}
