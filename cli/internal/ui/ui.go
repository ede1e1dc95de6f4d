// Package ui renders CLI output: styled messages, tables, boxes and
// markdown.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"
)

var (
	// Colors
	PrimaryColor   = lipgloss.Color("#00D9FF")
	SuccessColor   = lipgloss.Color("#00FF88")
	WarningColor   = lipgloss.Color("#FFB800")
	ErrorColor     = lipgloss.Color("#FF4444")
	InfoColor      = lipgloss.Color("#00D9FF")
	SecondaryColor = lipgloss.Color("#6C757D")

	// Styles
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			MarginBottom(1)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(InfoColor)

	SecondaryStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)
)

func terminalWidth() int {
	width := 80
	if w := pterm.GetTerminalWidth(); w > 0 && w < width {
		width = w
	}
	return width
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, SuccessStyle.Render("✓ "+message))
}

// PrintError prints an error message
func PrintError(w io.Writer, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, ErrorStyle.Render("✗ "+message))
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, WarningStyle.Render("⚠ "+message))
}

// PrintInfo prints an info message
func PrintInfo(w io.Writer, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, InfoStyle.Render("ℹ "+message))
}

// RenderTable renders a table using pterm
func RenderTable(headers []string, rows [][]string) (string, error) {
	tableData := pterm.TableData{headers}
	tableData = append(tableData, rows...)
	return pterm.DefaultTable.WithHasHeader().WithData(tableData).Srender()
}

// PrintTable prints a table using pterm
func PrintTable(w io.Writer, headers []string, rows [][]string) error {
	out, err := RenderTable(headers, rows)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// PrintBox prints content in a box
func PrintBox(w io.Writer, title string, content string) {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Padding(1, 2).
		Width(terminalWidth()).
		Render(
			lipgloss.JoinVertical(
				lipgloss.Left,
				TitleStyle.Render(title),
				content,
			),
		)

	fmt.Fprintln(w, box)
}

// PrintMarkdown renders markdown content
func PrintMarkdown(w io.Writer, content string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(terminalWidth()),
	)
	if err != nil {
		return err
	}

	out, err := r.Render(content)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, out)
	return err
}

// FormatArgs renders bound arguments as "$1 = 5, $2 = 'x'".
func FormatArgs(start int, args []any) string {
	if len(args) == 0 {
		return "(none)"
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("$%d = %s", start+i, FormatValue(a))
	}
	return strings.Join(parts, ", ")
}

// FormatValue renders one value the way it would read in SQL.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(t, "'", "''") + "'"
	case []byte:
		return fmt.Sprintf("'\\x%x'", t)
	default:
		return fmt.Sprint(t)
	}
}

// ColorPrint uses fatih/color for simple colored output
func ColorPrint(w io.Writer, c *color.Color, format string, args ...any) {
	c.Fprintf(w, format, args...)
}

// GetColorPrinters returns color printers for common use cases
func GetColorPrinters() map[string]*color.Color {
	return map[string]*color.Color{
		"success": color.New(color.FgGreen, color.Bold),
		"error":   color.New(color.FgRed, color.Bold),
		"warning": color.New(color.FgYellow, color.Bold),
		"info":    color.New(color.FgCyan),
		"primary": color.New(color.FgCyan, color.Bold),
	}
}
