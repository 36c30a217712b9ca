package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ResultType selects the box color and marker.
type ResultType int

const (
	ResultSuccess ResultType = iota
	ResultWarning
	ResultFailure
)

// Result is a bordered outcome box.
type Result struct {
	Type    ResultType
	Title   string  // e.g., "Food dispensed!"
	Details []Param // shown in order
	Hints   []string
	Width   int
}

// AddDetail appends a detail line.
func (r *Result) AddDetail(key, value string) *Result {
	r.Details = append(r.Details, Param{Key: key, Value: value})
	return r
}

// Render returns the styled box.
func (r *Result) Render() string {
	width := r.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	titleStyle, marker, label, border := SuccessTitleStyle, SuccessMarker, "OK", SuccessColor
	switch r.Type {
	case ResultWarning:
		titleStyle, marker, label, border = WarningTitleStyle, WarningMarker, "WAIT", WarningColor
	case ResultFailure:
		titleStyle, marker, label, border = ErrorTitleStyle, FailureMarker, "FAILED", ErrorColor
	}

	lines := []string{titleStyle.Render(fmt.Sprintf(" %s  %s  ─  %s", marker, label, r.Title))}

	if len(r.Details) > 0 {
		lines = append(lines, "")
		for _, d := range r.Details {
			lines = append(lines, ResultKeyStyle.Render(" "+d.Key+":")+" "+ResultValueStyle.Render(d.Value))
		}
	}

	if len(r.Hints) > 0 {
		lines = append(lines, "")
		for _, hint := range r.Hints {
			lines = append(lines, HintStyle.Render(" "+hint))
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(border).
		Width(width - 2).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

// String implements fmt.Stringer
func (r *Result) String() string {
	return r.Render()
}
