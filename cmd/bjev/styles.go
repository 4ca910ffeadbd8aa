package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	plainStyle = lipgloss.NewStyle()

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	handStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))

	bestStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("10"))

	positiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	negativeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	// Chart cell colours by action code.
	cellStyles = map[string]lipgloss.Style{
		"S": lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		"H": lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
		"D": lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		"R": lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
)

func evStyle(ev float64) lipgloss.Style {
	if ev < 0 {
		return negativeStyle
	}
	return positiveStyle
}

// columnGap separates table columns.
const columnGap = 2

// styledCell is a table cell whose style is applied after alignment.
type styledCell struct {
	text  string
	style lipgloss.Style
}

func cell(text string, style lipgloss.Style) styledCell {
	return styledCell{text: text, style: style}
}

// writeTable aligns columns on the plain text width and pads outside the
// styled text, so escape codes never shift a column. A nil row prints blank.
func writeTable(out io.Writer, rows [][]styledCell) {
	var widths []int
	for _, row := range rows {
		for i, c := range row {
			if i == len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], lipgloss.Width(c.text))
		}
	}

	for _, row := range rows {
		var b strings.Builder
		for i, c := range row {
			b.WriteString(c.style.Render(c.text))
			if i < len(row)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(c.text)+columnGap))
			}
		}
		fmt.Fprintln(out, b.String())
	}
}
