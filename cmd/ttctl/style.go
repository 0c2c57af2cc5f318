package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	cellStyle    = lipgloss.NewStyle().PaddingRight(2)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	labelStyle   = lipgloss.NewStyle().Bold(true).Width(22)
)

// renderTable writes rows as left-aligned columns sized to their widest cell.
func renderTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("(no rows)"))
		return
	}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	line := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = cellStyle.Width(widths[i] + 2).Render(style.Render(c))
		}
		return strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, parts...), " ")
	}

	fmt.Fprintln(w, line(headers, headerStyle))
	for _, row := range rows {
		fmt.Fprintln(w, line(row, lipgloss.NewStyle()))
	}
}

// renderPairs writes label/value lines.
func renderPairs(w io.Writer, pairs [][2]string) {
	for _, p := range pairs {
		fmt.Fprintln(w, labelStyle.Render(p[0])+p[1])
	}
}

func bar(fraction float64, width int) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	n := int(fraction*float64(width) + 0.5)
	return successStyle.Render(strings.Repeat("#", n)) + mutedStyle.Render(strings.Repeat(".", width-n))
}
