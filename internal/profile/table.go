package profile

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/RaiVaibhav/coala/internal/bears"
)

// ToolWrapLabel is the generic execution-kind label for bears that wrap an
// external tool. Report rows mentioning it survive tool-wrap scoping even
// when the bear's own name does not appear in the frame.
const ToolWrapLabel = "tool-wrap"

// isBannerLine reports whether a rendered report line is a summary banner
// rather than table content.
func isBannerLine(line string) bool {
	return strings.Contains(line, "samples collected") ||
		strings.Contains(line, "Ordered by") ||
		strings.Contains(line, "listing order was used")
}

// SplitBanners separates a rendered report into its banner lines and the
// remaining table text.
func SplitBanners(text string) (banners []string, table []string) {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if isBannerLine(line) {
			banners = append(banners, trimmed)
			continue
		}
		table = append(table, line)
	}
	return banners, table
}

// ParseTable tokenizes rendered report lines into rows. Fields split on
// whitespace, except that a token starting with a brace opens the free-text
// tail column, which absorbs every remaining token (the function signature
// cell may itself contain spaces).
func ParseTable(lines []string) [][]string {
	var rows [][]string
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		var row []string
		tail := ""
		inTail := false
		for _, field := range fields {
			if strings.HasPrefix(field, "{") {
				inTail = true
			}
			if inTail {
				tail += field + " "
			} else {
				row = append(row, field)
			}
		}
		if tail != "" {
			row = append(row, strings.TrimSpace(tail))
		}
		rows = append(rows, row)
	}
	return rows
}

// FilterRows scopes the parsed table. The header row always survives. For a
// tool-wrapping bear only rows whose tail mentions the bear's name or the
// generic tool-wrap label are kept; otherwise the table is trimmed to the
// top 15 data rows unless noTrim was requested.
func FilterRows(rows [][]string, decl *bears.Declaration, noTrim bool) [][]string {
	if len(rows) == 0 {
		return rows
	}
	header, data := rows[0], rows[1:]

	if decl != nil && decl.ToolWrap {
		kept := [][]string{header}
		for _, row := range data {
			if len(row) == 0 {
				continue
			}
			tail := row[len(row)-1]
			if strings.Contains(tail, decl.Name) || strings.Contains(tail, ToolWrapLabel) {
				kept = append(kept, row)
			}
		}
		return kept
	}

	if !noTrim && len(data) > 15 {
		data = data[:15]
	}
	return append([][]string{header}, data...)
}

// columnColors is the fixed, repeating color cycle assigned to columns
// positionally.
var columnColors = []lipgloss.Color{
	lipgloss.Color("1"), // red
	lipgloss.Color("7"), // white
	lipgloss.Color("4"), // blue
	lipgloss.Color("3"), // yellow
	lipgloss.Color("5"), // magenta
	lipgloss.Color("2"), // green
}

// RenderColorTable writes the rows as an aligned table with the positional
// color cycle applied per column.
func RenderColorTable(w io.Writer, rows [][]string) error {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	for _, row := range rows {
		var cells []string
		for i, cell := range row {
			style := lipgloss.NewStyle().
				Foreground(columnColors[i%len(columnColors)]).
				Width(widths[i])
			cells = append(cells, style.Render(cell))
		}
		if _, err := fmt.Fprintln(w, strings.Join(cells, "  ")); err != nil {
			return err
		}
	}
	return nil
}
