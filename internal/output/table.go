package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/vulnverified/nexus/internal/engine"
)

var portHeaders = []string{"Port", "Service", "Status", "Priority"}

// WritePorts renders port results as a styled terminal table in scan order.
func WritePorts(w io.Writer, results []engine.PortResult, noColor bool) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No ports probed.")
		return
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			fmt.Sprintf("%d", r.Port),
			r.Service,
			string(r.Status),
			fmt.Sprintf("%d", r.Priority),
		})
	}

	if noColor {
		writeSimpleTable(w, portHeaders, rows)
		return
	}

	openStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))

	t := table.New().
		Headers(portHeaders...).
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
			}
			if col == 2 && row >= 0 && row < len(results) && results[row].Open() {
				return openStyle
			}
			return cellStyle
		})

	for _, row := range rows {
		t.Row(row...)
	}

	fmt.Fprintln(w, t.Render())
}

// WriteReport renders a full scan report.
func WriteReport(w io.Writer, report *engine.ScanReport, noColor bool) {
	fmt.Fprintln(w)
	WriteList(w, "Technology stack", techLines(report), engine.UnknownStack, noColor)
	fmt.Fprintln(w)

	fmt.Fprintln(w, paint(sectionStyle, "Ports", noColor))
	WritePorts(w, report.Ports, noColor)
	fmt.Fprintln(w)

	subs, _ := report.RenderedSubdomains()
	WriteList(w, "Subdomains", subs, "No subdomains found or all sources failed.", noColor)

	WriteSummary(w, report, noColor)
}

func techLines(report *engine.ScanReport) []string {
	lines := append([]string(nil), report.Technologies...)
	if report.FetchError != "" {
		return append(lines, "fetch failed: "+report.FetchError)
	}
	lines = append(lines, "Server: "+report.Server, "Powered by: "+report.PoweredBy)
	if report.Title != "" {
		lines = append(lines, "Title: "+truncate(report.Title, 60))
	}
	return lines
}

func writeSimpleTable(w io.Writer, headers []string, rows [][]string) {
	// Calculate column widths.
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				fmt.Fprint(w, " | ")
			}
			fmt.Fprintf(w, "%-*s", widths[i], cell)
		}
		fmt.Fprintln(w)
	}

	writeRow(headers)
	for i, width := range widths {
		if i > 0 {
			fmt.Fprint(w, "-+-")
		}
		fmt.Fprint(w, strings.Repeat("-", width))
	}
	fmt.Fprintln(w)
	for _, row := range rows {
		writeRow(row)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
