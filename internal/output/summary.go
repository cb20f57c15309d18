package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vulnverified/nexus/internal/engine"
)

// Version is set via ldflags at build time.
var Version = "dev"

var (
	boldStyle    = lipgloss.NewStyle().Bold(true)
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	findingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	levelStyles  = map[engine.RiskLevel]lipgloss.Style{
		engine.RiskLow:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		engine.RiskMedium:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220")),
		engine.RiskHigh:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208")),
		engine.RiskCritical: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	}
)

// WriteHeader prints the nexus banner.
func WriteHeader(w io.Writer, noColor bool) {
	fmt.Fprintf(w, "%s - external recon and risk report\n\n", paint(boldStyle, "nexus "+Version, noColor))
}

// WriteSummary prints the target line, counts and the risk verdict.
func WriteSummary(w io.Writer, report *engine.ScanReport, noColor bool) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", paint(boldStyle, "Target:", noColor), report.Target)
	if len(report.Addresses) > 0 {
		fmt.Fprintf(w, "%s %s\n", paint(boldStyle, "Addresses:", noColor), strings.Join(report.Addresses, ", "))
	}
	fmt.Fprintf(w, "%s %d discovered\n", paint(boldStyle, "Subdomains:", noColor), len(report.Subdomains))
	fmt.Fprintf(w, "%s %d of %d probed\n", paint(boldStyle, "Open ports:", noColor), len(report.OpenPorts()), len(report.Ports))
	WriteRisk(w, report.Risk, noColor)

	if len(report.Warnings) > 0 {
		fmt.Fprintln(w)
		for _, warn := range report.Warnings {
			fmt.Fprintf(w, "%s %s\n", paint(warnStyle, "!", noColor), warn)
		}
	}
}

// WriteRisk prints the score, level and findings of an assessment.
func WriteRisk(w io.Writer, a engine.RiskAssessment, noColor bool) {
	level := a.Level()
	fmt.Fprintf(w, "%s %d/100 %s\n", paint(boldStyle, "Risk score:", noColor), a.Score, paint(levelStyles[level], "("+string(level)+")", noColor))
	if !a.HeadersChecked {
		fmt.Fprintln(w, "  security headers not checked: target unreachable")
	}
	for _, f := range a.Findings {
		fmt.Fprintf(w, "  %s %s (+%d)\n", paint(findingStyle, "[-]", noColor), f.Description, f.Weight)
	}
}

// WriteList prints a titled list, or the empty message when items is empty.
func WriteList(w io.Writer, title string, items []string, empty string, noColor bool) {
	fmt.Fprintln(w, paint(sectionStyle, title, noColor))
	if len(items) == 0 {
		fmt.Fprintf(w, "  %s\n", empty)
		return
	}
	for _, item := range items {
		fmt.Fprintf(w, "  %s\n", item)
	}
}

func paint(s lipgloss.Style, text string, noColor bool) string {
	if noColor {
		return text
	}
	return s.Render(text)
}
