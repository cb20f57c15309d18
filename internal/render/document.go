// Package render lays a scan report out as a PDF document.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vulnverified/nexus/internal/engine"
)

// A4 portrait in points.
const (
	pageWidth    = 595.0
	pageHeight   = 842.0
	marginLeft   = 30.0
	indent       = 50.0
	bottomMargin = 60.0
	maxLineChars = 90
)

const (
	colBlack    = "#000000"
	colWhite    = "#FFFFFF"
	colGrey     = "#808080"
	colDarkBlue = "#00008B"
	colRed      = "#FF0000"
	colOrange   = "#FFA500"
	colGreen    = "#008000"
)

// Document is the pdfcpu JSON description of a report.
type Document struct {
	Paper string          `json:"paper"`
	Pages map[string]Page `json:"pages"`
}

// Page holds the content drawn on one page.
type Page struct {
	Content Content `json:"content"`
}

// Content is the set of primitives on a page.
type Content struct {
	Text []Text `json:"text,omitempty"`
	Box  []Box  `json:"box,omitempty"`
}

// Text is a single line drawn at Pos (lower left origin).
type Text struct {
	Value string     `json:"value"`
	Pos   [2]float64 `json:"pos"`
	Font  Font       `json:"font"`
}

// Font selects one of the PDF core fonts.
type Font struct {
	Name string `json:"name"`
	Size int    `json:"size"`
	Col  string `json:"col,omitempty"`
}

// Box is a filled rectangle anchored at its lower left corner.
type Box struct {
	Pos     [2]float64 `json:"pos"`
	Width   float64    `json:"width"`
	Height  float64    `json:"height"`
	FillCol string     `json:"fillCol"`
}

// FileName is the download name of the report for host.
func FileName(host string) string {
	return fmt.Sprintf("nexus_report_%s.pdf", host)
}

// ScoreColor returns the badge colour for a risk score.
func ScoreColor(score int) string {
	switch {
	case score > 75:
		return colRed
	case score > 40:
		return colOrange
	default:
		return colGreen
	}
}

// NewDocument builds the page description for report. Sections flow onto new
// pages when the current one fills up.
func NewDocument(report *engine.ScanReport) *Document {
	l := newLayout()

	l.header(report)

	l.section("1. TECHNOLOGY STACK", colDarkBlue)
	for _, tech := range report.Technologies {
		l.item("- " + tech)
	}
	if report.FetchError == "" {
		l.item("Server: " + orUnknown(report.Server))
		l.item("Powered By: " + orUnknown(report.PoweredBy))
	} else {
		l.item("Fetch failed: " + report.FetchError)
	}
	l.gap(10)

	l.section("2. OPEN PORTS & SERVICES", colDarkBlue)
	open := report.OpenPorts()
	if len(open) == 0 {
		l.item("No open ports detected.")
	}
	for _, p := range open {
		l.item(fmt.Sprintf("- %d/tcp  %s", p.Port, p.Service))
	}
	l.gap(10)

	l.section("3. DISCOVERED SUBDOMAINS", colDarkBlue)
	lines, truncated := report.RenderedSubdomains()
	if len(lines) == 0 {
		l.item("No subdomains found or all sources failed.")
	}
	for i, line := range lines {
		if truncated && i == len(lines)-1 {
			l.item(line)
			continue
		}
		l.item("- " + line)
	}
	l.gap(10)

	l.section("4. SECURITY ISSUES IDENTIFIED", colRed)
	if !report.Risk.HeadersChecked {
		l.item("Security headers not checked: target unreachable.")
	}
	if len(report.Risk.Findings) == 0 {
		l.item("No issues identified.")
	}
	for _, f := range report.Risk.Findings {
		l.item(fmt.Sprintf("[-] %s (+%d)", f.Description, f.Weight))
	}

	l.footers()
	return l.doc
}

type layout struct {
	doc  *Document
	page int
	y    float64
}

func newLayout() *layout {
	l := &layout{doc: &Document{Paper: "A4P", Pages: make(map[string]Page)}}
	l.newPage()
	return l
}

func (l *layout) key() string { return strconv.Itoa(l.page) }

func (l *layout) newPage() {
	l.page++
	l.doc.Pages[l.key()] = Page{}
	l.y = pageHeight - 60
}

func (l *layout) text(x, y float64, value, font string, size int, col string) {
	p := l.doc.Pages[l.key()]
	p.Content.Text = append(p.Content.Text, Text{
		Value: value,
		Pos:   [2]float64{x, y},
		Font:  Font{Name: font, Size: size, Col: col},
	})
	l.doc.Pages[l.key()] = p
}

func (l *layout) box(x, y, w, h float64, col string) {
	p := l.doc.Pages[l.key()]
	p.Content.Box = append(p.Content.Box, Box{Pos: [2]float64{x, y}, Width: w, Height: h, FillCol: col})
	l.doc.Pages[l.key()] = p
}

// ensure starts a new page when fewer than h points remain.
func (l *layout) ensure(h float64) {
	if l.y-h < bottomMargin {
		l.newPage()
	}
}

func (l *layout) gap(h float64) { l.y -= h }

func (l *layout) header(report *engine.ScanReport) {
	l.box(0, pageHeight-80, pageWidth, 80, colBlack)
	l.text(marginLeft, pageHeight-50, "NEXUS INTELLIGENCE REPORT", "Helvetica-Bold", 22, colWhite)
	l.text(pageWidth-150, pageHeight-50, "CONFIDENTIAL", "Helvetica", 10, colWhite)

	l.y = pageHeight - 120
	l.text(marginLeft, l.y, "Target: "+report.Target, "Helvetica-Bold", 14, colBlack)
	l.text(marginLeft, l.y-15, "Scan Date: "+report.ScannedAt.Format("2006-01-02 15:04:05"), "Helvetica", 10, colBlack)
	if report.ID != "" {
		l.text(marginLeft, l.y-28, "Report ID: "+report.ID, "Helvetica", 8, colGrey)
	}

	score := report.Risk.Score
	l.box(pageWidth-120, l.y-40, 80, 55, ScoreColor(score))
	l.text(pageWidth-95, l.y-10, fmt.Sprintf("%d", score), "Helvetica-Bold", 16, colWhite)
	l.text(pageWidth-112, l.y-32, "RISK: "+strings.ToUpper(string(report.Risk.Level())), "Helvetica", 8, colWhite)

	l.y -= 60
	l.box(marginLeft, l.y, pageWidth-2*marginLeft, 1, colGrey)
	l.y -= 30
}

func (l *layout) section(title, col string) {
	l.ensure(40)
	l.text(marginLeft, l.y, title, "Helvetica-Bold", 12, col)
	l.y -= 20
}

func (l *layout) item(value string) {
	l.ensure(15)
	l.text(indent, l.y, clip(value), "Courier", 10, colBlack)
	l.y -= 15
}

func (l *layout) footers() {
	for i := 1; i <= l.page; i++ {
		key := strconv.Itoa(i)
		p := l.doc.Pages[key]
		p.Content.Text = append(p.Content.Text, Text{
			Value: fmt.Sprintf("Generated by nexus. Page %d of %d.", i, l.page),
			Pos:   [2]float64{pageWidth/2 - 80, 30},
			Font:  Font{Name: "Helvetica-Oblique", Size: 8, Col: colGrey},
		})
		l.doc.Pages[key] = p
	}
}

// clip keeps lines inside the page width and within the core font's
// character set.
func clip(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e {
			return '?'
		}
		return r
	}, s)
	if len(s) > maxLineChars {
		return s[:maxLineChars-3] + "..."
	}
	return s
}

func orUnknown(s string) string {
	if s == "" {
		return engine.UnknownBanner
	}
	return s
}
