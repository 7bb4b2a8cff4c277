// Package observability renders the result panels as boxed terminal output
// for the CLI.
package observability

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jonathan/resume-assistant/internal/panels"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// barWidth is the number of cells in a score bar
	barWidth = 20
	// contentWidth is the usable width inside a box
	contentWidth = boxWidth - 4
	// maxChunksToShow limits chunks listed per evidence entry
	maxChunksToShow = 3
)

var (
	titleColor  = lipgloss.Color("33")
	mutedColor  = lipgloss.Color("244")
	okColor     = lipgloss.Color("42")
	warnColor   = lipgloss.Color("220")
	errorColor  = lipgloss.Color("196")
	borderColor = lipgloss.Color("240")
)

// Printer handles formatted output of the result panels
type Printer struct {
	out     io.Writer
	noColor bool
}

// NewPrinter creates a new Printer that writes to the given writer. With
// noColor set, output carries no ANSI escapes.
func NewPrinter(out io.Writer, noColor bool) *Printer {
	return &Printer{out: out, noColor: noColor}
}

func (p *Printer) stylize(text string, color lipgloss.Color) string {
	if p.noColor || text == "" {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}

// printBox prints a formatted box with a title and content. Long lines wrap.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := p.stylize(strings.Repeat("─", boxWidth-2), borderColor)
	side := p.stylize("│", borderColor)

	fmt.Fprintf(p.out, "%s%s%s\n", p.stylize("┌", borderColor), border, p.stylize("┐", borderColor))
	fmt.Fprintf(p.out, "%s %s %s\n", side, p.stylize(pad(title), titleColor), side)
	fmt.Fprintf(p.out, "%s%s%s\n", p.stylize("├", borderColor), border, p.stylize("┤", borderColor))

	for _, line := range strings.Split(content, "\n") {
		for _, wrapped := range wrap(line) {
			fmt.Fprintf(p.out, "%s %s %s\n", side, pad(wrapped), side)
		}
	}

	fmt.Fprintf(p.out, "%s%s%s\n", p.stylize("└", borderColor), border, p.stylize("┘", borderColor))
}

// wrap splits a line to fit the box, keeping its leading indentation.
func wrap(line string) []string {
	if lipgloss.Width(line) <= contentWidth {
		return []string{line}
	}
	trimmed := strings.TrimLeft(line, " ")
	indent := strings.Repeat(" ", len(line)-len(trimmed))
	width := contentWidth - len(indent)
	if width < 10 {
		indent, width = "", contentWidth
	}

	rendered := lipgloss.NewStyle().Width(width).Render(trimmed)
	lines := strings.Split(rendered, "\n")
	for i, l := range lines {
		lines[i] = indent + strings.TrimRight(l, " ")
	}
	return lines
}

func pad(s string) string {
	if n := contentWidth - lipgloss.Width(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

// bar draws a score bar from a width already clamped to [0, 100].
func bar(width float64) string {
	filled := int(math.Round(width / 100 * barWidth))
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

// PrintPanels prints the three panels in page order.
func (p *Printer) PrintPanels(set panels.Set) {
	p.PrintMatch(set.Match)
	p.PrintGeneration(set.Generation)
	p.PrintEvidence(set.Evidence)
}

// PrintError prints the error banner.
func (p *Printer) PrintError(message string) {
	p.printBox(p.stylize("ERROR", errorColor), message)
}

// PrintMatch outputs the match summary: scores, requirement lists and the
// parsed job description details.
func (p *Printer) PrintMatch(m panels.Match) {
	if p.printPlaceholder("MATCH OVERVIEW", m.Mode, "Submit a request to see how your profile aligns.") {
		return
	}

	var sb strings.Builder
	if m.Company != "" {
		sb.WriteString(fmt.Sprintf("Company:  %s\n", m.Company))
	}
	if m.Role != "" {
		sb.WriteString(fmt.Sprintf("Role:     %s\n", m.Role))
	}
	if m.Company != "" || m.Role != "" {
		sb.WriteString("\n")
	}

	for _, row := range m.Scores {
		sb.WriteString(fmt.Sprintf("%-13s %s %s\n", row.Label, bar(row.Width), row.Display()))
	}
	sb.WriteString("\n")

	sb.WriteString("Matched requirements:\n")
	writeList(&sb, m.Matched, m.MatchedFallback())
	sb.WriteString("Missing requirements:\n")
	writeList(&sb, m.Missing, m.MissingFallback())

	for _, d := range m.Details {
		sb.WriteString("\n")
		sb.WriteString(d.Title + ":\n")
		if d.Bulleted {
			writeList(&sb, d.Items, "")
			continue
		}
		sb.WriteString("  " + strings.Join(d.Items, ", ") + "\n")
	}

	p.printBox("MATCH OVERVIEW", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintGeneration outputs warnings, resume bullets and the cover letter.
func (p *Printer) PrintGeneration(g panels.Generation) {
	if p.printPlaceholder("OUTPUTS", g.Mode, "Run the pipeline to inspect the structured output from the backend.") {
		return
	}

	title := "OUTPUTS"
	if g.Badge != "" {
		color := warnColor
		if g.ValidationOK {
			color = okColor
		}
		title += "  [" + p.stylize(g.Badge, color) + "]"
	}

	var sb strings.Builder
	if len(g.Warnings) > 0 {
		sb.WriteString(p.stylize("Warnings:", warnColor) + "\n")
		for _, w := range g.Warnings {
			sb.WriteString(fmt.Sprintf("  ⚠ %s\n", w))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("Resume bullets (%d items):\n", g.BulletCount()))
	for i, b := range g.Bullets {
		sb.WriteString(fmt.Sprintf("• %s\n", b.Text))
		if len(b.Skills) > 0 {
			sb.WriteString(fmt.Sprintf("  [%s]\n", strings.Join(b.Skills, ", ")))
		}
		sb.WriteString("  " + p.stylize(b.Evidence, mutedColor) + "\n")
		if i < len(g.Bullets)-1 {
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\nCover letter:\n")
	sb.WriteString(g.CoverLetter + "\n")
	sb.WriteString(p.stylize(g.CoverLetterEvidence, mutedColor))

	p.printBox(title, sb.String())
}

// PrintEvidence outputs each requirement with its strongest chunks.
func (p *Printer) PrintEvidence(e panels.Evidence) {
	if p.printPlaceholder("EVIDENCE MAP", e.Mode, "Results will appear once a request is completed.") {
		return
	}

	var sb strings.Builder
	for i, entry := range e.Entries {
		label := p.stylize(entry.Label(), warnColor)
		if entry.Matched {
			label = p.stylize(entry.Label(), okColor)
		}
		sb.WriteString(fmt.Sprintf("%s  Score: %s\n", label, entry.ScoreText()))
		sb.WriteString(entry.Requirement + "\n")

		count := min(len(entry.Chunks), maxChunksToShow)
		for _, chunk := range entry.Chunks[:count] {
			sb.WriteString(fmt.Sprintf("  %s  %s\n", chunk.Section, p.stylize(chunk.ScoreLine(), mutedColor)))
			sb.WriteString(fmt.Sprintf("    %s\n", chunk.Text))
			if chunk.HasSkills() {
				sb.WriteString(fmt.Sprintf("    [%s]\n", strings.Join(chunk.Skills, ", ")))
			}
		}
		if len(entry.Chunks) > maxChunksToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more chunks\n", len(entry.Chunks)-maxChunksToShow))
		}
		if i < len(e.Entries)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("EVIDENCE MAP", strings.TrimSuffix(sb.String(), "\n"))
}

// printPlaceholder prints the loading or empty state and reports whether it did.
func (p *Printer) printPlaceholder(title string, mode panels.Mode, emptyText string) bool {
	switch mode {
	case panels.ModeLoading:
		p.printBox(title, p.stylize("Generating...", mutedColor))
		return true
	case panels.ModeEmpty:
		p.printBox(title, p.stylize(emptyText, mutedColor))
		return true
	default:
		return false
	}
}

func writeList(sb *strings.Builder, items []string, fallback string) {
	if len(items) == 0 {
		if fallback != "" {
			sb.WriteString("  " + fallback + "\n")
		}
		return
	}
	for _, item := range items {
		sb.WriteString(fmt.Sprintf("  • %s\n", item))
	}
}
