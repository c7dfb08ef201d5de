package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/riskforge/riskforge/pkg/riskmodel"
)

// Console styles. Highlighted rows reuse the section-level warning
// palette so a scan of the preview surfaces the same rows the PDF
// will emphasize.
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00D4AA"))
	metaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD93D"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	boldStyle    = lipgloss.NewStyle().Bold(true)
)

// consoleWidth detects the terminal width, falling back to 100
// columns for pipes and CI logs.
func consoleWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 40 {
		return w
	}
	return 100
}

// ConsolePreview writes a styled, human-scannable rendering of the
// report to w. It is a preview, not an export format: content is
// truncated to the terminal width.
func ConsolePreview(w io.Writer, report *riskmodel.GeneratedReport) error {
	width := consoleWidth()

	fmt.Fprintln(w, titleStyle.Render("Risk Assessment Report"))
	fmt.Fprintln(w, metaStyle.Render(fmt.Sprintf("assessment=%s recipe=%s generated=%s",
		report.AssessmentID, report.RecipeID, report.GeneratedAt.Format("2006-01-02 15:04"))))
	fmt.Fprintln(w, strings.Repeat("─", width))

	for _, section := range report.Sections {
		fmt.Fprintln(w, sectionStyle.Render(section.Title))
		if section.Narrative != nil {
			fmt.Fprintln(w, truncate(section.Narrative.Text, width))
			fmt.Fprintln(w, metaStyle.Render(fmt.Sprintf("%d words, %d tokens, model %s",
				section.Narrative.WordCount,
				section.Narrative.InputTokens+section.Narrative.OutputTokens,
				section.Narrative.Model)))
		}
		if section.Table != nil {
			writeConsoleTable(w, section.Table, width)
		}
		fmt.Fprintln(w)
	}

	for _, entry := range report.Log {
		switch entry.Status {
		case riskmodel.SectionError:
			fmt.Fprintln(w, errStyle.Render(fmt.Sprintf("error   %s: %s", entry.SectionID, entry.Message)))
		case riskmodel.SectionSkipped:
			fmt.Fprintln(w, metaStyle.Render(fmt.Sprintf("skipped %s: %s", entry.SectionID, entry.Message)))
		}
		for _, warning := range entry.Warnings {
			fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("warn    %s: %s", entry.SectionID, warning)))
		}
	}

	fmt.Fprintln(w, metaStyle.Render(fmt.Sprintf("total: %d sections, %d tokens, %d narrative words",
		len(report.Sections), report.TotalTokensUsed, report.TotalNarrativeWords)))
	return nil
}

// writeConsoleTable lays out one rendered table with padded columns.
func writeConsoleTable(w io.Writer, table *riskmodel.RenderedTable, width int) {
	widths := make([]int, len(table.Headers))
	for i, h := range table.Headers {
		widths[i] = len(h)
	}
	for _, row := range table.Rows {
		for i, cell := range row.Cells {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var header strings.Builder
	for i, h := range table.Headers {
		header.WriteString(pad(h, widths[i]))
		header.WriteString("  ")
	}
	fmt.Fprintln(w, boldStyle.Render(truncate(header.String(), width)))

	for _, row := range table.Rows {
		var line strings.Builder
		for i, cell := range row.Cells {
			if i < len(widths) {
				line.WriteString(pad(cell, widths[i]))
				line.WriteString("  ")
			}
		}
		rendered := truncate(line.String(), width)
		if row.Highlighted {
			switch row.HighlightStyle {
			case "warning":
				rendered = warnStyle.Render(rendered)
			default:
				rendered = boldStyle.Render(rendered)
			}
		}
		fmt.Fprintln(w, rendered)
	}

	if len(table.Footer) > 0 {
		fmt.Fprintln(w, metaStyle.Render(truncate(strings.Join(table.Footer, "  "), width)))
	}
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func truncate(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if lipgloss.Width(s) <= width {
		return s
	}
	if width <= 3 {
		return s[:width]
	}
	return s[:width-3] + "..."
}
