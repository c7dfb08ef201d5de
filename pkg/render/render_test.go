package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskforge/riskforge/pkg/jsonutil"
	"github.com/riskforge/riskforge/pkg/riskmodel"
)

func sampleReport() *riskmodel.GeneratedReport {
	return &riskmodel.GeneratedReport{
		ID:           "r-1",
		RecipeID:     "facility-standard",
		AssessmentID: "a-1",
		GeneratedAt:  time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC),
		Sections: []riskmodel.GeneratedSection{
			{
				ID: "executive-summary", Title: "Executive Summary", Order: 1,
				Narrative: &riskmodel.NarrativeResult{
					PromptID:  "executive-summary",
					Text:      "Overall risk is high.\n\nControls need attention.",
					WordCount: 8, Model: "test-model", InputTokens: 100, OutputTokens: 40,
				},
			},
			{
				ID: "threat-landscape", Title: "Threat Landscape", Order: 2,
				PageBreakBefore: true,
				Table: &riskmodel.RenderedTable{
					Headers: []string{"Domain", "Score"},
					Rows: []riskmodel.TableRow{
						{Cells: []string{"Theft & Fraud", "70"}, Highlighted: true, HighlightStyle: "warning"},
						{Cells: []string{"Civil Unrest", "20"}},
					},
					Footer: []string{"Total", "90"},
				},
			},
		},
		Log: []riskmodel.GenerationLogEntry{
			{SectionID: "executive-summary", Status: riskmodel.SectionSuccess},
			{SectionID: "threat-landscape", Status: riskmodel.SectionSuccess},
			{SectionID: "geographic-context", Status: riskmodel.SectionSkipped, Message: "condition not met"},
		},
		TotalTokensUsed:     140,
		TotalNarrativeWords: 8,
	}
}

func TestHTML(t *testing.T) {
	out, err := HTML(sampleReport())
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, "<h2>Executive Summary</h2>")
	assert.Contains(t, html, "<p>Overall risk is high.</p>")
	assert.Contains(t, html, "<p>Controls need attention.</p>")
	assert.Contains(t, html, `page-break-before: always`)
	assert.Contains(t, html, "<th>Domain</th>")
	assert.Contains(t, html, `<tr class="warning">`)
	assert.Contains(t, html, "<td>Theft &amp; Fraud</td>", "cell content is HTML-escaped")
	assert.Contains(t, html, "<tfoot>")
}

func TestMarkdown(t *testing.T) {
	out, err := Markdown(sampleReport())
	require.NoError(t, err)
	md := string(out)

	assert.Contains(t, md, "## Executive Summary")
	assert.Contains(t, md, "Overall risk is high.")
	assert.Contains(t, md, "| Domain | Score |")
	assert.Contains(t, md, "| Theft & Fraud | 70 |")
}

func TestJSONRoundTrips(t *testing.T) {
	out, err := JSON(sampleReport())
	require.NoError(t, err)

	var got riskmodel.GeneratedReport
	require.NoError(t, jsonutil.Unmarshal(out, &got))
	assert.Equal(t, "r-1", got.ID)
	require.Len(t, got.Sections, 2)
	assert.Equal(t, 140, got.TotalTokensUsed)
}

func TestConsolePreview(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ConsolePreview(&buf, sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "Executive Summary")
	assert.Contains(t, out, "Theft & Fraud")
	assert.Contains(t, out, "skipped geographic-context")
	assert.Contains(t, out, "2 sections, 140 tokens")
}

func TestSplitParagraphs(t *testing.T) {
	got := splitParagraphs("one\n\ntwo\n\n\n\nthree\n")
	assert.Equal(t, []string{"one", "two", "three"}, got)
	assert.Empty(t, splitParagraphs("  \n\n "))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 20))
	long := strings.Repeat("x", 30)
	got := truncate(long, 20)
	assert.Len(t, got, 20)
	assert.True(t, strings.HasSuffix(got, "..."))
}
