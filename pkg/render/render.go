// Package render converts a generated report into the exchange formats
// downstream consumers take: HTML for the external PDF collaborator,
// Markdown and JSON for programmatic use, and a styled console preview.
// Visual styling is non-normative; only structural well-formedness
// matters here.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/riskforge/riskforge/pkg/jsonutil"
	"github.com/riskforge/riskforge/pkg/riskmodel"
)

// htmlReport is the document handed to the PDF collaborator. Page
// breaks are expressed as CSS page-break hints on section containers.
const htmlReport = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Risk Assessment Report {{ .ID }}</title>
</head>
<body>
<header>
  <h1>Risk Assessment Report</h1>
  <p class="meta">Assessment {{ .AssessmentID }} &middot; Recipe {{ .RecipeID }} &middot; {{ .GeneratedAt.Format "January 2, 2006" }}</p>
</header>
{{ range .Sections }}
<section id="{{ .ID }}"{{ if .PageBreakBefore }} style="page-break-before: always"{{ end }}>
  <h2>{{ .Title }}</h2>
  {{ if .Narrative }}
  {{ range splitParagraphs .Narrative.Text }}<p>{{ . }}</p>
  {{ end }}
  {{ end }}
  {{ if .Table }}
  <table>
    <thead>
      <tr>{{ range .Table.Headers }}<th>{{ . }}</th>{{ end }}</tr>
    </thead>
    <tbody>
    {{ range .Table.Rows }}
      <tr{{ if .Highlighted }} class="{{ .HighlightStyle }}"{{ end }}>{{ range .Cells }}<td>{{ . }}</td>{{ end }}</tr>
    {{ end }}
    </tbody>
    {{ if .Table.Footer }}
    <tfoot>
      <tr>{{ range .Table.Footer }}<td>{{ . }}</td>{{ end }}</tr>
    </tfoot>
    {{ end }}
  </table>
  {{ end }}
</section>
{{ end }}
</body>
</html>
`

var htmlTmpl = template.Must(
	template.New("report").
		Funcs(sprig.FuncMap()).
		Funcs(template.FuncMap{"splitParagraphs": splitParagraphs}).
		Parse(htmlReport))

// splitParagraphs breaks narrative text on blank lines.
func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// HTML renders the report as a standalone HTML document.
func HTML(report *riskmodel.GeneratedReport) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlTmpl.Execute(&buf, report); err != nil {
		return nil, fmt.Errorf("render: html: %w", err)
	}
	return buf.Bytes(), nil
}

const markdownReport = `# Risk Assessment Report

Assessment: {{ .AssessmentID }}
Recipe: {{ .RecipeID }}
Generated: {{ .GeneratedAt.Format "2006-01-02" }}
{{ range .Sections }}
## {{ .Title }}
{{ if .Narrative }}
{{ .Narrative.Text }}
{{ end }}{{ if .Table }}
| {{ join " | " .Table.Headers }} |
|{{ repeat (len .Table.Headers) " --- |" }}
{{- range .Table.Rows }}
| {{ join " | " .Cells }} |
{{- end }}
{{ end }}{{ end }}`

var mdTmpl = texttemplate.Must(
	texttemplate.New("markdown").
		Funcs(sprig.TxtFuncMap()).
		Parse(markdownReport))

// Markdown renders the report as a Markdown document.
func Markdown(report *riskmodel.GeneratedReport) ([]byte, error) {
	var buf bytes.Buffer
	if err := mdTmpl.Execute(&buf, report); err != nil {
		return nil, fmt.Errorf("render: markdown: %w", err)
	}
	return buf.Bytes(), nil
}

// JSON renders the report snapshot, indented for diffing and archival.
func JSON(report *riskmodel.GeneratedReport) ([]byte, error) {
	data, err := jsonutil.MarshalIndent(report, "  ")
	if err != nil {
		return nil, fmt.Errorf("render: json: %w", err)
	}
	return data, nil
}
