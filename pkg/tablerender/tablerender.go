// Package tablerender turns declarative table configs into formatted,
// sorted, highlighted rows resolved from a report data package. The
// renderer is tolerant of data shape: only a broken config is an
// error, never the data.
package tablerender

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/riskforge/riskforge/pkg/datapath"
	"github.com/riskforge/riskforge/pkg/riskmodel"
)

// ColumnFormat names a cell formatting strategy.
type ColumnFormat string

const (
	FormatText       ColumnFormat = "text"
	FormatDate       ColumnFormat = "date"
	FormatNumber     ColumnFormat = "number"
	FormatMultiplier ColumnFormat = "multiplier"
	FormatPercent    ColumnFormat = "percent"
	FormatList       ColumnFormat = "list"
	FormatBadge      ColumnFormat = "badge"
)

// Column declares one rendered column.
type Column struct {
	Field  string       `yaml:"field" json:"field"`
	Header string       `yaml:"header" json:"header"`
	Format ColumnFormat `yaml:"format" json:"format"`
}

// SortOrder is the sort direction for the sortBy field.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// HighlightOperator compares a row field against the rule value.
type HighlightOperator string

const (
	HighlightGreaterThan HighlightOperator = "greaterThan"
	HighlightLessThan    HighlightOperator = "lessThan"
	HighlightEquals      HighlightOperator = "equals"
)

// HighlightRule flags rows matching one comparison. Styles: bold,
// highlight, warning.
type HighlightRule struct {
	Field    string            `yaml:"field" json:"field"`
	Operator HighlightOperator `yaml:"operator" json:"operator"`
	Value    any               `yaml:"value" json:"value"`
	Style    string            `yaml:"style" json:"style"`
}

// Config is the declarative table definition carried by a recipe
// section.
type Config struct {
	DataSource string         `yaml:"dataSource" json:"dataSource"`
	Columns    []Column       `yaml:"columns" json:"columns"`
	SortBy     string         `yaml:"sortBy" json:"sortBy"`
	SortOrder  SortOrder      `yaml:"sortOrder" json:"sortOrder"`
	Highlight  *HighlightRule `yaml:"highlight" json:"highlight,omitempty"`
	Footer     []string       `yaml:"footer" json:"footer,omitempty"`
}

// badgeVocabulary maps known severity/priority values to their badge
// labels. Anything else passes through uppercased.
var badgeVocabulary = map[string]string{
	"critical":    "CRITICAL",
	"high":        "HIGH",
	"medium":      "MEDIUM",
	"moderate":    "MEDIUM",
	"low":         "LOW",
	"info":        "INFO",
	"immediate":   "IMMEDIATE",
	"short-term":  "SHORT TERM",
	"medium-term": "MEDIUM TERM",
	"long-term":   "LONG TERM",
}

// Render resolves, sorts, formats, and highlights the configured table
// against the report data package. A dataSource that does not resolve
// to an array yields headers with zero rows.
func Render(cfg *Config, data any) (*riskmodel.RenderedTable, error) {
	if cfg == nil {
		return nil, fmt.Errorf("tablerender: nil config")
	}
	if cfg.DataSource == "" {
		return nil, fmt.Errorf("tablerender: config missing dataSource")
	}
	if len(cfg.Columns) == 0 {
		return nil, fmt.Errorf("tablerender: config %q has no columns", cfg.DataSource)
	}

	headers := make([]string, len(cfg.Columns))
	for i, col := range cfg.Columns {
		headers[i] = col.Header
	}
	out := &riskmodel.RenderedTable{Headers: headers, Footer: cfg.Footer}

	resolved, ok := datapath.Resolve(data, cfg.DataSource)
	if !ok {
		return out, nil
	}
	elems, ok := datapath.Elements(resolved)
	if !ok {
		return out, nil
	}

	if cfg.SortBy != "" {
		elems = sortElements(elems, cfg.SortBy, cfg.SortOrder)
	}

	out.Rows = make([]riskmodel.TableRow, 0, len(elems))
	for _, elem := range elems {
		row := riskmodel.TableRow{Cells: make([]string, len(cfg.Columns))}
		for i, col := range cfg.Columns {
			v, _ := datapath.Resolve(elem, col.Field)
			row.Cells[i] = formatCell(v, col.Format)
		}
		if cfg.Highlight != nil {
			if matchesHighlight(elem, cfg.Highlight) {
				row.Highlighted = true
				row.HighlightStyle = cfg.Highlight.Style
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// sortElements orders elements by the named field. Two numeric values
// compare numerically; otherwise string comparison applies. Missing
// values sort last in both directions.
func sortElements(elems []any, field string, order SortOrder) []any {
	sorted := make([]any, len(elems))
	copy(sorted, elems)
	desc := order == SortDesc

	sort.SliceStable(sorted, func(i, j int) bool {
		vi, oki := datapath.Resolve(sorted[i], field)
		vj, okj := datapath.Resolve(sorted[j], field)
		iMissing := !oki || vi == nil
		jMissing := !okj || vj == nil
		if iMissing || jMissing {
			// Missing sorts after present regardless of direction.
			return !iMissing && jMissing
		}

		fi, numI := datapath.AsFloat(vi)
		fj, numJ := datapath.AsFloat(vj)
		if numI && numJ {
			if desc {
				return fi > fj
			}
			return fi < fj
		}

		si, sj := fmt.Sprintf("%v", vi), fmt.Sprintf("%v", vj)
		if desc {
			return si > sj
		}
		return si < sj
	})
	return sorted
}

// matchesHighlight evaluates the rule against one row element.
func matchesHighlight(elem any, rule *HighlightRule) bool {
	v, ok := datapath.Resolve(elem, rule.Field)
	if !ok || v == nil {
		return false
	}
	switch rule.Operator {
	case HighlightEquals:
		if fv, okA := datapath.AsFloat(v); okA {
			if fr, okB := datapath.AsFloat(rule.Value); okB {
				return fv == fr
			}
		}
		return fmt.Sprintf("%v", v) == fmt.Sprintf("%v", rule.Value)
	case HighlightGreaterThan, HighlightLessThan:
		fv, okA := datapath.AsFloat(v)
		fr, okB := datapath.AsFloat(rule.Value)
		if !okA || !okB {
			return false
		}
		if rule.Operator == HighlightGreaterThan {
			return fv > fr
		}
		return fv < fr
	default:
		return false
	}
}

// formatCell renders one raw value per the column format. Nil renders
// as an empty cell in every format.
func formatCell(v any, format ColumnFormat) string {
	if v == nil {
		return ""
	}
	switch format {
	case FormatDate:
		return formatDate(v)
	case FormatNumber:
		if f, ok := datapath.AsFloat(v); ok {
			return groupDigits(f)
		}
		return fmt.Sprintf("%v", v)
	case FormatMultiplier:
		if f, ok := datapath.AsFloat(v); ok {
			return trimFloat(f) + "x"
		}
		return fmt.Sprintf("%vx", v)
	case FormatPercent:
		if f, ok := datapath.AsFloat(v); ok {
			return trimFloat(f) + "%"
		}
		return fmt.Sprintf("%v%%", v)
	case FormatList:
		if elems, ok := datapath.Elements(v); ok {
			parts := make([]string, len(elems))
			for i, e := range elems {
				parts[i] = fmt.Sprintf("%v", e)
			}
			return strings.Join(parts, ", ")
		}
		return fmt.Sprintf("%v", v)
	case FormatBadge:
		s := fmt.Sprintf("%v", v)
		if badge, ok := badgeVocabulary[strings.ToLower(s)]; ok {
			return badge
		}
		return strings.ToUpper(s)
	default: // FormatText and anything undeclared
		if f, ok := datapath.AsFloat(v); ok {
			return trimFloat(f)
		}
		return fmt.Sprintf("%v", v)
	}
}

func formatDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format("Jan 2, 2006")
	case *time.Time:
		if t == nil || t.IsZero() {
			return ""
		}
		return t.Format("Jan 2, 2006")
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed.Format("Jan 2, 2006")
		}
		return t
	default:
		return fmt.Sprintf("%v", v)
	}
}

// groupDigits renders the integer part of f with thousands separators.
func groupDigits(f float64) string {
	neg := f < 0
	if neg {
		f = -f
	}
	s := strconv.FormatInt(int64(f+0.5), 10)
	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	lead := len(s) % 3
	if lead > 0 {
		sb.WriteString(s[:lead])
		if len(s) > lead {
			sb.WriteByte(',')
		}
	}
	for i := lead; i < len(s); i += 3 {
		sb.WriteString(s[i : i+3])
		if i+3 < len(s) {
			sb.WriteByte(',')
		}
	}
	return sb.String()
}

// trimFloat prints f without trailing zero decimals.
func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
