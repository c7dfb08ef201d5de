package tablerender

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskforge/riskforge/pkg/riskmodel"
)

func domainsPackage() *riskmodel.ReportDataPackage {
	return &riskmodel.ReportDataPackage{
		ThreatDomains: []riskmodel.ThreatDomain{
			{Name: "Theft & Fraud", RiskScore: 70, Priority: riskmodel.RiskHigh,
				Vulnerabilities: []string{"open dock", "no CCTV"}, HistoricalIncidents: 12},
			{Name: "Civil Unrest", RiskScore: 20, Priority: riskmodel.RiskLow, HistoricalIncidents: 3},
		},
	}
}

func TestRenderInvalidConfig(t *testing.T) {
	_, err := Render(nil, domainsPackage())
	assert.Error(t, err)

	_, err = Render(&Config{Columns: []Column{{Field: "name"}}}, domainsPackage())
	assert.Error(t, err, "missing dataSource")

	_, err = Render(&Config{DataSource: "threatDomains"}, domainsPackage())
	assert.Error(t, err, "no columns")
}

func TestRenderNonArraySourceYieldsEmptyTable(t *testing.T) {
	cfg := &Config{
		DataSource: "riskScores", // a struct, not an array
		Columns:    []Column{{Field: "overallScore", Header: "Score"}},
	}
	got, err := Render(cfg, domainsPackage())
	require.NoError(t, err)
	assert.Equal(t, []string{"Score"}, got.Headers)
	assert.Empty(t, got.Rows)
}

func TestRenderMissingSourceYieldsEmptyTable(t *testing.T) {
	cfg := &Config{
		DataSource: "no.such.path",
		Columns:    []Column{{Field: "x", Header: "X"}},
	}
	got, err := Render(cfg, domainsPackage())
	require.NoError(t, err)
	assert.Empty(t, got.Rows)
}

func TestRenderRows(t *testing.T) {
	cfg := &Config{
		DataSource: "threatDomains",
		Columns: []Column{
			{Field: "name", Header: "Domain", Format: FormatText},
			{Field: "riskScore", Header: "Score", Format: FormatNumber},
			{Field: "priority", Header: "Priority", Format: FormatBadge},
			{Field: "vulnerabilities", Header: "Vulnerabilities", Format: FormatList},
		},
	}
	got, err := Render(cfg, domainsPackage())
	require.NoError(t, err)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, []string{"Theft & Fraud", "70", "HIGH", "open dock, no CCTV"}, got.Rows[0].Cells)
	assert.Equal(t, []string{"Civil Unrest", "20", "LOW", ""}, got.Rows[1].Cells)
}

func TestRenderSortNullsLast(t *testing.T) {
	data := map[string]any{
		"rows": []map[string]any{
			{"count": 3},
			{"count": nil},
			{"count": 9},
		},
	}
	cfg := &Config{
		DataSource: "rows",
		Columns:    []Column{{Field: "count", Header: "Count", Format: FormatNumber}},
		SortBy:     "count",
		SortOrder:  SortDesc,
	}
	got, err := Render(cfg, data)
	require.NoError(t, err)
	require.Len(t, got.Rows, 3)
	assert.Equal(t, "9", got.Rows[0].Cells[0])
	assert.Equal(t, "3", got.Rows[1].Cells[0])
	assert.Equal(t, "", got.Rows[2].Cells[0], "null sorts last even descending")

	// Ascending keeps nulls at the end too.
	cfg.SortOrder = SortAsc
	got, err = Render(cfg, data)
	require.NoError(t, err)
	assert.Equal(t, "3", got.Rows[0].Cells[0])
	assert.Equal(t, "9", got.Rows[1].Cells[0])
	assert.Equal(t, "", got.Rows[2].Cells[0])
}

func TestRenderSortStringFallback(t *testing.T) {
	cfg := &Config{
		DataSource: "threatDomains",
		Columns:    []Column{{Field: "name", Header: "Domain"}},
		SortBy:     "name",
		SortOrder:  SortAsc,
	}
	got, err := Render(cfg, domainsPackage())
	require.NoError(t, err)
	assert.Equal(t, "Civil Unrest", got.Rows[0].Cells[0])
	assert.Equal(t, "Theft & Fraud", got.Rows[1].Cells[0])
}

func TestRenderHighlight(t *testing.T) {
	cfg := &Config{
		DataSource: "threatDomains",
		Columns:    []Column{{Field: "name", Header: "Domain"}},
		Highlight: &HighlightRule{
			Field:    "riskScore",
			Operator: HighlightGreaterThan,
			Value:    50,
			Style:    "warning",
		},
	}
	got, err := Render(cfg, domainsPackage())
	require.NoError(t, err)
	require.Len(t, got.Rows, 2)
	assert.True(t, got.Rows[0].Highlighted)
	assert.Equal(t, "warning", got.Rows[0].HighlightStyle)
	assert.False(t, got.Rows[1].Highlighted)
	assert.Empty(t, got.Rows[1].HighlightStyle)
}

func TestRenderHighlightEqualsString(t *testing.T) {
	cfg := &Config{
		DataSource: "threatDomains",
		Columns:    []Column{{Field: "name", Header: "Domain"}},
		Highlight: &HighlightRule{
			Field:    "priority",
			Operator: HighlightEquals,
			Value:    "high",
			Style:    "bold",
		},
	}
	got, err := Render(cfg, domainsPackage())
	require.NoError(t, err)
	assert.True(t, got.Rows[0].Highlighted)
	assert.False(t, got.Rows[1].Highlighted)
}

func TestRenderFooterLiteral(t *testing.T) {
	cfg := &Config{
		DataSource: "threatDomains",
		Columns:    []Column{{Field: "name", Header: "Domain"}},
		Footer:     []string{"Total", "2 domains"},
	}
	got, err := Render(cfg, domainsPackage())
	require.NoError(t, err)
	assert.Equal(t, []string{"Total", "2 domains"}, got.Footer)
}

func TestFormatCell(t *testing.T) {
	date := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		value  any
		format ColumnFormat
		want   string
	}{
		{"nil any format", nil, FormatNumber, ""},
		{"text float trims zeros", 42.0, FormatText, "42"},
		{"date", date, FormatDate, "Mar 9, 2026"},
		{"date rfc3339 string", "2026-03-09T12:00:00Z", FormatDate, "Mar 9, 2026"},
		{"number grouping", 1234567, FormatNumber, "1,234,567"},
		{"number small", 999, FormatNumber, "999"},
		{"multiplier", 2.5, FormatMultiplier, "2.5x"},
		{"multiplier integer", 3.0, FormatMultiplier, "3x"},
		{"percent", 87.5, FormatPercent, "87.5%"},
		{"list", []string{"a", "b"}, FormatList, "a, b"},
		{"badge known", "high", FormatBadge, "HIGH"},
		{"badge moderate normalizes", "Moderate", FormatBadge, "MEDIUM"},
		{"badge unknown uppercases", "unusual", FormatBadge, "UNUSUAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatCell(tt.value, tt.format))
		})
	}
}
