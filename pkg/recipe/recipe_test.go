package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskforge/riskforge/pkg/riskmodel"
)

const sampleRecipe = `
id: facility-standard
name: Standard Facility Report
version: "1.0"
assessmentTypes: [office-building, warehouse]
sections:
  - id: threat-landscape
    title: Threat Landscape
    order: 2
    contentType: table
    tableConfig:
      dataSource: threatDomains
      columns:
        - field: name
          header: Domain
  - id: executive-summary
    title: Executive Summary
    order: 1
    required: true
    contentType: narrative
    narrativePromptId: executive-summary
    requiredData: [riskScores]
`

func TestParseSortsSectionsByOrder(t *testing.T) {
	r, err := Parse([]byte(sampleRecipe))
	require.NoError(t, err)
	assert.Equal(t, "facility-standard", r.ID)
	require.Len(t, r.Sections, 2)
	assert.Equal(t, "executive-summary", r.Sections[0].ID)
	assert.Equal(t, "threat-landscape", r.Sections[1].ID)
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing id", "name: x\nsections: [{id: a, contentType: narrative, narrativePromptId: p}]"},
		{"no sections", "id: r"},
		{"empty section id", "id: r\nsections: [{title: x, contentType: narrative, narrativePromptId: p}]"},
		{"duplicate section id", "id: r\nsections: [{id: a, contentType: narrative, narrativePromptId: p}, {id: a, contentType: narrative, narrativePromptId: p}]"},
		{"bad content type", "id: r\nsections: [{id: a, contentType: chart}]"},
		{"narrative without prompt", "id: r\nsections: [{id: a, contentType: narrative}]"},
		{"table without config", "id: r\nsections: [{id: a, contentType: table}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadEmbeddedRecipes(t *testing.T) {
	for _, name := range []string{"facility-standard", "executive-protection"} {
		r, err := Load(name)
		require.NoError(t, err, "embedded recipe %q", name)
		assert.NotEmpty(t, r.Sections)
	}
}

func TestLoadMissingRecipe(t *testing.T) {
	_, err := Load("does-not-exist")
	require.Error(t, err)
	assert.True(t, riskmodel.IsNotFound(err))
}

func TestConditionEvaluate(t *testing.T) {
	data := &riskmodel.ReportDataPackage{
		AssessmentType: riskmodel.AssessmentExecutiveProtection,
		RiskScores:     riskmodel.RiskScoreData{OverallScore: 88},
		ThreatDomains: []riskmodel.ThreatDomain{
			{ID: "terrorism"},
		},
	}
	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"exists true", Condition{Field: "threatDomains", Operator: OpExists}, true},
		{"exists false on nil", Condition{Field: "epReportData", Operator: OpExists}, false},
		{"exists false on missing", Condition{Field: "nope", Operator: OpExists}, false},
		{"equals string", Condition{Field: "assessmentType", Operator: OpEquals, Value: "executive-protection"}, true},
		{"equals number", Condition{Field: "riskScores.overallScore", Operator: OpEquals, Value: 88}, true},
		{"greaterThan true", Condition{Field: "riskScores.overallScore", Operator: OpGreaterThan, Value: 50}, true},
		{"greaterThan false", Condition{Field: "riskScores.overallScore", Operator: OpGreaterThan, Value: 100}, false},
		{"lessThan true", Condition{Field: "riskScores.overallScore", Operator: OpLessThan, Value: 100}, true},
		{"contains on string", Condition{Field: "assessmentType", Operator: OpContains, Value: "executive"}, true},
		{"unknown operator", Condition{Field: "assessmentType", Operator: "matches"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cond.Evaluate(data))
		})
	}
}

func TestConditionContainsList(t *testing.T) {
	data := map[string]any{"tags": []string{"priority", "follow-up"}}
	cond := Condition{Field: "tags", Operator: OpContains, Value: "priority"}
	assert.True(t, cond.Evaluate(data))

	cond.Value = "archived"
	assert.False(t, cond.Evaluate(data))
}
