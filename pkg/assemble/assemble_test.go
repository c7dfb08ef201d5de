package assemble

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskforge/riskforge/pkg/riskmodel"
)

// fakeStore serves canned records and can fail individual fetches.
type fakeStore struct {
	mu         sync.Mutex
	assessment *riskmodel.Assessment
	scenarios  []riskmodel.Scenario
	controls   []riskmodel.Control
	plans      []riskmodel.TreatmentPlan
	findings   []riskmodel.Finding
	incidents  []riskmodel.Incident
	site       *riskmodel.Site
	geo        *riskmodel.GeographicIntelligence
	failing    map[string]bool
	geoCalls   []string
}

func (s *fakeStore) fail(name string) error {
	if s.failing[name] {
		return errors.New(name + " unavailable")
	}
	return nil
}

func (s *fakeStore) GetAssessment(_ context.Context, id string) (*riskmodel.Assessment, error) {
	if s.assessment == nil || s.assessment.ID != id {
		return nil, &riskmodel.NotFoundError{Kind: "assessment", ID: id}
	}
	return s.assessment, nil
}

func (s *fakeStore) ListScenarios(_ context.Context, _ string) ([]riskmodel.Scenario, error) {
	return s.scenarios, s.fail("scenarios")
}

func (s *fakeStore) ListControls(_ context.Context, _ string) ([]riskmodel.Control, error) {
	return s.controls, s.fail("controls")
}

func (s *fakeStore) ListAssets(_ context.Context, _ string) ([]riskmodel.Asset, error) {
	return nil, s.fail("assets")
}

func (s *fakeStore) ListTreatmentPlans(_ context.Context, _ string) ([]riskmodel.TreatmentPlan, error) {
	return s.plans, s.fail("plans")
}

func (s *fakeStore) ListFindings(_ context.Context, _ string) ([]riskmodel.Finding, error) {
	return s.findings, s.fail("findings")
}

func (s *fakeStore) ListIncidents(_ context.Context, _ string) ([]riskmodel.Incident, error) {
	return s.incidents, s.fail("incidents")
}

func (s *fakeStore) GetSite(_ context.Context, _ string) (*riskmodel.Site, error) {
	if err := s.fail("site"); err != nil {
		return nil, err
	}
	return s.site, nil
}

func (s *fakeStore) GetGeoData(_ context.Context, siteID string) (*riskmodel.GeographicIntelligence, error) {
	s.mu.Lock()
	s.geoCalls = append(s.geoCalls, siteID)
	s.mu.Unlock()
	if err := s.fail("geo"); err != nil {
		return nil, err
	}
	return s.geo, nil
}

// fakeEP returns a canned EP sub-package or an error.
type fakeEP struct {
	data *riskmodel.EPReportData
	err  error
}

func (f *fakeEP) Assess(_ context.Context, _ *riskmodel.Assessment) (*riskmodel.EPReportData, error) {
	return f.data, f.err
}

func facilityStore() *fakeStore {
	return &fakeStore{
		assessment: &riskmodel.Assessment{
			ID:       "a-1",
			Type:     riskmodel.AssessmentWarehouse,
			Facility: &riskmodel.FacilityProfile{ID: "f-1", Name: "Distribution Center"},
		},
		scenarios: []riskmodel.Scenario{
			{ThreatType: "cargo theft", InherentRisk: 80, RiskLevel: "High"},
		},
		controls: []riskmodel.Control{{Name: "CCTV", Description: "Dock cameras"}},
		plans: []riskmodel.TreatmentPlan{
			{ID: "tp-1", Title: "Harden perimeter", RiskReduction: 85},
			{ID: "tp-2", Title: "Badge audit", RiskReduction: 45},
		},
		findings: []riskmodel.Finding{
			{ID: "fi-1", Kind: riskmodel.FindingInterview, Description: "tailgating reported"},
			{ID: "fi-2", Kind: riskmodel.FindingSiteWalk, Description: "propped fire door"},
		},
		incidents: []riskmodel.Incident{{ID: "in-1", Type: "burglary"}},
		site:      &riskmodel.Site{ID: "s-9", AssessmentID: "a-1"},
		geo:       &riskmodel.GeographicIntelligence{CrimeIndex: 62},
		failing:   map[string]bool{},
	}
}

func TestAssembleNotFound(t *testing.T) {
	a := New(facilityStore())
	_, err := a.Assemble(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, riskmodel.IsNotFound(err))
}

func TestAssembleFullPackage(t *testing.T) {
	now := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	a := New(facilityStore(), WithClock(func() time.Time { return now }))

	pkg, err := a.Assemble(context.Background(), "a-1")
	require.NoError(t, err)

	assert.Equal(t, "a-1", pkg.AssessmentID)
	assert.Equal(t, riskmodel.AssessmentWarehouse, pkg.AssessmentType)
	assert.Equal(t, now, pkg.GeneratedAt)
	assert.Equal(t, riskmodel.ScoringGeneric, pkg.ScoringSource)
	require.NotNil(t, pkg.Facility)
	assert.Nil(t, pkg.Principal)

	assert.Equal(t, 80.0, pkg.RiskScores.OverallScore)
	assert.Equal(t, riskmodel.RiskHigh, pkg.RiskScores.RiskLevel)

	require.Len(t, pkg.ThreatDomains, 1)
	assert.Equal(t, "theft-fraud", pkg.ThreatDomains[0].ID)
	assert.Equal(t, []string{"Dock cameras"}, pkg.ThreatDomains[0].MitigatingControls)

	require.Len(t, pkg.Recommendations, 2)
	assert.Equal(t, riskmodel.PriorityImmediate, pkg.Recommendations[0].Priority)
	assert.Equal(t, riskmodel.PriorityMediumTerm, pkg.Recommendations[1].Priority)

	require.Len(t, pkg.InterviewFindings, 1)
	require.Len(t, pkg.SiteWalkFindings, 1)
	require.Len(t, pkg.DocumentedIncidents, 1)

	require.NotNil(t, pkg.GeographicIntelligence)
	assert.Equal(t, 62.0, pkg.GeographicIntelligence.CrimeIndex)
}

func TestAssembleGeoSequencedAfterSite(t *testing.T) {
	store := facilityStore()
	a := New(store)
	_, err := a.Assemble(context.Background(), "a-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s-9"}, store.geoCalls, "geo fetch uses the fetched site id")
}

func TestAssembleSubFetchFailuresDegrade(t *testing.T) {
	store := facilityStore()
	store.failing["scenarios"] = true
	store.failing["incidents"] = true
	store.failing["site"] = true
	a := New(store)

	pkg, err := a.Assemble(context.Background(), "a-1")
	require.NoError(t, err, "sub-fetch failures never abort assembly")

	assert.Empty(t, pkg.ThreatDomains)
	assert.Empty(t, pkg.DocumentedIncidents)
	assert.Nil(t, pkg.GeographicIntelligence)
	assert.Empty(t, store.geoCalls, "geo is never fetched when the site fetch fails")
	assert.Equal(t, riskmodel.RiskLow, pkg.RiskScores.RiskLevel, "no scenarios means zeroed low scores")

	// Unaffected fetches still land.
	require.Len(t, pkg.Recommendations, 2)
}

func epStore() *fakeStore {
	s := facilityStore()
	s.assessment = &riskmodel.Assessment{
		ID:        "a-2",
		Type:      riskmodel.AssessmentExecutiveProtection,
		Principal: &riskmodel.PrincipalProfile{ID: "p-1", Name: "Recorded Name"},
	}
	return s
}

func TestAssembleEPOverride(t *testing.T) {
	ep := &fakeEP{data: &riskmodel.EPReportData{
		Principal: &riskmodel.PrincipalProfile{ID: "p-1", Name: "Enriched Name", PublicExposure: "high"},
		ComponentScores: []riskmodel.EPComponentScore{
			{Threat: "kidnapping", Composite: 110},
			{Threat: "stalking", Composite: 90},
		},
	}}
	a := New(epStore(), WithEPAssessor(ep))

	pkg, err := a.Assemble(context.Background(), "a-2")
	require.NoError(t, err)

	assert.Equal(t, riskmodel.ScoringEPEnriched, pkg.ScoringSource)
	require.NotNil(t, pkg.EPReportData)
	assert.Equal(t, "Enriched Name", pkg.Principal.Name, "enriched principal wins")

	assert.Equal(t, 100.0, pkg.RiskScores.OverallScore, "mean of component composites")
	assert.Equal(t, riskmodel.RiskHigh, pkg.RiskScores.RiskLevel)
	assert.InDelta(t, 0.55, pkg.RiskScores.CategoryBreakdown["kidnapping"].Weight, 0.001)
}

func TestAssembleEPFailureFallsBackToGeneric(t *testing.T) {
	a := New(epStore(), WithEPAssessor(&fakeEP{err: errors.New("collaborator down")}))

	pkg, err := a.Assemble(context.Background(), "a-2")
	require.NoError(t, err)
	assert.Equal(t, riskmodel.ScoringGeneric, pkg.ScoringSource)
	assert.Nil(t, pkg.EPReportData)
	assert.Equal(t, "Recorded Name", pkg.Principal.Name)
	assert.Equal(t, 80.0, pkg.RiskScores.OverallScore, "generic scenario scoring retained")
}

func TestAssembleNonEPSkipsAssessor(t *testing.T) {
	ep := &fakeEP{data: &riskmodel.EPReportData{OverallScore: 120}}
	a := New(facilityStore(), WithEPAssessor(ep))

	pkg, err := a.Assemble(context.Background(), "a-1")
	require.NoError(t, err)
	assert.Equal(t, riskmodel.ScoringGeneric, pkg.ScoringSource)
	assert.Nil(t, pkg.EPReportData)
}
