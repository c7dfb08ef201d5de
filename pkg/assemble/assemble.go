// Package assemble builds the unified report data package for one
// assessment: it fans out best-effort fetches to the data store,
// derives risk scores and threat domains, and applies the
// executive-protection enrichment precedence rule.
package assemble

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/riskforge/riskforge/pkg/riskmodel"
	"github.com/riskforge/riskforge/pkg/scoring"
	"github.com/riskforge/riskforge/pkg/threatmap"
)

// Store is the read surface of the relational data store. Only
// GetAssessment failures abort assembly; every other call is
// best-effort.
type Store interface {
	GetAssessment(ctx context.Context, id string) (*riskmodel.Assessment, error)
	ListScenarios(ctx context.Context, assessmentID string) ([]riskmodel.Scenario, error)
	ListControls(ctx context.Context, assessmentID string) ([]riskmodel.Control, error)
	ListAssets(ctx context.Context, assessmentID string) ([]riskmodel.Asset, error)
	ListTreatmentPlans(ctx context.Context, assessmentID string) ([]riskmodel.TreatmentPlan, error)
	ListFindings(ctx context.Context, assessmentID string) ([]riskmodel.Finding, error)
	ListIncidents(ctx context.Context, assessmentID string) ([]riskmodel.Incident, error)
	GetSite(ctx context.Context, assessmentID string) (*riskmodel.Site, error)
	GetGeoData(ctx context.Context, siteID string) (*riskmodel.GeographicIntelligence, error)
}

// EPAssessor is the external AI-risk-assessment collaborator invoked
// for executive-protection assessments.
type EPAssessor interface {
	Assess(ctx context.Context, assessment *riskmodel.Assessment) (*riskmodel.EPReportData, error)
}

// Assembler builds report data packages. Safe for concurrent use.
type Assembler struct {
	store      Store
	epAssessor EPAssessor
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLogger sets the assembler's logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) { a.logger = logger }
}

// WithEPAssessor wires the executive-protection collaborator. Without
// it, executive-protection assessments fall back to generic scoring.
func WithEPAssessor(ep EPAssessor) Option {
	return func(a *Assembler) { a.epAssessor = ep }
}

// WithClock overrides the timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

// New returns an Assembler reading from store.
func New(store Store, opts ...Option) *Assembler {
	a := &Assembler{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// fetched collects the results of the concurrent sub-fetches. Each
// field is written by exactly one goroutine before the WaitGroup
// releases the merger.
type fetched struct {
	scenarios []riskmodel.Scenario
	controls  []riskmodel.Control
	assets    []riskmodel.Asset
	plans     []riskmodel.TreatmentPlan
	findings  []riskmodel.Finding
	incidents []riskmodel.Incident
	geo       *riskmodel.GeographicIntelligence
}

// Assemble builds the package for one assessment. The assessment
// lookup is the only fatal path; every sub-fetch degrades to an empty
// field on failure. A fresh package is built on every call.
func (a *Assembler) Assemble(ctx context.Context, assessmentID string) (*riskmodel.ReportDataPackage, error) {
	assessment, err := a.store.GetAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	var (
		wg  sync.WaitGroup
		got fetched
	)
	fetch := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				a.logger.Debug("sub-fetch degraded to empty",
					"assessment", assessmentID, "fetch", name, "error", err)
			}
		}()
	}

	fetch("scenarios", func() (err error) {
		got.scenarios, err = a.store.ListScenarios(ctx, assessmentID)
		return
	})
	fetch("controls", func() (err error) {
		got.controls, err = a.store.ListControls(ctx, assessmentID)
		return
	})
	fetch("assets", func() (err error) {
		got.assets, err = a.store.ListAssets(ctx, assessmentID)
		return
	})
	fetch("treatment_plans", func() (err error) {
		got.plans, err = a.store.ListTreatmentPlans(ctx, assessmentID)
		return
	})
	fetch("findings", func() (err error) {
		got.findings, err = a.store.ListFindings(ctx, assessmentID)
		return
	})
	fetch("incidents", func() (err error) {
		got.incidents, err = a.store.ListIncidents(ctx, assessmentID)
		return
	})
	// Geographic data is keyed by the site record, so the two fetches
	// run as one sequenced chain inside a single goroutine.
	fetch("geo", func() error {
		site, err := a.store.GetSite(ctx, assessmentID)
		if err != nil || site == nil {
			return err
		}
		got.geo, err = a.store.GetGeoData(ctx, site.ID)
		return err
	})
	wg.Wait()

	pkg := &riskmodel.ReportDataPackage{
		AssessmentID:           assessmentID,
		AssessmentType:         assessment.Type,
		GeneratedAt:            a.now().UTC(),
		Principal:              assessment.Principal,
		Facility:               assessment.Facility,
		ThreatDomains:          threatmap.Map(got.scenarios, got.controls),
		DocumentedIncidents:    got.incidents,
		Assets:                 got.assets,
		Recommendations:        recommendationsFrom(got.plans),
		RiskScores:             scoring.Score(got.scenarios),
		GeographicIntelligence: got.geo,
		ScoringSource:          riskmodel.ScoringGeneric,
	}
	for _, f := range got.findings {
		switch f.Kind {
		case riskmodel.FindingSiteWalk:
			pkg.SiteWalkFindings = append(pkg.SiteWalkFindings, f)
		default:
			pkg.InterviewFindings = append(pkg.InterviewFindings, f)
		}
	}

	if assessment.Type == riskmodel.AssessmentExecutiveProtection && a.epAssessor != nil {
		a.applyEPEnrichment(ctx, assessment, pkg)
	}
	return pkg, nil
}

// applyEPEnrichment invokes the EP collaborator and, when it yields
// data, overrides the generically assembled principal and risk scores.
// Richer AI-scored data always wins over the generic aggregate; the
// override happens exactly once, before any orchestration reads the
// package.
func (a *Assembler) applyEPEnrichment(ctx context.Context, assessment *riskmodel.Assessment, pkg *riskmodel.ReportDataPackage) {
	ep, err := a.epAssessor.Assess(ctx, assessment)
	if err != nil {
		a.logger.Warn("ep enrichment unavailable, keeping generic scoring",
			"assessment", assessment.ID, "error", err)
		return
	}
	if ep == nil {
		return
	}
	pkg.EPReportData = ep
	pkg.ScoringSource = riskmodel.ScoringEPEnriched
	if ep.Principal != nil {
		pkg.Principal = ep.Principal
	}
	pkg.RiskScores = scoresFromComponents(ep)
}

// scoresFromComponents derives the risk score block from EP component
// scores, replacing the scenario-based computation.
func scoresFromComponents(ep *riskmodel.EPReportData) riskmodel.RiskScoreData {
	overall := ep.OverallScore
	var total float64
	for _, cs := range ep.ComponentScores {
		total += cs.Composite
	}
	if overall == 0 && len(ep.ComponentScores) > 0 {
		overall = total / float64(len(ep.ComponentScores))
	}

	breakdown := make(map[string]riskmodel.CategoryScore, len(ep.ComponentScores))
	for _, cs := range ep.ComponentScores {
		weight := 0.0
		if total > 0 {
			weight = cs.Composite / total
		}
		breakdown[cs.Threat] = riskmodel.CategoryScore{Score: cs.Composite, Weight: weight}
	}

	return riskmodel.RiskScoreData{
		OverallScore:      overall,
		NormalizedScore:   math.Min(overall, 100),
		RiskLevel:         scoring.Level(overall),
		CategoryBreakdown: breakdown,
	}
}

// recommendationsFrom derives prioritized recommendations from
// treatment plans.
func recommendationsFrom(plans []riskmodel.TreatmentPlan) []riskmodel.Recommendation {
	if len(plans) == 0 {
		return nil
	}
	recs := make([]riskmodel.Recommendation, 0, len(plans))
	for _, p := range plans {
		recs = append(recs, riskmodel.Recommendation{
			ID:            p.ID,
			Title:         p.Title,
			Description:   p.Description,
			Priority:      riskmodel.PriorityFor(p.RiskReduction),
			RiskReduction: p.RiskReduction,
			CostBand:      p.CostBand,
			Timeline:      p.Timeline,
		})
	}
	return recs
}
