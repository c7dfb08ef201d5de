package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/riskforge/riskforge/pkg/jsonutil"
	"github.com/riskforge/riskforge/pkg/riskmodel"
)

// GetAssessment loads the root assessment record. A missing row maps
// to riskmodel.NotFoundError, the only fatal lookup in assembly.
func (s *Store) GetAssessment(ctx context.Context, id string) (*riskmodel.Assessment, error) {
	const query = `
		SELECT id, type, title, client_org, created_at, principal, facility
		FROM assessments
		WHERE id = $1`

	var (
		a                   riskmodel.Assessment
		clientOrg           sql.NullString
		principal, facility []byte
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.Type, &a.Title, &clientOrg, &a.CreatedAt, &principal, &facility)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &riskmodel.NotFoundError{Kind: "assessment", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("store: get assessment %q: %w", id, err)
	}
	a.ClientOrg = clientOrg.String

	if len(principal) > 0 {
		a.Principal = &riskmodel.PrincipalProfile{}
		if err := jsonutil.Unmarshal(principal, a.Principal); err != nil {
			return nil, fmt.Errorf("store: assessment %q principal: %w", id, err)
		}
	}
	if len(facility) > 0 {
		a.Facility = &riskmodel.FacilityProfile{}
		if err := jsonutil.Unmarshal(facility, a.Facility); err != nil {
			return nil, fmt.Errorf("store: assessment %q facility: %w", id, err)
		}
	}
	return &a, nil
}

// ListScenarios returns the assessment's risk scenarios.
func (s *Store) ListScenarios(ctx context.Context, assessmentID string) ([]riskmodel.Scenario, error) {
	const query = `
		SELECT id, threat_type, description, likelihood, impact,
		       inherent_risk, residual_risk, risk_level,
		       vulnerabilities, control_effectiveness
		FROM scenarios
		WHERE assessment_id = $1
		ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("store: list scenarios: %w", err)
	}
	defer s.closeRows(rows, "scenarios")

	var out []riskmodel.Scenario
	for rows.Next() {
		var (
			sc    riskmodel.Scenario
			desc  sql.NullString
			level sql.NullString
		)
		if err := rows.Scan(&sc.ID, &sc.ThreatType, &desc, &sc.Likelihood, &sc.Impact,
			&sc.InherentRisk, &sc.ResidualRisk, &level,
			pq.Array(&sc.Vulnerabilities), &sc.ControlEffectiveness); err != nil {
			return nil, fmt.Errorf("store: scan scenario: %w", err)
		}
		sc.Description = desc.String
		sc.RiskLevel = level.String
		out = append(out, sc)
	}
	return out, rows.Err()
}

// ListControls returns the assessment's mitigating controls.
func (s *Store) ListControls(ctx context.Context, assessmentID string) ([]riskmodel.Control, error) {
	const query = `
		SELECT id, name, description, effectiveness, implementation_status
		FROM controls
		WHERE assessment_id = $1
		ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("store: list controls: %w", err)
	}
	defer s.closeRows(rows, "controls")

	var out []riskmodel.Control
	for rows.Next() {
		var (
			c      riskmodel.Control
			status sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Effectiveness, &status); err != nil {
			return nil, fmt.Errorf("store: scan control: %w", err)
		}
		c.ImplementationStatus = status.String
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListAssets returns the assessment's protected assets.
func (s *Store) ListAssets(ctx context.Context, assessmentID string) ([]riskmodel.Asset, error) {
	const query = `
		SELECT id, name, category, criticality, value
		FROM assets
		WHERE assessment_id = $1
		ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("store: list assets: %w", err)
	}
	defer s.closeRows(rows, "assets")

	var out []riskmodel.Asset
	for rows.Next() {
		var (
			a                     riskmodel.Asset
			category, criticality sql.NullString
			value                 sql.NullFloat64
		)
		if err := rows.Scan(&a.ID, &a.Name, &category, &criticality, &value); err != nil {
			return nil, fmt.Errorf("store: scan asset: %w", err)
		}
		a.Category = category.String
		a.Criticality = criticality.String
		a.Value = value.Float64
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListTreatmentPlans returns the assessment's planned treatments.
func (s *Store) ListTreatmentPlans(ctx context.Context, assessmentID string) ([]riskmodel.TreatmentPlan, error) {
	const query = `
		SELECT id, scenario_id, title, description, risk_reduction, cost_band, timeline
		FROM treatment_plans
		WHERE assessment_id = $1
		ORDER BY risk_reduction DESC`

	rows, err := s.db.QueryContext(ctx, query, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("store: list treatment plans: %w", err)
	}
	defer s.closeRows(rows, "treatment_plans")

	var out []riskmodel.TreatmentPlan
	for rows.Next() {
		var (
			p                              riskmodel.TreatmentPlan
			scenarioID, desc, cost, timing sql.NullString
		)
		if err := rows.Scan(&p.ID, &scenarioID, &p.Title, &desc, &p.RiskReduction, &cost, &timing); err != nil {
			return nil, fmt.Errorf("store: scan treatment plan: %w", err)
		}
		p.ScenarioID = scenarioID.String
		p.Description = desc.String
		p.CostBand = cost.String
		p.Timeline = timing.String
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListFindings returns interview and site-walk findings together; the
// assembler splits them by kind.
func (s *Store) ListFindings(ctx context.Context, assessmentID string) ([]riskmodel.Finding, error) {
	const query = `
		SELECT id, kind, description, severity, source, role, location, date
		FROM findings
		WHERE assessment_id = $1
		ORDER BY date DESC`

	rows, err := s.db.QueryContext(ctx, query, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("store: list findings: %w", err)
	}
	defer s.closeRows(rows, "findings")

	var out []riskmodel.Finding
	for rows.Next() {
		var (
			f                      riskmodel.Finding
			source, role, location sql.NullString
		)
		if err := rows.Scan(&f.ID, &f.Kind, &f.Description, &f.Severity, &source, &role, &location, &f.Date); err != nil {
			return nil, fmt.Errorf("store: scan finding: %w", err)
		}
		f.Source = source.String
		f.Role = role.String
		f.Location = location.String
		out = append(out, f)
	}
	return out, rows.Err()
}

// ListIncidents returns the assessment's documented incident history.
func (s *Store) ListIncidents(ctx context.Context, assessmentID string) ([]riskmodel.Incident, error) {
	const query = `
		SELECT id, type, description, severity, source, date
		FROM incidents
		WHERE assessment_id = $1
		ORDER BY date DESC`

	rows, err := s.db.QueryContext(ctx, query, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("store: list incidents: %w", err)
	}
	defer s.closeRows(rows, "incidents")

	var out []riskmodel.Incident
	for rows.Next() {
		var (
			in           riskmodel.Incident
			desc, source sql.NullString
		)
		if err := rows.Scan(&in.ID, &in.Type, &desc, &in.Severity, &source, &in.Date); err != nil {
			return nil, fmt.Errorf("store: scan incident: %w", err)
		}
		in.Description = desc.String
		in.Source = source.String
		out = append(out, in)
	}
	return out, rows.Err()
}

// GetSite returns the assessment's site record, or nil when none is
// recorded. The assembler treats a missing site as "no geographic
// context," not an error.
func (s *Store) GetSite(ctx context.Context, assessmentID string) (*riskmodel.Site, error) {
	const query = `
		SELECT id, assessment_id, address, latitude, longitude
		FROM sites
		WHERE assessment_id = $1`

	var site riskmodel.Site
	err := s.db.QueryRowContext(ctx, query, assessmentID).Scan(
		&site.ID, &site.AssessmentID, &site.Address, &site.Latitude, &site.Longitude)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get site for %q: %w", assessmentID, err)
	}
	return &site, nil
}

// GetGeoData returns the geographic intelligence keyed by site.
func (s *Store) GetGeoData(ctx context.Context, siteID string) (*riskmodel.GeographicIntelligence, error) {
	const query = `
		SELECT crime_index, incident_counts, points_of_interest, risk_context
		FROM geo_intelligence
		WHERE site_id = $1`

	var (
		geo          riskmodel.GeographicIntelligence
		counts, pois []byte
		riskContext  sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, siteID).Scan(&geo.CrimeIndex, &counts, &pois, &riskContext)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get geo data for site %q: %w", siteID, err)
	}
	geo.RiskContext = riskContext.String

	if len(counts) > 0 {
		if err := jsonutil.Unmarshal(counts, &geo.IncidentCounts); err != nil {
			return nil, fmt.Errorf("store: geo incident counts for site %q: %w", siteID, err)
		}
	}
	if len(pois) > 0 {
		if err := jsonutil.Unmarshal(pois, &geo.PointsOfInterest); err != nil {
			return nil, fmt.Errorf("store: geo points of interest for site %q: %w", siteID, err)
		}
	}
	return &geo, nil
}

// SaveReport persists a generated report as an immutable snapshot:
// the full report JSON plus the generation log and totals, keyed by
// the report id.
func (s *Store) SaveReport(ctx context.Context, report *riskmodel.GeneratedReport) error {
	snapshot, err := jsonutil.Marshal(report)
	if err != nil {
		return fmt.Errorf("store: marshal report %q: %w", report.ID, err)
	}
	log, err := jsonutil.Marshal(report.Log)
	if err != nil {
		return fmt.Errorf("store: marshal report log %q: %w", report.ID, err)
	}

	const query = `
		INSERT INTO generated_reports
			(id, recipe_id, assessment_id, generated_at, report, log, total_tokens, total_words)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = s.db.ExecContext(ctx, query,
		report.ID, report.RecipeID, report.AssessmentID, report.GeneratedAt,
		snapshot, log, report.TotalTokensUsed, report.TotalNarrativeWords)
	if err != nil {
		return fmt.Errorf("store: save report %q: %w", report.ID, err)
	}
	return nil
}
