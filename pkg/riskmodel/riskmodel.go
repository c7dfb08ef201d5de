// Package riskmodel defines the domain types shared across the report
// assembly pipeline: raw assessment records, the assembled report data
// package, and the generated report that downstream renderers consume.
//
// Every type here is a value object: built once, never mutated after
// construction. Transformations produce new values.
package riskmodel

import "time"

// AssessmentType identifies the kind of assessment a report covers.
type AssessmentType string

const (
	AssessmentExecutiveProtection AssessmentType = "executive-protection"
	AssessmentOfficeBuilding      AssessmentType = "office-building"
	AssessmentRetailStore         AssessmentType = "retail-store"
	AssessmentWarehouse           AssessmentType = "warehouse"
	AssessmentDataCenter          AssessmentType = "data-center"
	AssessmentManufacturing       AssessmentType = "manufacturing"
)

// RiskLevel is the discrete classification of a numeric risk score.
type RiskLevel string

const (
	RiskCritical RiskLevel = "critical"
	RiskHigh     RiskLevel = "high"
	RiskMedium   RiskLevel = "medium"
	RiskLow      RiskLevel = "low"
)

// Severity grades evidentiary records (findings, incidents).
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// PriorityBucket is the implementation-priority bucket of a recommendation.
type PriorityBucket string

const (
	PriorityImmediate  PriorityBucket = "immediate"
	PriorityShortTerm  PriorityBucket = "short-term"
	PriorityMediumTerm PriorityBucket = "medium-term"
	PriorityLongTerm   PriorityBucket = "long-term"
)

// PriorityFor buckets a numeric risk-reduction/effectiveness value.
// Thresholds: ≥80 immediate, ≥60 short-term, ≥40 medium-term, else long-term.
func PriorityFor(reduction float64) PriorityBucket {
	switch {
	case reduction >= 80:
		return PriorityImmediate
	case reduction >= 60:
		return PriorityShortTerm
	case reduction >= 40:
		return PriorityMediumTerm
	default:
		return PriorityLongTerm
	}
}

// Assessment is the root record a report is generated for.
type Assessment struct {
	ID        string         `json:"id"`
	Type      AssessmentType `json:"type"`
	Title     string         `json:"title"`
	ClientOrg string         `json:"client_org,omitempty"`
	CreatedAt time.Time      `json:"created_at"`

	// Exactly one of these is populated, depending on Type.
	Principal *PrincipalProfile `json:"principal,omitempty"`
	Facility  *FacilityProfile  `json:"facility,omitempty"`
}

// Scenario is a single risk scenario attached to an assessment.
// Likelihood and Impact use a 1-5 scale; InherentRisk and ResidualRisk
// use the 0-125 reporting range (likelihood x impact x 5).
type Scenario struct {
	ID                   string   `json:"id"`
	ThreatType           string   `json:"threat_type"`
	Description          string   `json:"description,omitempty"`
	Likelihood           float64  `json:"likelihood"`
	Impact               float64  `json:"impact"`
	InherentRisk         float64  `json:"inherent_risk"`
	ResidualRisk         float64  `json:"residual_risk"`
	RiskLevel            string   `json:"risk_level,omitempty"` // raw label as recorded (e.g. "Extreme")
	Vulnerabilities      []string `json:"vulnerabilities,omitempty"`
	ControlEffectiveness float64  `json:"control_effectiveness"` // 0-100
}

// Control is a mitigating control recorded against an assessment.
type Control struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	Description          string  `json:"description"`
	Effectiveness        float64 `json:"effectiveness"` // 0-100
	ImplementationStatus string  `json:"implementation_status,omitempty"`
}

// Asset is a protected asset in scope for the assessment.
type Asset struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category,omitempty"`
	Criticality string  `json:"criticality,omitempty"`
	Value       float64 `json:"value,omitempty"`
}

// TreatmentPlan is a planned risk treatment; recommendations derive from it.
type TreatmentPlan struct {
	ID            string  `json:"id"`
	ScenarioID    string  `json:"scenario_id,omitempty"`
	Title         string  `json:"title"`
	Description   string  `json:"description,omitempty"`
	RiskReduction float64 `json:"risk_reduction"` // 0-100
	CostBand      string  `json:"cost_band,omitempty"`
	Timeline      string  `json:"timeline,omitempty"`
}

// FindingKind distinguishes where a finding was collected.
type FindingKind string

const (
	FindingInterview FindingKind = "interview"
	FindingSiteWalk  FindingKind = "site-walk"
)

// Finding is a source-attributed observation from interviews or site walks.
type Finding struct {
	ID          string      `json:"id"`
	Kind        FindingKind `json:"kind"`
	Description string      `json:"description"`
	Severity    Severity    `json:"severity"`
	Source      string      `json:"source,omitempty"` // person or team
	Role        string      `json:"role,omitempty"`
	Location    string      `json:"location,omitempty"`
	Date        time.Time   `json:"date"`
}

// Incident is a documented historical security incident.
type Incident struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Severity    Severity  `json:"severity"`
	Source      string    `json:"source,omitempty"`
	Date        time.Time `json:"date"`
}

// Recommendation is a prioritized remediation derived from a treatment plan.
type Recommendation struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description,omitempty"`
	Priority      PriorityBucket `json:"priority"`
	RiskReduction float64        `json:"risk_reduction"`
	CostBand      string         `json:"cost_band,omitempty"`
	Timeline      string         `json:"timeline,omitempty"`
}

// ThreatDomain aggregates many scenarios into one taxonomy-level finding.
type ThreatDomain struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Category            string    `json:"category"`
	Likelihood          float64   `json:"likelihood"` // running max across scenarios
	Impact              float64   `json:"impact"`     // running max across scenarios
	RiskScore           float64   `json:"risk_score"` // running sum across scenarios
	Priority            RiskLevel `json:"priority"`
	MitigatingControls  []string  `json:"mitigating_controls,omitempty"`
	Vulnerabilities     []string  `json:"vulnerabilities,omitempty"`
	HistoricalIncidents int       `json:"historical_incidents"`
	TrendDirection      string    `json:"trend_direction,omitempty"`
}

// CategoryScore is the per-threat-type slice of the risk breakdown.
type CategoryScore struct {
	Score  float64 `json:"score"`  // mean inherent risk for the category
	Weight float64 `json:"weight"` // category share of the total, 0-1
}

// RiskScoreData is the aggregate scoring block of a report data package.
type RiskScoreData struct {
	OverallScore         float64                  `json:"overall_score"`
	NormalizedScore      float64                  `json:"normalized_score"` // capped at 100
	RiskLevel            RiskLevel                `json:"risk_level"`
	CategoryBreakdown    map[string]CategoryScore `json:"category_breakdown,omitempty"`
	ControlEffectiveness float64                  `json:"control_effectiveness"`
	ResidualRisk         float64                  `json:"residual_risk"`
}

// PrincipalProfile describes the protected individual for
// executive-protection assessments.
type PrincipalProfile struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Title           string   `json:"title,omitempty"`
	Organization    string   `json:"organization,omitempty"`
	PublicExposure  string   `json:"public_exposure,omitempty"`
	TravelFrequency string   `json:"travel_frequency,omitempty"`
	KnownThreats    []string `json:"known_threats,omitempty"`
}

// FacilityProfile describes the assessed site for facility assessments.
type FacilityProfile struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Address        string `json:"address,omitempty"`
	FacilityType   string `json:"facility_type,omitempty"`
	SquareFootage  int    `json:"square_footage,omitempty"`
	OccupantCount  int    `json:"occupant_count,omitempty"`
	OperatingHours string `json:"operating_hours,omitempty"`
}

// Site is the physical location record geographic intelligence is keyed by.
type Site struct {
	ID           string  `json:"id"`
	AssessmentID string  `json:"assessment_id"`
	Address      string  `json:"address"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

// PointOfInterest is a nearby location relevant to site risk context.
type PointOfInterest struct {
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	DistanceKm float64 `json:"distance_km"`
}

// GeographicIntelligence aggregates area crime and incident context plus a
// synthesized prose summary.
type GeographicIntelligence struct {
	CrimeIndex       float64           `json:"crime_index"`
	IncidentCounts   map[string]int    `json:"incident_counts,omitempty"`
	PointsOfInterest []PointOfInterest `json:"points_of_interest,omitempty"`
	RiskContext      string            `json:"risk_context,omitempty"`
}

// EPComponentScore is one threat's T x V x I x E scoring record with its
// supporting evidence trail.
type EPComponentScore struct {
	Threat             string   `json:"threat"`
	ThreatScore        float64  `json:"threat_score"`        // T, 1-5
	VulnerabilityScore float64  `json:"vulnerability_score"` // V, 1-5
	ImpactScore        float64  `json:"impact_score"`        // I, 1-5
	ExposureScore      float64  `json:"exposure_score"`      // E, 1-5
	Composite          float64  `json:"composite"`           // T*V*I*E scaled to 0-125
	Evidence           []string `json:"evidence,omitempty"`
}

// EPSectionSummary is the completion/risk-indicator rollup for one section
// of an enriched executive-protection assessment.
type EPSectionSummary struct {
	Section        string   `json:"section"`
	Completion     float64  `json:"completion"` // 0-100
	RiskIndicators []string `json:"risk_indicators,omitempty"`
}

// EPPrioritizedControl is a control ranked by the enriched assessment.
type EPPrioritizedControl struct {
	Name      string    `json:"name"`
	Priority  RiskLevel `json:"priority"`
	Rationale string    `json:"rationale,omitempty"`
}

// EPReportData is the richer sub-package produced by the external
// AI-risk-assessment collaborator for executive-protection assessments.
// When present it takes precedence over generically computed fields.
type EPReportData struct {
	Principal           *PrincipalProfile      `json:"principal,omitempty"`
	ComponentScores     []EPComponentScore     `json:"component_scores"`
	SectionSummaries    []EPSectionSummary     `json:"section_summaries,omitempty"`
	PrioritizedControls []EPPrioritizedControl `json:"prioritized_controls,omitempty"`
	OverallScore        float64                `json:"overall_score"`
}

// ScoringSource tags which scoring strategy produced a package's
// risk scores, so readers branch on the tag instead of probing for
// optional fields.
type ScoringSource string

const (
	// ScoringGeneric means scores came from the scenario-based calculator.
	ScoringGeneric ScoringSource = "generic"
	// ScoringEPEnriched means scores came from the EP collaborator's
	// component scores and override the generic computation.
	ScoringEPEnriched ScoringSource = "ep-enriched"
)

// ReportDataPackage is the unified, immutable input to report generation.
// It is assembled fresh for every generation request; nothing mutates it
// once orchestration begins.
type ReportDataPackage struct {
	AssessmentID   string         `json:"assessment_id"`
	AssessmentType AssessmentType `json:"assessment_type"`
	GeneratedAt    time.Time      `json:"generated_at"`

	Principal *PrincipalProfile `json:"principal,omitempty"`
	Facility  *FacilityProfile  `json:"facility,omitempty"`

	// ThreatDomains holds only domains with RiskScore > 0.
	ThreatDomains []ThreatDomain `json:"threat_domains,omitempty"`

	DocumentedIncidents []Incident       `json:"documented_incidents,omitempty"`
	InterviewFindings   []Finding        `json:"interview_findings,omitempty"`
	SiteWalkFindings    []Finding        `json:"site_walk_findings,omitempty"`
	Assets              []Asset          `json:"assets,omitempty"`
	Recommendations     []Recommendation `json:"recommendations,omitempty"`

	RiskScores             RiskScoreData           `json:"risk_scores"`
	GeographicIntelligence *GeographicIntelligence `json:"geographic_intelligence,omitempty"`
	EPReportData           *EPReportData           `json:"ep_report_data,omitempty"`
	ScoringSource          ScoringSource           `json:"scoring_source"`
}
