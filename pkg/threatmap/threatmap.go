// Package threatmap classifies risk scenarios into a fixed eight-domain
// threat taxonomy and aggregates them into per-domain findings for the
// report data package.
package threatmap

import (
	"strings"

	"github.com/riskforge/riskforge/pkg/riskmodel"
	"github.com/riskforge/riskforge/pkg/scoring"
)

// Taxonomy domain identifiers, in presentation order.
const (
	DomainWorkplaceViolence  = "workplace-violence"
	DomainTheftFraud         = "theft-fraud"
	DomainTerrorism          = "terrorism"
	DomainCivilUnrest        = "civil-unrest"
	DomainNaturalDisasters   = "natural-disasters"
	DomainCyberPhysical      = "cyber-physical"
	DomainExecutiveTargeting = "executive-targeting"
	DomainSupplyChain        = "supply-chain"
)

// domainDef is one taxonomy entry.
type domainDef struct {
	id       string
	name     string
	category string
}

// taxonomy fixes the domain set and its output order.
var taxonomy = []domainDef{
	{DomainWorkplaceViolence, "Workplace Violence", "personnel"},
	{DomainTheftFraud, "Theft & Fraud", "property"},
	{DomainTerrorism, "Terrorism", "external"},
	{DomainCivilUnrest, "Civil Unrest", "external"},
	{DomainNaturalDisasters, "Natural Disasters", "environmental"},
	{DomainCyberPhysical, "Cyber-Physical", "technology"},
	{DomainExecutiveTargeting, "Executive Targeting", "personnel"},
	{DomainSupplyChain, "Supply Chain", "operational"},
}

// classifierRule maps threat-type keywords to a domain. Rules are
// evaluated in order; the first keyword hit wins.
type classifierRule struct {
	keywords []string
	domainID string
}

// classifierRules is the dispatch table. Order matters: earlier rules
// shadow later ones for overlapping vocabulary ("armed robbery" is
// workplace violence, not theft). A future control-to-domain matcher
// would hang additional dispatch data off these rules.
var classifierRules = []classifierRule{
	{[]string{"violence", "assault", "shooter", "shooting", "armed", "hostage", "harassment", "threat of harm"}, DomainWorkplaceViolence},
	{[]string{"terror", "bomb", "explosive", "ied", "chemical attack"}, DomainTerrorism},
	{[]string{"protest", "riot", "unrest", "demonstration", "looting"}, DomainCivilUnrest},
	{[]string{"flood", "earthquake", "hurricane", "tornado", "wildfire", "storm", "weather", "seismic"}, DomainNaturalDisasters},
	{[]string{"cyber", "scada", "access control system", "camera", "network", "ransomware", "surveillance system"}, DomainCyberPhysical},
	{[]string{"executive", "principal", "kidnap", "stalking", "doxxing", "vip"}, DomainExecutiveTargeting},
	{[]string{"supply", "vendor", "logistics", "shipment", "cargo", "third-party", "third party"}, DomainSupplyChain},
	{[]string{"theft", "fraud", "burglary", "robbery", "shoplifting", "embezzlement", "pilferage"}, DomainTheftFraud},
}

// Classify returns the taxonomy domain id for a scenario threat type.
// Unmatched threat types default to theft-fraud.
func Classify(threatType string) string {
	lower := strings.ToLower(threatType)
	for _, rule := range classifierRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.domainID
			}
		}
	}
	return DomainTheftFraud
}

// priorityFor normalizes a scenario's recorded risk-level label to the
// taxonomy priority scale.
func priorityFor(label string) riskmodel.RiskLevel {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "extreme", "critical":
		return riskmodel.RiskCritical
	case "high":
		return riskmodel.RiskHigh
	case "medium", "moderate":
		return riskmodel.RiskMedium
	default:
		return riskmodel.RiskLow
	}
}

// Map folds scenarios into the fixed taxonomy and attaches control
// descriptions to every domain that accumulated risk. Domains with a
// zero risk score are dropped; the rest come back in taxonomy order.
func Map(scenarios []riskmodel.Scenario, controls []riskmodel.Control) []riskmodel.ThreatDomain {
	domains := make(map[string]*riskmodel.ThreatDomain, len(taxonomy))
	for _, def := range taxonomy {
		domains[def.id] = &riskmodel.ThreatDomain{
			ID:       def.id,
			Name:     def.name,
			Category: def.category,
			Priority: riskmodel.RiskLow,
		}
	}

	for _, s := range scenarios {
		d := domains[Classify(s.ThreatType)]
		if s.Likelihood > d.Likelihood {
			d.Likelihood = s.Likelihood
		}
		if s.Impact > d.Impact {
			d.Impact = s.Impact
		}
		d.RiskScore += scoring.InherentRisk(s)
		d.HistoricalIncidents++
		d.Vulnerabilities = append(d.Vulnerabilities, s.Vulnerabilities...)
		// Pure last-write: an unlabeled scenario normalizes to low and
		// overwrites whatever an earlier scenario set.
		d.Priority = priorityFor(s.RiskLevel)
	}

	// Control-to-domain matching is deliberately coarse: every control
	// mitigates every domain that carries risk.
	var mitigating []string
	for _, c := range controls {
		if c.Description != "" {
			mitigating = append(mitigating, c.Description)
		} else {
			mitigating = append(mitigating, c.Name)
		}
	}

	out := make([]riskmodel.ThreatDomain, 0, len(taxonomy))
	for _, def := range taxonomy {
		d := domains[def.id]
		if d.RiskScore == 0 {
			continue
		}
		d.MitigatingControls = append(d.MitigatingControls, mitigating...)
		out = append(out, *d)
	}
	return out
}
