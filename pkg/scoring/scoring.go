// Package scoring computes aggregate risk scores from assessment
// scenarios. All functions are pure: the same scenario set always
// yields the same RiskScoreData.
package scoring

import (
	"math"

	"github.com/riskforge/riskforge/pkg/riskmodel"
)

// Scale constants for scenario inputs.
const (
	// scaleMidpoint substitutes for a missing likelihood or impact.
	scaleMidpoint = 3.0
	// riskMultiplier maps the 1-25 likelihood x impact product onto
	// the 0-125 reporting range the level thresholds are defined on.
	riskMultiplier = 5.0
	// normalizedCap bounds the normalized score for display.
	normalizedCap = 100.0
)

// Level classifies a raw risk score. Thresholds are exclusive lower
// bounds: a score of exactly 100 is high, 100.01 is critical.
func Level(raw float64) riskmodel.RiskLevel {
	switch {
	case raw > 100:
		return riskmodel.RiskCritical
	case raw > 75:
		return riskmodel.RiskHigh
	case raw > 50:
		return riskmodel.RiskMedium
	default:
		return riskmodel.RiskLow
	}
}

// InherentRisk returns the scenario's inherent risk, computing it from
// likelihood and impact when the recorded value is unset. Missing
// likelihood or impact defaults to the scale midpoint.
func InherentRisk(s riskmodel.Scenario) float64 {
	if s.InherentRisk > 0 {
		return s.InherentRisk
	}
	likelihood := s.Likelihood
	if likelihood == 0 {
		likelihood = scaleMidpoint
	}
	impact := s.Impact
	if impact == 0 {
		impact = scaleMidpoint
	}
	return likelihood * impact * riskMultiplier
}

// Score aggregates scenarios into the report's risk score block.
// Zero scenarios yields a fully zeroed result at level low.
func Score(scenarios []riskmodel.Scenario) riskmodel.RiskScoreData {
	if len(scenarios) == 0 {
		return riskmodel.RiskScoreData{RiskLevel: riskmodel.RiskLow}
	}

	type categoryAgg struct {
		total float64
		count int
	}
	byCategory := make(map[string]*categoryAgg)

	var totalInherent, totalResidual, totalEffectiveness float64
	for _, s := range scenarios {
		inherent := InherentRisk(s)
		totalInherent += inherent
		totalResidual += s.ResidualRisk
		totalEffectiveness += s.ControlEffectiveness

		agg := byCategory[s.ThreatType]
		if agg == nil {
			agg = &categoryAgg{}
			byCategory[s.ThreatType] = agg
		}
		agg.total += inherent
		agg.count++
	}

	n := float64(len(scenarios))
	overall := totalInherent / n

	breakdown := make(map[string]riskmodel.CategoryScore, len(byCategory))
	for threatType, agg := range byCategory {
		weight := 0.0
		if totalInherent > 0 {
			weight = agg.total / totalInherent
		}
		breakdown[threatType] = riskmodel.CategoryScore{
			Score:  agg.total / float64(agg.count),
			Weight: weight,
		}
	}

	return riskmodel.RiskScoreData{
		OverallScore:         round2(overall),
		NormalizedScore:      round2(math.Min(overall, normalizedCap)),
		RiskLevel:            Level(overall),
		CategoryBreakdown:    breakdown,
		ControlEffectiveness: round2(totalEffectiveness / n),
		ResidualRisk:         round2(totalResidual / n),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
