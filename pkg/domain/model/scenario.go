package model

import "github.com/fairmed-lab/fairmed/pkg/domain/types"

// Scenario is one configured case study: a baseline analysis and the result
// presented after mitigation.
type Scenario struct {
	ID                 types.ScenarioID
	Baseline           *AnalysisResult
	Mitigated          *AnalysisResult
	ImprovementMessage string
}

// Improvement derives the before/after comparison from the two records
func (s *Scenario) Improvement() *Improvement {
	return &Improvement{
		BiasScoreChange:            round(s.Mitigated.OverallScore - s.Baseline.OverallScore),
		AccuracyDisparityReduction: round(s.Baseline.Metrics.StatisticalParity - s.Mitigated.Metrics.StatisticalParity),
		Message:                    s.ImprovementMessage,
	}
}

// Summary returns the listing entry for the scenario
func (s *Scenario) Summary() *ScenarioSummary {
	return &ScenarioSummary{
		ID:             s.ID,
		Title:          s.Baseline.Title,
		Description:    s.Baseline.Description,
		BaselineScore:  s.Baseline.OverallScore,
		MitigatedScore: s.Mitigated.OverallScore,
	}
}

// ScenarioSummary describes a configured scenario without its full records
type ScenarioSummary struct {
	ID             types.ScenarioID `json:"id"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	BaselineScore  float64          `json:"baseline_score"`
	MitigatedScore float64          `json:"mitigated_score"`
}

// HealthStatus is the payload of the health check
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
