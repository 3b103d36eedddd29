package model

import (
	"math"

	"github.com/m-mizutani/goerr/v2"
)

// rateTolerance is how far a reported rate may drift from the rate implied by
// its confusion matrix
const rateTolerance = 0.05

// Validate checks the group's counts and rates
func (g DemographicGroup) Validate() error {
	if g.Name == "" {
		return goerr.Wrap(ErrInvalidGroup, "group name is required")
	}
	if g.SampleSize <= 0 {
		return goerr.Wrap(ErrInvalidGroup, "sample size must be positive",
			goerr.V(GroupKey, g.Name), goerr.V(ValueKey, g.SampleSize))
	}

	m := g.ConfusionMatrix
	if m.TN < 0 || m.FP < 0 || m.FN < 0 || m.TP < 0 {
		return goerr.Wrap(ErrInvalidGroup, "confusion matrix counts must be non-negative",
			goerr.V(GroupKey, g.Name), goerr.V(ValueKey, m))
	}
	if m.Total() != g.SampleSize {
		return goerr.Wrap(ErrInvalidGroup, "confusion matrix does not sum to sample size",
			goerr.V(GroupKey, g.Name), goerr.V(ValueKey, m.Total()), goerr.V(ExpectedKey, g.SampleSize))
	}

	rates := []struct {
		field    string
		reported float64
		num      int
		den      int
	}{
		{"accuracy", g.Accuracy, m.TP + m.TN, m.Total()},
		{"tpr", g.TPR, m.TP, m.TP + m.FN},
		{"fpr", g.FPR, m.FP, m.FP + m.TN},
		{"precision", g.Precision, m.TP, m.TP + m.FP},
	}
	for _, r := range rates {
		if r.reported < 0 || r.reported > 1 {
			return goerr.Wrap(ErrInvalidGroup, "rate must be between 0 and 1",
				goerr.V(GroupKey, g.Name), goerr.V(FieldKey, r.field), goerr.V(ValueKey, r.reported))
		}
		if r.den == 0 {
			continue
		}
		implied := float64(r.num) / float64(r.den)
		if math.Abs(implied-r.reported) > rateTolerance {
			return goerr.Wrap(ErrInvalidGroup, "rate is inconsistent with confusion matrix",
				goerr.V(GroupKey, g.Name), goerr.V(FieldKey, r.field),
				goerr.V(ValueKey, r.reported), goerr.V(ExpectedKey, implied))
		}
	}

	return nil
}

// Validate checks every group and that names are unique
func (g GroupSet) Validate() error {
	if len(g) < 2 {
		return goerr.Wrap(ErrInvalidGroup, "at least two groups are required", goerr.V(ValueKey, len(g)))
	}

	seen := make(map[string]bool, len(g))
	for _, group := range g {
		if err := group.Validate(); err != nil {
			return err
		}
		if seen[group.Name] {
			return goerr.Wrap(ErrInvalidGroup, "duplicate group name", goerr.V(GroupKey, group.Name))
		}
		seen[group.Name] = true
	}
	return nil
}

// Validate checks a single analysis record. Baseline records must carry at
// least one recommendation; mitigated records may have none.
func (r *AnalysisResult) Validate(mitigated bool) error {
	if r == nil {
		return goerr.Wrap(ErrInvalidRecord, "record is missing")
	}
	if r.Title == "" {
		return goerr.Wrap(ErrInvalidRecord, "title is required")
	}
	if r.OverallScore < 0 || r.OverallScore > 100 {
		return goerr.Wrap(ErrInvalidRecord, "overall score must be between 0 and 100",
			goerr.V(ValueKey, r.OverallScore))
	}
	if err := r.Groups.Validate(); err != nil {
		return goerr.Wrap(err, "invalid groups")
	}

	metrics := []struct {
		field string
		value float64
	}{
		{"statistical_parity", r.Metrics.StatisticalParity},
		{"equalized_odds_tpr", r.Metrics.EqualizedOddsTPR},
		{"equalized_odds_fpr", r.Metrics.EqualizedOddsFPR},
		{"predictive_parity", r.Metrics.PredictiveParity},
	}
	for _, m := range metrics {
		if m.value < 0 || m.value > 1 {
			return goerr.Wrap(ErrInvalidRecord, "fairness metric must be between 0 and 1",
				goerr.V(FieldKey, m.field), goerr.V(ValueKey, m.value))
		}
	}

	for i, flag := range r.Flags {
		if flag.Type == "" || flag.Message == "" {
			return goerr.Wrap(ErrInvalidRecord, "flag type and message are required", goerr.V("flag_index", i))
		}
		if !flag.Severity.IsValid() {
			return goerr.Wrap(ErrInvalidRecord, "invalid flag severity",
				goerr.V("flag_index", i), goerr.V(ValueKey, flag.Severity))
		}
	}

	if !mitigated && len(r.Recommendations) == 0 {
		return goerr.Wrap(ErrInvalidRecord, "baseline requires at least one recommendation")
	}
	for i, rec := range r.Recommendations {
		if rec.Title == "" {
			return goerr.Wrap(ErrInvalidRecord, "recommendation title is required", goerr.V("recommendation_index", i))
		}
		if !rec.Priority.IsValid() {
			return goerr.Wrap(ErrInvalidRecord, "invalid recommendation priority",
				goerr.V("recommendation_index", i), goerr.V(ValueKey, rec.Priority))
		}
	}

	return nil
}

// Validate checks both records of the scenario and that mitigation improves
// the fairness score
func (s *Scenario) Validate() error {
	if err := s.ID.Validate(); err != nil {
		return goerr.Wrap(ErrInvalidScenario, "invalid scenario ID", goerr.V(ScenarioIDKey, s.ID), goerr.V("reason", err.Error()))
	}

	if err := s.Baseline.Validate(false); err != nil {
		return goerr.Wrap(err, "invalid baseline record", goerr.V(ScenarioIDKey, s.ID))
	}
	if err := s.Mitigated.Validate(true); err != nil {
		return goerr.Wrap(err, "invalid mitigated record", goerr.V(ScenarioIDKey, s.ID))
	}

	for _, r := range []*AnalysisResult{s.Baseline, s.Mitigated} {
		if r.Scenario != s.ID {
			return goerr.Wrap(ErrInvalidScenario, "record scenario does not match scenario ID",
				goerr.V(ScenarioIDKey, s.ID), goerr.V(ValueKey, r.Scenario))
		}
	}

	baseNames := s.Baseline.Groups.Names()
	mitigatedNames := s.Mitigated.Groups.Names()
	if len(baseNames) != len(mitigatedNames) {
		return goerr.Wrap(ErrGroupMismatch, "group count differs",
			goerr.V(ScenarioIDKey, s.ID), goerr.V(ValueKey, len(mitigatedNames)), goerr.V(ExpectedKey, len(baseNames)))
	}
	for i := range baseNames {
		if baseNames[i] != mitigatedNames[i] {
			return goerr.Wrap(ErrGroupMismatch, "group differs",
				goerr.V(ScenarioIDKey, s.ID), goerr.V(ValueKey, mitigatedNames[i]), goerr.V(ExpectedKey, baseNames[i]))
		}
	}

	if s.Mitigated.OverallScore <= s.Baseline.OverallScore {
		return goerr.Wrap(ErrScoreNotImproved, "mitigation must raise the fairness score",
			goerr.V(ScenarioIDKey, s.ID),
			goerr.V("baseline_score", s.Baseline.OverallScore),
			goerr.V("mitigated_score", s.Mitigated.OverallScore))
	}

	return nil
}
