package memory

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/fairmed-lab/fairmed/pkg/domain/interfaces"
	"github.com/fairmed-lab/fairmed/pkg/domain/model"
	"github.com/fairmed-lab/fairmed/pkg/domain/types"
)

// ScenarioStore holds the baseline and mitigated records of every configured
// scenario. It is populated once by NewScenarioStore and never mutated, so
// lookups need no locking.
type ScenarioStore struct {
	entries map[types.ScenarioID]*model.Scenario
	order   []types.ScenarioID // preserves configuration order
}

var _ interfaces.ScenarioStore = &ScenarioStore{}

// NewScenarioStore validates the scenarios and builds the store. Any invalid
// scenario aborts construction so the process never serves partial data.
func NewScenarioStore(scenarios []*model.Scenario) (*ScenarioStore, error) {
	if len(scenarios) == 0 {
		return nil, goerr.Wrap(model.ErrInvalidScenario, "at least one scenario is required")
	}

	s := &ScenarioStore{
		entries: make(map[types.ScenarioID]*model.Scenario, len(scenarios)),
	}

	for i, scenario := range scenarios {
		if scenario == nil {
			return nil, goerr.Wrap(model.ErrInvalidScenario, "scenario is nil", goerr.V("index", i))
		}
		if err := scenario.Validate(); err != nil {
			return nil, goerr.Wrap(err, "scenario validation failed", goerr.V(model.ScenarioIDKey, scenario.ID))
		}
		if _, exists := s.entries[scenario.ID]; exists {
			return nil, goerr.Wrap(model.ErrInvalidScenario, "duplicate scenario ID", goerr.V(model.ScenarioIDKey, scenario.ID))
		}

		stored := &model.Scenario{
			ID:                 scenario.ID,
			Baseline:           scenario.Baseline.Clone(),
			Mitigated:          scenario.Mitigated.Clone(),
			ImprovementMessage: scenario.ImprovementMessage,
		}
		stored.Baseline.Mitigated = false
		stored.Baseline.Improvement = nil
		stored.Mitigated.Mitigated = true

		s.entries[scenario.ID] = stored
		s.order = append(s.order, scenario.ID)
	}

	return s, nil
}

func (s *ScenarioStore) lookup(id types.ScenarioID) (*model.Scenario, error) {
	scenario, ok := s.entries[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrUnknownScenario, "scenario not configured",
			goerr.V(model.ScenarioIDKey, id))
	}
	return scenario, nil
}

// GetBaseline returns a copy of the scenario's record before mitigation
func (s *ScenarioStore) GetBaseline(ctx context.Context, id types.ScenarioID) (*model.AnalysisResult, error) {
	scenario, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return scenario.Baseline.Clone(), nil
}

// GetMitigated returns a copy of the scenario's record after mitigation,
// including the improvement over the baseline
func (s *ScenarioStore) GetMitigated(ctx context.Context, id types.ScenarioID) (*model.AnalysisResult, error) {
	scenario, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	result := scenario.Mitigated.Clone()
	result.Improvement = scenario.Improvement()
	return result, nil
}

// List returns summaries of all scenarios in configuration order
func (s *ScenarioStore) List(ctx context.Context) []*model.ScenarioSummary {
	result := make([]*model.ScenarioSummary, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.entries[id].Summary())
	}
	return result
}
