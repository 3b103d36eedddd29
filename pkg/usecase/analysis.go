package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/fairmed-lab/fairmed/pkg/domain/interfaces"
	"github.com/fairmed-lab/fairmed/pkg/domain/model"
	"github.com/fairmed-lab/fairmed/pkg/domain/types"
	"github.com/fairmed-lab/fairmed/pkg/utils/logging"
)

const healthMessage = "FairMed API is running"

// AnalyzeInput is the request of Analyze
type AnalyzeInput struct {
	Scenario  types.ScenarioID
	UseSample bool
}

// MitigateInput is the request of Mitigate. Mitigation names the strategy the
// user picked; every scenario has a single pre-computed outcome so it is not
// branched on.
type MitigateInput struct {
	Scenario   types.ScenarioID
	Mitigation string
}

// AnalysisUseCase serves analysis and mitigation results from the scenario
// store. It keeps no state between requests.
type AnalysisUseCase struct {
	store interfaces.ScenarioStore
}

func NewAnalysisUseCase(store interfaces.ScenarioStore) *AnalysisUseCase {
	return &AnalysisUseCase{
		store: store,
	}
}

// Health reports that the service is accepting requests. It never fails.
func (uc *AnalysisUseCase) Health(ctx context.Context) *model.HealthStatus {
	return &model.HealthStatus{
		Status:  "healthy",
		Message: healthMessage,
	}
}

// Analyze returns the baseline bias analysis of a scenario
func (uc *AnalysisUseCase) Analyze(ctx context.Context, input AnalyzeInput) (*model.AnalysisResult, error) {
	if err := validateScenarioID(input.Scenario); err != nil {
		return nil, err
	}

	result, err := uc.store.GetBaseline(ctx, input.Scenario)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get baseline analysis", goerr.V(ScenarioKey, input.Scenario))
	}

	if !input.UseSample {
		return nil, goerr.Wrap(ErrLiveDataUnsupported, "use_sample must be true", goerr.V(ScenarioKey, input.Scenario))
	}

	logging.From(ctx).Debug("served baseline analysis",
		"scenario", input.Scenario,
		"overall_score", result.OverallScore,
	)
	return result, nil
}

// Mitigate returns the analysis of a scenario after mitigation, including the
// improvement over its baseline
func (uc *AnalysisUseCase) Mitigate(ctx context.Context, input MitigateInput) (*model.AnalysisResult, error) {
	if err := validateScenarioID(input.Scenario); err != nil {
		return nil, err
	}

	result, err := uc.store.GetMitigated(ctx, input.Scenario)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get mitigated analysis",
			goerr.V(ScenarioKey, input.Scenario),
			goerr.V(MitigationKey, input.Mitigation),
		)
	}

	logging.From(ctx).Debug("served mitigated analysis",
		"scenario", input.Scenario,
		"mitigation", input.Mitigation,
		"overall_score", result.OverallScore,
	)
	return result, nil
}

// ListScenarios returns a summary of every configured scenario
func (uc *AnalysisUseCase) ListScenarios(ctx context.Context) []*model.ScenarioSummary {
	return uc.store.List(ctx)
}

// validateScenarioID rejects an absent scenario; any other string is left to
// the store lookup
func validateScenarioID(id types.ScenarioID) error {
	if id == "" {
		return goerr.Wrap(ErrInvalidRequest, "scenario is required")
	}
	return nil
}
