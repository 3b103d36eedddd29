package interfaces

import (
	"context"

	"github.com/fairmed-lab/fairmed/pkg/domain/model"
	"github.com/fairmed-lab/fairmed/pkg/domain/types"
)

// ScenarioStore serves the fixed analysis records of each configured scenario.
// Implementations are read-only and safe for concurrent use.
type ScenarioStore interface {
	GetBaseline(ctx context.Context, id types.ScenarioID) (*model.AnalysisResult, error)
	GetMitigated(ctx context.Context, id types.ScenarioID) (*model.AnalysisResult, error)
	List(ctx context.Context) []*model.ScenarioSummary
}
