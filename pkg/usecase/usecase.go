package usecase

import (
	"github.com/fairmed-lab/fairmed/pkg/domain/interfaces"
)

type UseCases struct {
	store    interfaces.ScenarioStore
	Analysis *AnalysisUseCase
}

func New(store interfaces.ScenarioStore) *UseCases {
	return &UseCases{
		store:    store,
		Analysis: NewAnalysisUseCase(store),
	}
}
