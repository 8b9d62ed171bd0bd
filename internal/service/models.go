package service

import (
	"context"
	"fmt"

	"github.com/xiaot623/gogo/copilot/internal/adapter/llm"
	"github.com/xiaot623/gogo/copilot/internal/domain"
)

// ListModels returns the models the upstream provider offers.
func (s *Service) ListModels(ctx context.Context) ([]llm.Model, error) {
	models, err := s.llmClient.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamModel, err)
	}
	if models == nil {
		models = []llm.Model{}
	}
	return models, nil
}
