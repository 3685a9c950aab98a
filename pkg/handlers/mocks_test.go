package handlers

import (
	"context"

	"github.com/ekaya-inc/b1-query-assistant/pkg/models"
	"github.com/ekaya-inc/b1-query-assistant/pkg/services"
)

type mockQueryService struct {
	processFunc      func(ctx context.Context, question string, executeQuery bool) (*models.ResultBundle, error)
	executionEnabled bool
	calls            int
}

func (m *mockQueryService) ProcessQuery(ctx context.Context, question string, executeQuery bool) (*models.ResultBundle, error) {
	m.calls++
	return m.processFunc(ctx, question, executeQuery)
}

func (m *mockQueryService) ExecutionEnabled() bool {
	return m.executionEnabled
}

var _ services.QueryService = (*mockQueryService)(nil)
