package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"niyamr/internal/domain"
)

// MockEvaluationService is a mock implementation of service.EvaluationService.
type MockEvaluationService struct {
	mock.Mock
}

func (m *MockEvaluationService) Evaluate(ctx context.Context, document []byte, rules []domain.Rule) (domain.EvaluationResult, error) {
	args := m.Called(ctx, document, rules)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.EvaluationResult), args.Error(1)
}

func (m *MockEvaluationService) EvaluateText(ctx context.Context, text string, rules []domain.Rule) (domain.EvaluationResult, error) {
	args := m.Called(ctx, text, rules)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.EvaluationResult), args.Error(1)
}
