// Package mocks holds testify mocks of the service collaborators.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/alchemorsel-mealgen/backend/internal/ai"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/types"
)

// MockChatCompleter is a mock of the chat completion client
type MockChatCompleter struct {
	mock.Mock
}

func (m *MockChatCompleter) Complete(ctx context.Context, prompt, systemMessage string, params ai.ModelParams) ([]byte, error) {
	args := m.Called(ctx, prompt, systemMessage, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockImageGenerator is a mock of the image generation client
type MockImageGenerator struct {
	mock.Mock
}

func (m *MockImageGenerator) Generate(ctx context.Context, prompt string, count int, size string) ([]byte, error) {
	args := m.Called(ctx, prompt, count, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockImageRelocator is a mock of the durable image storage
type MockImageRelocator struct {
	mock.Mock
}

func (m *MockImageRelocator) Relocate(ctx context.Context, sourceURL string) (string, error) {
	args := m.Called(ctx, sourceURL)
	return args.String(0), args.Error(1)
}

// MockMealGenerator is a mock of the generation pipeline
type MockMealGenerator struct {
	mock.Mock
}

func (m *MockMealGenerator) GenerateMeal(ctx context.Context, ingredients []string) (*types.GeneratedMealResult, error) {
	args := m.Called(ctx, ingredients)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.GeneratedMealResult), args.Error(1)
}
