package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/pageza/alchemorsel-mealgen/backend/internal/model"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/types"
)

// MockDraftStore is a mock implementation of the draft cache
type MockDraftStore struct {
	mock.Mock
}

func (m *MockDraftStore) SaveDraft(ctx context.Context, meal *types.GeneratedMealResult) (*types.MealDraft, error) {
	args := m.Called(ctx, meal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.MealDraft), args.Error(1)
}

func (m *MockDraftStore) GetDraft(ctx context.Context, id string) (*types.MealDraft, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.MealDraft), args.Error(1)
}

func (m *MockDraftStore) DeleteDraft(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockRecipeStore is a mock implementation of the recipe store
type MockRecipeStore struct {
	mock.Mock
}

func (m *MockRecipeStore) SaveGeneratedMeal(ctx context.Context, meal *types.GeneratedMealResult) (*model.Recipe, error) {
	args := m.Called(ctx, meal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recipe), args.Error(1)
}

func (m *MockRecipeStore) GetRecipe(ctx context.Context, id uuid.UUID) (*model.Recipe, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recipe), args.Error(1)
}

func (m *MockRecipeStore) ListRecipes(ctx context.Context, limit int) ([]*model.Recipe, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Recipe), args.Error(1)
}

func (m *MockRecipeStore) SearchRecipes(ctx context.Context, query string, limit int) ([]*model.Recipe, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Recipe), args.Error(1)
}
