package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/pageza/alchemorsel-mealgen/backend/internal/model"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/types"
)

// MealGenerator runs the generation pipeline
type MealGenerator interface {
	GenerateMeal(ctx context.Context, ingredients []string) (*types.GeneratedMealResult, error)
}

// DraftStore holds generated meals between generation and save
type DraftStore interface {
	SaveDraft(ctx context.Context, meal *types.GeneratedMealResult) (*types.MealDraft, error)
	GetDraft(ctx context.Context, id string) (*types.MealDraft, error)
	DeleteDraft(ctx context.Context, id string) error
}

// RecipeStore defines the interface for saved recipe operations
type RecipeStore interface {
	SaveGeneratedMeal(ctx context.Context, meal *types.GeneratedMealResult) (*model.Recipe, error)
	GetRecipe(ctx context.Context, id uuid.UUID) (*model.Recipe, error)
	ListRecipes(ctx context.Context, limit int) ([]*model.Recipe, error)
	SearchRecipes(ctx context.Context, query string, limit int) ([]*model.Recipe, error)
}

var (
	_ MealGenerator  = (*GenerationService)(nil)
	_ DraftStore     = (*DraftService)(nil)
	_ RecipeStore    = (*RecipeService)(nil)
	_ ImageRelocator = (*S3Relocator)(nil)
)
