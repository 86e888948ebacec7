package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/alchemorsel-mealgen/backend/internal/model"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/types"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// RecipeService persists generated meals
type RecipeService struct {
	db *gorm.DB
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB) *RecipeService {
	return &RecipeService{db: db}
}

// SaveGeneratedMeal stores meal as a new recipe row
func (s *RecipeService) SaveGeneratedMeal(ctx context.Context, meal *types.GeneratedMealResult) (*model.Recipe, error) {
	if meal == nil {
		return nil, fmt.Errorf("meal is nil")
	}

	recipe := recipeFromMeal(meal)
	recipe.Embedding = GenerateEmbedding(embeddingText(recipe))

	if err := s.db.WithContext(ctx).Create(recipe).Error; err != nil {
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}
	return recipe, nil
}

// GetRecipe retrieves a recipe by ID
func (s *RecipeService) GetRecipe(ctx context.Context, id uuid.UUID) (*model.Recipe, error) {
	var recipe model.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return &recipe, nil
}

// ListRecipes returns the newest recipes first. limit is clamped to 1..MaxListLimit.
func (s *RecipeService) ListRecipes(ctx context.Context, limit int) ([]*model.Recipe, error) {
	limit = clampLimit(limit)

	var recipes []*model.Recipe
	if err := s.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, nil
}

// SearchRecipes ranks recipes by embedding distance to query on postgres and
// falls back to a case-insensitive name/description match elsewhere.
func (s *RecipeService) SearchRecipes(ctx context.Context, query string, limit int) ([]*model.Recipe, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.ListRecipes(ctx, limit)
	}
	limit = clampLimit(limit)

	db := s.db.WithContext(ctx)
	if s.db.Dialector.Name() == "postgres" {
		db = db.Clauses(clause.OrderBy{
			Expression: clause.Expr{SQL: "embedding <-> ?", Vars: []interface{}{GenerateEmbedding(query)}},
		})
	} else {
		like := "%" + strings.ToLower(query) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like).Order("created_at desc")
	}

	var recipes []*model.Recipe
	if err := db.Limit(limit).Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to search recipes: %w", err)
	}
	return recipes, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

func recipeFromMeal(meal *types.GeneratedMealResult) *model.Recipe {
	r := &model.Recipe{
		Name:                meal.MealName,
		Description:         meal.Recipe.RecipeDetails,
		OriginalIngredients: model.JSONBStringArray(meal.OriginalIngredients),
		Ingredients:         model.JSONBStringArray(meal.Recipe.IngredientsList),
		Equipment:           model.JSONBStringArray(meal.Recipe.EquipmentNeeded),
		Instructions:        model.JSONBStringArray(meal.Recipe.Instructions),
		ServingSuggestions:  model.JSONBStringArray(meal.Recipe.ServingSuggestions),
		ContentShape:        string(meal.Recipe.Shape),
	}
	if meal.HasImage() {
		r.ImageURL = *meal.DurableImageURL
	}
	if n := meal.Recipe.Nutrition; n != nil {
		r.Calories = n.Calories
		r.Protein = n.Protein
		r.Carbs = n.Carbohydrates
		r.Fat = n.Fat
	}
	return r
}
