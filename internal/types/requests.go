package types

import (
	"time"

	"github.com/google/uuid"
)

// GenerateMealRequest represents the request body for meal generation
type GenerateMealRequest struct {
	Ingredients []string `json:"ingredients"`
}

// GenerateMealResponse is returned by the generate-meal endpoint. DraftID is
// empty when the draft cache is unavailable.
type GenerateMealResponse struct {
	DraftID string               `json:"draft_id,omitempty"`
	Meal    *GeneratedMealResult `json:"meal"`
}

// MealDraft is a generated meal held in the draft cache until it is saved or expires
type MealDraft struct {
	ID        string               `json:"id"`
	CreatedAt time.Time            `json:"created_at"`
	Meal      *GeneratedMealResult `json:"meal"`
}

// SavedRecipeResponse is returned after a draft has been persisted
type SavedRecipeResponse struct {
	ID       uuid.UUID `json:"id"`
	DraftID  string    `json:"draft_id"`
	MealName string    `json:"meal_name"`
}

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Stage   string `json:"stage,omitempty"`
}
