package types

// RawContentShape identifies which layout the model used for its answer.
type RawContentShape string

const (
	StructuredJSON RawContentShape = "STRUCTURED_JSON"
	FencedJSON     RawContentShape = "FENCED_JSON"
	LegacyLines    RawContentShape = "LEGACY_LINES"
)

// Nutrition is the optional per-serving nutrition block of a generated recipe
type Nutrition struct {
	Calories      int    `json:"calories"`
	Protein       string `json:"protein"`
	Carbohydrates string `json:"carbohydrates"`
	Fat           string `json:"fat"`
}

// ParsedRecipe is the structured form of a chat completion answer.
// List fields are never nil.
type ParsedRecipe struct {
	MealName           string     `json:"meal_name"`
	IngredientsList    []string   `json:"ingredients_list"`
	EquipmentNeeded    []string   `json:"equipment_needed"`
	Instructions       []string   `json:"instructions"`
	ServingSuggestions []string   `json:"serving_suggestions"`
	Nutrition          *Nutrition `json:"nutritional_information,omitempty"`

	// RecipeDetails holds the free text of a legacy line-based answer.
	RecipeDetails string          `json:"recipe_details,omitempty"`
	Shape         RawContentShape `json:"content_shape"`
}

// GeneratedMealResult is the outcome of one successful generation run.
type GeneratedMealResult struct {
	MealName            string       `json:"meal_name"`
	OriginalIngredients []string     `json:"ingredients_used"`
	Recipe              ParsedRecipe `json:"recipe"`
	// DurableImageURL is nil when no image could be requested for the meal name.
	DurableImageURL *string `json:"image_url,omitempty"`
}

// HasImage reports whether the result carries a relocated image
func (r *GeneratedMealResult) HasImage() bool {
	return r.DurableImageURL != nil && *r.DurableImageURL != ""
}
