// Package prompt builds the text sent to the generation services.
// Every function here is pure.
package prompt

import (
	"fmt"
	"strings"
)

const recipeTemplate = `You are an experienced chef who writes reliable, well tested recipes.
Write one recipe with exact measurements, clear numbered steps and nutrition values per serving.
Give the dish a creative name that reflects its ingredients and style.

Use these ingredients: %s
Respond with a single JSON object and nothing else, using exactly this structure:
{
    "mealName": "name of the dish",
    "ingredientsList": ["ingredient with measurement"],
    "equipmentNeeded": ["required equipment"],
    "instructions": ["one step per entry"],
    "servingSuggestions": ["serving suggestion"],
    "nutritionalInformation": {
        "calories": 0,
        "protein": "grams per serving",
        "carbohydrates": "grams per serving",
        "fat": "grams per serving"
    }
}`

const imageTemplate = "Professional food photography of %s, plated on a ceramic dish, restaurant quality, soft natural light, high resolution"

// maxImagePromptLength keeps image prompts under the provider's prompt limit
const maxImagePromptLength = 900

// BuildRecipePrompt joins the ingredients in order and places them in the recipe template.
func BuildRecipePrompt(ingredients []string) string {
	return fmt.Sprintf(recipeTemplate, strings.Join(ingredients, ", "))
}

// BuildImagePrompt places the sanitized meal name in the photography template.
// A blank name still yields a prompt; callers decide whether to use it.
func BuildImagePrompt(mealName string) string {
	p := fmt.Sprintf(imageTemplate, SanitizeMealName(mealName))
	if len(p) > maxImagePromptLength {
		p = p[:maxImagePromptLength]
	}
	return p
}

// SanitizeMealName drops every character outside [A-Za-z0-9 -], collapses
// runs of spaces and trims the result.
func SanitizeMealName(mealName string) string {
	var b strings.Builder
	b.Grow(len(mealName))
	lastSpace := false
	for _, r := range mealName {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
			lastSpace = false
		case r == ' ':
			if !lastSpace {
				b.WriteRune(r)
			}
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}
