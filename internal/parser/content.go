package parser

import (
	"regexp"
	"strings"

	"github.com/pageza/alchemorsel-mealgen/backend/internal/types"
)

var (
	leadingFence  = regexp.MustCompile("(?i)^```(?:json)?\\s*")
	trailingFence = regexp.MustCompile("\\s*```\\s*$")
)

// ClassifyContent strips markdown fences from a model answer and reports
// which layout it uses. JSON is tried first: anything that starts with an
// object or array after fence stripping is JSON, everything else is treated
// as the legacy line format.
func ClassifyContent(content string) (types.RawContentShape, string) {
	body, fenced := stripFences(strings.TrimSpace(content))

	if looksLikeJSON(body) {
		if fenced {
			return types.FencedJSON, body
		}
		return types.StructuredJSON, body
	}
	return types.LegacyLines, body
}

// stripFences removes a leading ```json (or bare ```) fence and a trailing
// ``` fence. Prose before the first fence is dropped only when the fence
// opens a JSON body; backticks anywhere else are content.
func stripFences(s string) (string, bool) {
	if looksLikeJSON(s) {
		return s, false
	}
	if !strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "```")
		if idx < 0 {
			return s, false
		}
		if !looksLikeJSON(strings.TrimSpace(leadingFence.ReplaceAllString(s[idx:], ""))) {
			return s, false
		}
		s = s[idx:]
	}

	s = leadingFence.ReplaceAllString(s, "")
	if end := strings.LastIndex(s, "```"); end >= 0 {
		s = s[:end+3]
	}
	s = trailingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s), true
}

func looksLikeJSON(s string) bool {
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")
}

var legacyPrefixes = []string{"recipe name:", "recipe:"}

// parseLegacy reads the "Recipe Name: <name>\n<details>" layout.
func parseLegacy(body string) (types.ParsedRecipe, error) {
	parts := strings.SplitN(body, "\n", 2)

	name := strings.TrimSpace(parts[0])
	for _, prefix := range legacyPrefixes {
		if len(name) >= len(prefix) && strings.EqualFold(name[:len(prefix)], prefix) {
			name = strings.TrimSpace(name[len(prefix):])
			break
		}
	}
	if name == "" {
		return types.ParsedRecipe{}, failure(ReasonMissingMealName, nil)
	}

	details := ""
	if len(parts) > 1 {
		details = strings.TrimSpace(parts[1])
	}

	return types.ParsedRecipe{
		MealName:           name,
		IngredientsList:    []string{},
		EquipmentNeeded:    []string{},
		Instructions:       []string{},
		ServingSuggestions: []string{},
		RecipeDetails:      details,
		Shape:              types.LegacyLines,
	}, nil
}
