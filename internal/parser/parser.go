// Package parser turns raw chat completion and image generation responses
// into domain values. Every function is pure; the same input always yields
// the same output.
package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pageza/alchemorsel-mealgen/backend/internal/types"
)

const nestedDetailsKey = "recipeDetails"

// requiredArrays lists the list fields every structured answer must carry.
var requiredArrays = []string{"ingredientsList", "equipmentNeeded", "instructions", "servingSuggestions"}

// ParseRecipe extracts choices[0].message.content from a chat completion
// response and parses it into a recipe.
func ParseRecipe(raw []byte) (types.ParsedRecipe, error) {
	content, err := ExtractContent(raw)
	if err != nil {
		return types.ParsedRecipe{}, err
	}
	return ParseContent(content)
}

// ExtractContent returns the non-blank message content of the first choice.
func ExtractContent(raw []byte) (string, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(raw, &root); err != nil {
		return "", failure(ReasonInvalidJSON, err)
	}

	var choices []json.RawMessage
	if err := json.Unmarshal(root["choices"], &choices); err != nil || len(choices) == 0 {
		return "", failure(ReasonNoChoices, nil)
	}

	var choice struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(choices[0], &choice); err != nil {
		return "", failure(ReasonMissingContent, err)
	}
	if choice.Message == nil || choice.Message.Content == nil || strings.TrimSpace(*choice.Message.Content) == "" {
		return "", failure(ReasonMissingContent, nil)
	}

	return *choice.Message.Content, nil
}

// ParseContent parses a model answer in any supported layout.
func ParseContent(content string) (types.ParsedRecipe, error) {
	shape, body := ClassifyContent(content)
	if shape == types.LegacyLines {
		return parseLegacy(body)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &obj); err != nil {
		return types.ParsedRecipe{}, failure(ReasonInvalidJSON, fmt.Errorf("content is not a JSON object: %w", err))
	}

	fields := lookup{root: obj}
	if nested, ok := obj[nestedDetailsKey]; ok {
		_ = json.Unmarshal(nested, &fields.nested)
	}

	recipe := types.ParsedRecipe{Shape: shape}

	var name string
	if err := json.Unmarshal(fields.get("mealName"), &name); err != nil || strings.TrimSpace(name) == "" {
		return types.ParsedRecipe{}, failure(ReasonMissingMealName, nil)
	}
	recipe.MealName = strings.TrimSpace(name)

	lists := make(map[string][]string, len(requiredArrays))
	for _, field := range requiredArrays {
		list, err := stringList(fields.get(field))
		if err != nil {
			return types.ParsedRecipe{}, &ParseFailure{Reason: ReasonMissingArrayField, Field: field, Err: err}
		}
		lists[field] = list
	}
	recipe.IngredientsList = lists["ingredientsList"]
	recipe.EquipmentNeeded = lists["equipmentNeeded"]
	recipe.Instructions = lists["instructions"]
	recipe.ServingSuggestions = lists["servingSuggestions"]

	recipe.Nutrition = nutrition(fields.get("nutritionalInformation"))

	return recipe, nil
}

// ParseImageURL returns data[0].url from an image generation response.
func ParseImageURL(raw []byte) (string, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(raw, &root); err != nil {
		return "", failure(ReasonInvalidJSON, err)
	}

	var data []json.RawMessage
	if err := json.Unmarshal(root["data"], &data); err != nil || len(data) == 0 {
		return "", failure(ReasonNoImageData, nil)
	}

	var image struct {
		URL *string `json:"url"`
	}
	if err := json.Unmarshal(data[0], &image); err != nil || image.URL == nil || strings.TrimSpace(*image.URL) == "" {
		return "", failure(ReasonMissingImageURL, nil)
	}

	return strings.TrimSpace(*image.URL), nil
}

// lookup finds a field at the top level first, then inside recipeDetails.
type lookup struct {
	root   map[string]json.RawMessage
	nested map[string]json.RawMessage
}

func (l lookup) get(field string) json.RawMessage {
	if v, ok := l.root[field]; ok && !isNull(v) {
		return v
	}
	if v, ok := l.nested[field]; ok {
		return v
	}
	return nil
}

func isNull(v json.RawMessage) bool {
	return len(bytes.TrimSpace(v)) == 0 || bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

var errNotArray = errors.New("field is missing or not an array")

// stringList decodes a JSON array. String elements are trimmed and blanks
// dropped; other scalars and objects keep their compact JSON text.
func stringList(v json.RawMessage) ([]string, error) {
	if isNull(v) {
		return nil, errNotArray
	}
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		return nil, errNotArray
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if isNull(item) {
			continue
		}
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
			continue
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, item); err != nil {
			return nil, errNotArray
		}
		out = append(out, compact.String())
	}
	return out, nil
}

func nutrition(v json.RawMessage) *types.Nutrition {
	if isNull(v) {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(v, &obj); err != nil {
		return nil
	}
	return &types.Nutrition{
		Calories:      calories(obj["calories"]),
		Protein:       grams(obj["protein"]),
		Carbohydrates: grams(obj["carbohydrates"]),
		Fat:           grams(obj["fat"]),
	}
}

// calories accepts a number or a string with a leading number such as "450 kcal".
func calories(v json.RawMessage) int {
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return int(math.Round(f))
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return 0
	}
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.') {
		end++
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return int(math.Round(f))
}

// grams keeps strings as given and renders bare numbers as "<n>g".
func grams(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64) + "g"
	}
	return ""
}
