package service

import (
	"strings"

	pgvector "github.com/pgvector/pgvector-go"

	"github.com/pageza/alchemorsel-mealgen/backend/internal/model"
)

// GenerateEmbedding returns a deterministic embedding of a recipe's text:
// total length, vowel count and consonant count.
func GenerateEmbedding(text string) pgvector.Vector {
	text = strings.ToLower(text)
	var vowels, consonants float32
	for _, r := range text {
		if strings.ContainsRune("aeiou", r) {
			vowels++
		} else if r >= 'a' && r <= 'z' {
			consonants++
		}
	}
	v := []float32{float32(len(text)), vowels, consonants}
	return pgvector.NewVector(v[:model.EmbeddingDimensions])
}

// embeddingText is the text a saved recipe is embedded from
func embeddingText(r *model.Recipe) string {
	parts := []string{r.Name}
	parts = append(parts, r.Ingredients...)
	parts = append(parts, r.OriginalIngredients...)
	return strings.Join(parts, " ")
}
