package prompt

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ingredientsLine extracts the ingredient list back out of a recipe prompt.
func ingredientsLine(t *testing.T, p string) string {
	t.Helper()
	const marker = "Use these ingredients: "
	start := strings.Index(p, marker)
	require.GreaterOrEqual(t, start, 0)
	rest := p[start+len(marker):]
	end := strings.Index(rest, "\n")
	require.GreaterOrEqual(t, end, 0)
	return rest[:end]
}

func TestBuildRecipePrompt(t *testing.T) {
	t.Run("should join ingredients in order", func(t *testing.T) {
		p := BuildRecipePrompt([]string{"chicken", "rice", "broccoli"})
		assert.Equal(t, "chicken, rice, broccoli", ingredientsLine(t, p))
	})

	t.Run("should ask for every recipe key", func(t *testing.T) {
		p := BuildRecipePrompt([]string{"eggs"})
		for _, key := range []string{"mealName", "ingredientsList", "equipmentNeeded", "instructions", "servingSuggestions", "nutritionalInformation", "calories", "protein", "carbohydrates", "fat"} {
			assert.Contains(t, p, `"`+key+`"`)
		}
	})

	t.Run("should keep duplicates", func(t *testing.T) {
		p := BuildRecipePrompt([]string{"salt", "salt"})
		assert.Equal(t, "salt, salt", ingredientsLine(t, p))
	})

	t.Run("should be deterministic", func(t *testing.T) {
		in := []string{"tofu", "soy sauce (low sodium)", "50% dark chocolate & nuts"}
		assert.Equal(t, BuildRecipePrompt(in), BuildRecipePrompt(in))
	})

	t.Run("should contain every ingredient exactly once in input order", func(t *testing.T) {
		pool := []string{"chicken", "rice", "broccoli", "tofu", "basil", "garlic cloves", "olive oil (extra virgin)", "2.5 cups milk", "50% cocoa", "salt & pepper", "sweet-potato"}
		rng := rand.New(rand.NewSource(42))
		for i := 0; i < 200; i++ {
			n := 1 + rng.Intn(len(pool))
			perm := rng.Perm(len(pool))[:n]
			in := make([]string, n)
			for j, idx := range perm {
				in[j] = pool[idx]
			}

			got := strings.Split(ingredientsLine(t, BuildRecipePrompt(in)), ", ")
			require.Equal(t, in, got)
		}
	})
}

func TestSanitizeMealName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Chicken Rice Bowl", "Chicken Rice Bowl"},
		{"  Crème Brûlée!! ", "Crme Brle"},
		{"Mac & Cheese (Deluxe)", "Mac Cheese Deluxe"},
		{"Pad-Thai #2", "Pad-Thai 2"},
		{"\"quoted\"; DROP TABLE", "quoted DROP TABLE"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeMealName(tt.in))
		})
	}
}

func TestBuildImagePrompt(t *testing.T) {
	t.Run("should embed the sanitized meal name", func(t *testing.T) {
		p := BuildImagePrompt("Tomato Soup <script>")
		assert.Contains(t, p, "of Tomato Soup script,")
		assert.NotContains(t, p, "<")
	})

	t.Run("should not fail on a blank name", func(t *testing.T) {
		assert.NotPanics(t, func() {
			p := BuildImagePrompt("???")
			assert.NotEmpty(t, p)
		})
	})

	t.Run("should cap the prompt length", func(t *testing.T) {
		p := BuildImagePrompt(strings.Repeat("a", 2000))
		assert.Len(t, p, maxImagePromptLength)
	})
}
