// Package integration runs the HTTP API against fake upstream services.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pageza/alchemorsel-mealgen/backend/config"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/ai"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/api"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/database"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/metrics"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/router"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/service"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/testhelpers"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/types"
)

const recipeJSON = "```json\n" + `{
  "mealName": "Chicken Rice Bowl",
  "ingredientsList": ["200g chicken breast", "150g jasmine rice", "1 head broccoli"],
  "equipmentNeeded": ["saucepan", "skillet"],
  "instructions": ["Cook the rice.", "Sear the chicken.", "Steam the broccoli.", "Assemble the bowl."],
  "servingSuggestions": ["Top with sesame seeds"],
  "nutritionalInformation": {"calories": "610 kcal", "protein": 45, "carbohydrates": "62g", "fat": "14g"}
}` + "\n```"

func init() {
	gin.SetMode(gin.TestMode)
}

type memoryBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (b *memoryBucket) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[aws.ToString(params.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

// upstream fakes the chat, image and image hosting services
type upstream struct {
	server     *httptest.Server
	chatCalls  int32
	imageCalls int32
	imageDelay time.Duration
	chatBodies chan map[string]any
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{chatBodies: make(chan map[string]any, 4)}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.chatCalls, 1)
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		u.chatBodies <- body
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": recipeJSON}}},
		})
	})
	mux.HandleFunc("/v1/images/generations", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.imageCalls, 1)
		if u.imageDelay > 0 {
			select {
			case <-time.After(u.imageDelay):
			case <-r.Context().Done():
				return
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []any{map[string]any{"url": u.server.URL + "/cdn/generated.png?sig=xyz"}},
		})
	})
	mux.HandleFunc("/cdn/generated.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 128)...))
	})
	u.server = httptest.NewServer(mux)
	t.Cleanup(u.server.Close)
	return u
}

func (u *upstream) openAIConfig() config.OpenAIConfig {
	return config.OpenAIConfig{
		APIKey:        "test-key",
		ChatURL:       u.server.URL + "/v1/chat/completions",
		SystemMessage: "You are a professional chef.",
		Model:         "gpt-4o-mini",
		MaxTokens:     1500,
		Temperature:   0.7,
		TopP:          1,
		ChoiceCount:   1,
		ChatTimeout:   5 * time.Second,
		ImageURL:      u.server.URL + "/v1/images/generations",
		ImageModel:    "dall-e-3",
		ImageCount:    1,
		ImageSize:     "1024x1024",
		ImageTimeout:  5 * time.Second,
	}
}

type app struct {
	router *gin.Engine
	bucket *memoryBucket
	db     *gorm.DB
}

func newApp(t *testing.T, openAI config.OpenAIConfig, drafts service.DraftStore) *app {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	bucket := &memoryBucket{objects: map[string][]byte{}}
	storage := config.StorageConfig{
		Bucket:          "recipe-images",
		Prefix:          "generated-recipe-images",
		PublicBaseURL:   "https://cdn.alchemorsel.test",
		DownloadTimeout: 5 * time.Second,
		DownloadRetries: 1,
		MaxImageBytes:   1 << 20,
	}

	m := metrics.New()
	generator := service.NewGenerationService(
		ai.NewChatClient(openAI),
		ai.NewImageClient(openAI),
		service.NewS3Relocator(bucket, storage, nil),
		service.GenerationConfigFrom(openAI),
		nil,
		m,
	)
	handler := api.NewMealHandler(generator, drafts, service.NewRecipeService(db), nil)
	r := router.SetupRouter(router.Deps{
		Handler:        handler,
		Metrics:        m,
		Health:         map[string]api.Pinger{"database": sqlDB.PingContext},
		AllowedOrigins: []string{"http://localhost:5173"},
	})
	return &app{router: r, bucket: bucket, db: db}
}

func (a *app) post(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func TestGenerateMealEndToEnd(t *testing.T) {
	u := newUpstream(t)
	a := newApp(t, u.openAIConfig(), nil)

	rr := a.post(t, "/api/v1/recipes/generate-meal", types.GenerateMealRequest{Ingredients: []string{"chicken", "rice", "broccoli"}})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp types.GenerateMealResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	meal := resp.Meal
	assert.Equal(t, "Chicken Rice Bowl", meal.MealName)
	assert.Equal(t, []string{"chicken", "rice", "broccoli"}, meal.OriginalIngredients)
	assert.Equal(t, types.FencedJSON, meal.Recipe.Shape)
	assert.Len(t, meal.Recipe.Instructions, 4)
	require.NotNil(t, meal.Recipe.Nutrition)
	assert.Equal(t, 610, meal.Recipe.Nutrition.Calories)
	assert.Equal(t, "45g", meal.Recipe.Nutrition.Protein)

	require.NotNil(t, meal.DurableImageURL)
	assert.True(t, strings.HasPrefix(*meal.DurableImageURL, "https://cdn.alchemorsel.test/generated-recipe-images/"))
	assert.Len(t, a.bucket.objects, 1)
	assert.Empty(t, resp.DraftID)

	chatBody := <-u.chatBodies
	assert.Equal(t, "gpt-4o-mini", chatBody["model"])
	messages := chatBody["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Contains(t, messages[1].(map[string]any)["content"], "chicken, rice, broccoli")

	assert.Equal(t, int32(1), atomic.LoadInt32(&u.chatCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&u.imageCalls))
}

func TestGenerateMealRejectsInvalidIngredients(t *testing.T) {
	u := newUpstream(t)
	a := newApp(t, u.openAIConfig(), nil)

	rr := a.post(t, "/api/v1/recipes/generate-meal", types.GenerateMealRequest{Ingredients: []string{"chicken;DROP"}})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid_ingredients")
	assert.Equal(t, int32(0), atomic.LoadInt32(&u.chatCalls))
	assert.Equal(t, int32(0), atomic.LoadInt32(&u.imageCalls))
}

func TestGenerateMealImageTimeout(t *testing.T) {
	u := newUpstream(t)
	u.imageDelay = 2 * time.Second
	openAI := u.openAIConfig()
	openAI.ImageTimeout = 100 * time.Millisecond
	a := newApp(t, openAI, nil)

	start := time.Now()
	rr := a.post(t, "/api/v1/recipes/generate-meal", types.GenerateMealRequest{Ingredients: []string{"chicken", "rice"}})

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, http.StatusGatewayTimeout, rr.Code)
	var resp types.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "IMAGE", resp.Stage)
	assert.Equal(t, "generation_timeout", resp.Error)
	assert.Empty(t, a.bucket.objects)
}

func TestGenerateAndSaveDraft(t *testing.T) {
	client := testhelpers.NewRedisClient(t)
	u := newUpstream(t)
	drafts := service.NewDraftService(client, config.DraftConfig{TTL: time.Hour, KeyPrefix: "meal:draft"})
	a := newApp(t, u.openAIConfig(), drafts)

	rr := a.post(t, "/api/v1/recipes/generate-meal", types.GenerateMealRequest{Ingredients: []string{"chicken", "rice"}})
	require.Equal(t, http.StatusCreated, rr.Code)
	var generated types.GenerateMealResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &generated))
	require.NotEmpty(t, generated.DraftID)

	rr = a.post(t, "/api/v1/recipes/drafts/"+generated.DraftID+"/save", nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var saved types.SavedRecipeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &saved))
	assert.Equal(t, "Chicken Rice Bowl", saved.MealName)

	getRR := httptest.NewRecorder()
	a.router.ServeHTTP(getRR, httptest.NewRequest("GET", "/api/v1/recipes/"+saved.ID.String(), nil))
	require.Equal(t, http.StatusOK, getRR.Code)
	assert.Contains(t, getRR.Body.String(), "https://cdn.alchemorsel.test/generated-recipe-images/")

	draftRR := httptest.NewRecorder()
	a.router.ServeHTTP(draftRR, httptest.NewRequest("GET", "/api/v1/recipes/drafts/"+generated.DraftID, nil))
	assert.Equal(t, http.StatusNotFound, draftRR.Code)
}
