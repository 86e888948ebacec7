package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pageza/alchemorsel-mealgen/backend/internal/middleware"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/service"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/types"
)

// MealHandler serves meal generation, drafts and saved recipes
type MealHandler struct {
	generator service.MealGenerator
	drafts    service.DraftStore
	recipes   service.RecipeStore
	logger    *zap.Logger
}

// NewMealHandler creates a new MealHandler. drafts may be nil when no Redis is
// configured; generation still works but draft endpoints answer 503.
func NewMealHandler(generator service.MealGenerator, drafts service.DraftStore, recipes service.RecipeStore, logger *zap.Logger) *MealHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MealHandler{
		generator: generator,
		drafts:    drafts,
		recipes:   recipes,
		logger:    logger,
	}
}

// RegisterRoutes registers the recipe routes. generateLimit, if non-nil, runs
// before the generate endpoint only.
func (h *MealHandler) RegisterRoutes(router *gin.RouterGroup, generateLimit gin.HandlerFunc) {
	recipes := router.Group("/recipes")
	{
		generate := []gin.HandlerFunc{h.GenerateMeal}
		if generateLimit != nil {
			generate = append([]gin.HandlerFunc{generateLimit}, generate...)
		}
		recipes.POST("/generate-meal", generate...)

		recipes.GET("/drafts/:id", h.GetDraft)
		recipes.DELETE("/drafts/:id", h.DeleteDraft)
		recipes.POST("/drafts/:id/save", h.SaveDraft)

		recipes.GET("", h.ListRecipes)
		recipes.GET("/:id", h.GetRecipe)
	}
}

// GenerateMeal runs the pipeline for the posted ingredients and caches the result as a draft
func (h *MealHandler) GenerateMeal(c *gin.Context) {
	var req types.GenerateMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, codeInvalidRequest, "request body must be a JSON object with an ingredients array")
		return
	}

	meal, err := h.generator.GenerateMeal(c.Request.Context(), req.Ingredients)
	if err != nil {
		h.abortWithGenerationError(c, err)
		return
	}

	resp := types.GenerateMealResponse{Meal: meal}
	if h.drafts != nil {
		draft, err := h.drafts.SaveDraft(c.Request.Context(), meal)
		if err != nil {
			h.logger.Warn("failed to cache meal draft",
				zap.String("request_id", middleware.RequestID(c)),
				zap.Error(err),
			)
		} else {
			resp.DraftID = draft.ID
		}
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *MealHandler) GetDraft(c *gin.Context) {
	if !h.requireDrafts(c) {
		return
	}

	draft, err := h.drafts.GetDraft(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.abortWithStoreError(c, err, "draft")
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (h *MealHandler) DeleteDraft(c *gin.Context) {
	if !h.requireDrafts(c) {
		return
	}

	if err := h.drafts.DeleteDraft(c.Request.Context(), c.Param("id")); err != nil {
		h.abortWithStoreError(c, err, "draft")
		return
	}
	c.Status(http.StatusNoContent)
}

// SaveDraft persists a cached draft as a recipe and removes the draft
func (h *MealHandler) SaveDraft(c *gin.Context) {
	if !h.requireDrafts(c) {
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")

	draft, err := h.drafts.GetDraft(ctx, id)
	if err != nil {
		h.abortWithStoreError(c, err, "draft")
		return
	}

	recipe, err := h.recipes.SaveGeneratedMeal(ctx, draft.Meal)
	if err != nil {
		h.abortWithStoreError(c, err, "recipe")
		return
	}

	if err := h.drafts.DeleteDraft(ctx, id); err != nil && !errors.Is(err, service.ErrDraftNotFound) {
		h.logger.Warn("failed to delete saved draft", zap.String("draft_id", id), zap.Error(err))
	}

	c.JSON(http.StatusCreated, types.SavedRecipeResponse{
		ID:       recipe.ID,
		DraftID:  id,
		MealName: recipe.Name,
	})
}

func (h *MealHandler) GetRecipe(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, codeInvalidRequest, "recipe id must be a UUID")
		return
	}

	recipe, err := h.recipes.GetRecipe(c.Request.Context(), id)
	if err != nil {
		h.abortWithStoreError(c, err, "recipe")
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// ListRecipes returns saved recipes, newest first, or ranked by similarity when q is set
func (h *MealHandler) ListRecipes(c *gin.Context) {
	limit := service.DefaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			abortWithError(c, http.StatusBadRequest, codeInvalidRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	recipes, err := h.recipes.SearchRecipes(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		h.abortWithStoreError(c, err, "recipe")
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *MealHandler) requireDrafts(c *gin.Context) bool {
	if h.drafts == nil {
		abortWithError(c, http.StatusServiceUnavailable, codeUnavailable, "draft storage is not configured")
		return false
	}
	return true
}

func (h *MealHandler) abortWithStoreError(c *gin.Context, err error, what string) {
	if errors.Is(err, service.ErrDraftNotFound) || errors.Is(err, service.ErrRecipeNotFound) {
		abortWithError(c, http.StatusNotFound, codeNotFound, what+" not found")
		return
	}
	h.logger.Error("storage operation failed",
		zap.String("request_id", middleware.RequestID(c)),
		zap.String("entity", what),
		zap.Error(err),
	)
	_ = c.Error(err)
	abortWithError(c, http.StatusInternalServerError, codeInternal, "failed to access "+what+" storage")
}
