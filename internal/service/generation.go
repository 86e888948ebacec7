package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pageza/alchemorsel-mealgen/backend/config"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/ai"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/metrics"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/parser"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/prompt"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/types"
)

// ingredientPattern is the lexical form every ingredient must match
var ingredientPattern = regexp.MustCompile(`^[A-Za-z0-9 ,.\-()%&]{1,50}$`)

// ChatCompleter is satisfied by *ai.ChatClient
type ChatCompleter interface {
	Complete(ctx context.Context, prompt, systemMessage string, params ai.ModelParams) ([]byte, error)
}

// ImageGenerator is satisfied by *ai.ImageClient
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string, count int, size string) ([]byte, error)
}

// ImageRelocator copies a transient image URL into durable storage and
// returns the permanent URL.
type ImageRelocator interface {
	Relocate(ctx context.Context, sourceURL string) (string, error)
}

// State is a step of a generation run. Runs only move forward; FAILED can
// follow any state.
type State string

const (
	StateValidating      State = "VALIDATING"
	StatePrompting       State = "PROMPTING"
	StateGeneratingText  State = "GENERATING_TEXT"
	StateParsingText     State = "PARSING_TEXT"
	StateGeneratingImage State = "GENERATING_IMAGE"
	StateParsingImage    State = "PARSING_IMAGE"
	StateRelocatingImage State = "RELOCATING_IMAGE"
	StateAssembled       State = "ASSEMBLED"
	StateFailed          State = "FAILED"
)

// GenerationConfig is the immutable per-service configuration
type GenerationConfig struct {
	SystemMessage string
	Params        ai.ModelParams
	ImageCount    int
	ImageSize     string
	// ImageTimeout bounds the image step on top of the client's own deadline.
	// Zero leaves it to the client.
	ImageTimeout time.Duration
}

// GenerationConfigFrom copies the generation settings out of the loaded configuration
func GenerationConfigFrom(cfg config.OpenAIConfig) GenerationConfig {
	return GenerationConfig{
		SystemMessage: cfg.SystemMessage,
		Params:        ai.ParamsFromConfig(cfg),
		ImageCount:    cfg.ImageCount,
		ImageSize:     cfg.ImageSize,
		ImageTimeout:  cfg.ImageTimeout,
	}
}

// GenerationService turns an ingredient list into a recipe with a durable image.
// It holds no per-run state and is safe for concurrent use.
type GenerationService struct {
	chat      ChatCompleter
	image     ImageGenerator
	relocator ImageRelocator
	cfg       GenerationConfig
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewGenerationService creates a new GenerationService. logger and m may be nil.
func NewGenerationService(chat ChatCompleter, image ImageGenerator, relocator ImageRelocator, cfg GenerationConfig, logger *zap.Logger, m *metrics.Metrics) *GenerationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationService{
		chat:      chat,
		image:     image,
		relocator: relocator,
		cfg:       cfg,
		logger:    logger,
		metrics:   m,
	}
}

// ValidateIngredients checks that the list is non-empty and every element is
// non-blank and matches the ingredient pattern.
func ValidateIngredients(ingredients []string) error {
	if len(ingredients) == 0 {
		return &InvalidIngredientsError{Index: -1, Reason: "empty list"}
	}
	for i, ing := range ingredients {
		if strings.TrimSpace(ing) == "" {
			return &InvalidIngredientsError{Index: i, Ingredient: ing, Reason: "blank ingredient"}
		}
		if !ingredientPattern.MatchString(ing) {
			return &InvalidIngredientsError{Index: i, Ingredient: ing, Reason: "unsupported characters or length"}
		}
	}
	return nil
}

// run carries the logger of a single GenerateMeal call
type run struct {
	s      *GenerationService
	logger *zap.Logger
}

func (r *run) enter(state State) {
	r.logger.Debug("pipeline state", zap.String("state", string(state)))
}

func (r *run) fail(stage Stage, cause string, err error) error {
	r.logger.Warn("meal generation failed",
		zap.String("state", string(StateFailed)),
		zap.String("stage", string(stage)),
		zap.String("cause", cause),
		zap.Error(err),
	)
	r.s.metrics.ObserveStageFailure(string(stage), cause)
	r.s.metrics.ObservePipeline(metrics.OutcomeFailed)
	return &AIGenerationError{Stage: stage, Cause: cause, Err: err}
}

// GenerateMeal runs the full pipeline. It either returns a complete result or
// an error; partial results are never returned. A meal name that sanitizes to
// nothing skips the image steps and yields a result without an image.
func (s *GenerationService) GenerateMeal(ctx context.Context, ingredients []string) (*types.GeneratedMealResult, error) {
	r := &run{s: s, logger: s.logger.With(zap.Int("ingredient_count", len(ingredients)))}

	r.enter(StateValidating)
	if err := ValidateIngredients(ingredients); err != nil {
		s.metrics.ObservePipeline(metrics.OutcomeInvalidInput)
		return nil, err
	}
	original := append([]string(nil), ingredients...)

	r.enter(StatePrompting)
	recipePrompt := prompt.BuildRecipePrompt(original)

	r.enter(StateGeneratingText)
	start := time.Now()
	rawText, err := s.chat.Complete(ctx, recipePrompt, s.cfg.SystemMessage, s.cfg.Params)
	s.metrics.ObserveUpstream(string(StageText), time.Since(start))
	if err != nil {
		return nil, r.fail(StageText, clientCause(err), err)
	}

	r.enter(StateParsingText)
	recipe, err := parser.ParseRecipe(rawText)
	if err != nil {
		return nil, r.fail(StageParseText, parseCause(err), err)
	}
	r.logger = r.logger.With(zap.String("meal_name", recipe.MealName))

	result := &types.GeneratedMealResult{
		MealName:            recipe.MealName,
		OriginalIngredients: original,
		Recipe:              recipe,
	}

	if prompt.SanitizeMealName(recipe.MealName) == "" {
		r.logger.Info("meal name has no usable characters, skipping image")
		r.enter(StateAssembled)
		s.metrics.ObservePipeline(metrics.OutcomeDegraded)
		return result, nil
	}

	r.enter(StateGeneratingImage)
	rawImage, err := s.generateImage(ctx, prompt.BuildImagePrompt(recipe.MealName))
	if err != nil {
		return nil, r.fail(StageImage, clientCause(err), err)
	}

	r.enter(StateParsingImage)
	transientURL, err := parser.ParseImageURL(rawImage)
	if err != nil {
		return nil, r.fail(StageParseImage, parseCause(err), err)
	}

	r.enter(StateRelocatingImage)
	durableURL, err := s.relocator.Relocate(ctx, transientURL)
	if err != nil {
		var relErr *RelocationError
		if !errors.As(err, &relErr) {
			err = &RelocationError{SourceURL: transientURL, Err: err}
		}
		return nil, r.fail(StageRelocate, relocationCause(err), err)
	}

	result.DurableImageURL = &durableURL
	r.enter(StateAssembled)
	s.metrics.ObservePipeline(metrics.OutcomeSuccess)
	return result, nil
}

func (s *GenerationService) generateImage(ctx context.Context, imagePrompt string) ([]byte, error) {
	if s.cfg.ImageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ImageTimeout)
		defer cancel()
	}
	start := time.Now()
	raw, err := s.image.Generate(ctx, imagePrompt, s.cfg.ImageCount, s.cfg.ImageSize)
	s.metrics.ObserveUpstream(string(StageImage), time.Since(start))
	return raw, err
}

// clientCause maps a client error to a cause string. Bare context errors come
// from collaborators that return ctx.Err() directly.
func clientCause(err error) string {
	if cause := ai.CauseOf(err); cause != "" {
		return string(cause)
	}
	switch {
	case errors.Is(err, context.Canceled):
		return CauseCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return CauseTimeout
	}
	return string(ai.CauseTransport)
}

func parseCause(err error) string {
	var pf *parser.ParseFailure
	if errors.As(err, &pf) {
		return string(pf.Reason)
	}
	return string(parser.ReasonInvalidJSON)
}

func relocationCause(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return CauseCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return CauseTimeout
	}
	return CauseStorage
}
