package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pageza/alchemorsel-mealgen/backend/config"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/types"
)

// DraftService keeps generated meals in Redis until they are saved or expire.
type DraftService struct {
	redis     *redis.Client
	ttl       time.Duration
	keyPrefix string
}

func NewDraftService(client *redis.Client, cfg config.DraftConfig) *DraftService {
	return &DraftService{
		redis:     client,
		ttl:       cfg.TTL,
		keyPrefix: cfg.KeyPrefix,
	}
}

func (s *DraftService) key(id string) string {
	return fmt.Sprintf("%s:%s", s.keyPrefix, id)
}

// SaveDraft stores meal under a new ID and returns the draft
func (s *DraftService) SaveDraft(ctx context.Context, meal *types.GeneratedMealResult) (*types.MealDraft, error) {
	draft := &types.MealDraft{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Meal:      meal,
	}

	data, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal draft: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(draft.ID), data, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}
	return draft, nil
}

// GetDraft returns ErrDraftNotFound for unknown or expired IDs
func (s *DraftService) GetDraft(ctx context.Context, id string) (*types.MealDraft, error) {
	data, err := s.redis.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}

	var draft types.MealDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}
	return &draft, nil
}

func (s *DraftService) DeleteDraft(ctx context.Context, id string) error {
	n, err := s.redis.Del(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	if n == 0 {
		return ErrDraftNotFound
	}
	return nil
}
