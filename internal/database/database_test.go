package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pageza/alchemorsel-mealgen/backend/config"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/model"
	"github.com/pageza/alchemorsel-mealgen/backend/internal/testhelpers"
)

func TestOpenAndMigrate(t *testing.T) {
	t.Run("should open sqlite and migrate the recipe table", func(t *testing.T) {
		db, err := Open(config.DatabaseConfig{
			Driver:       "sqlite",
			DSN:          "file::memory:?cache=shared",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		}, zap.NewNop())
		require.NoError(t, err)

		require.NoError(t, Migrate(db))
		assert.True(t, db.Migrator().HasTable(&model.Recipe{}))
	})

	t.Run("should reject an unknown driver", func(t *testing.T) {
		_, err := Open(config.DatabaseConfig{Driver: "oracle", DSN: "x"}, zap.NewNop())
		assert.Error(t, err)
	})
}

func TestNewRedisClient(t *testing.T) {
	t.Run("should reject a malformed URL", func(t *testing.T) {
		_, err := NewRedisClient(context.Background(), config.RedisConfig{URL: "://bad"}, zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("should connect to a live server", func(t *testing.T) {
		url := testhelpers.RedisURL(t)

		client, err := NewRedisClient(context.Background(), config.RedisConfig{URL: url}, zap.NewNop())
		require.NoError(t, err)
		defer client.Close()
		assert.NoError(t, client.Ping(context.Background()).Err())
	})
}
