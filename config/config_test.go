package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate clears every variable Load consults so the host environment cannot leak in.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("CI", "")
	t.Setenv("ENV", "test")
	t.Setenv("SECRETS_DIR", t.TempDir())
	for key, legacy := range legacyEnv {
		t.Setenv(legacy, "")
		t.Setenv("MEALGEN_"+envName(key), "")
	}
}

func envName(key string) string {
	out := make([]rune, 0, len(key))
	for _, r := range key {
		switch {
		case r == '.':
			out = append(out, '_')
		case r >= 'a' && r <= 'z':
			out = append(out, r-'a'+'A')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

func TestLoad(t *testing.T) {
	t.Run("should apply defaults", func(t *testing.T) {
		isolate(t)
		t.Setenv("OPENAI_API_KEY", "test-key")

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, Test, cfg.Environment)
		assert.Equal(t, "test-key", cfg.OpenAI.APIKey)
		assert.Equal(t, "https://api.openai.com/v1/chat/completions", cfg.OpenAI.ChatURL)
		assert.Equal(t, "https://api.openai.com/v1/images/generations", cfg.OpenAI.ImageURL)
		assert.Equal(t, 30*time.Second, cfg.OpenAI.ImageTimeout)
		assert.Equal(t, 1, cfg.OpenAI.ChoiceCount)
		assert.Equal(t, "1024x1024", cfg.OpenAI.ImageSize)
		assert.Equal(t, "generated-recipe-images", cfg.Storage.Prefix)
		assert.Zero(t, cfg.Storage.DownloadRetries)
		assert.Equal(t, 24*time.Hour, cfg.Drafts.TTL)
		assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
		assert.False(t, cfg.Redis.Enabled())
	})

	t.Run("should prefer prefixed environment variables", func(t *testing.T) {
		isolate(t)
		t.Setenv("OPENAI_API_KEY", "legacy-key")
		t.Setenv("MEALGEN_OPENAI_API_KEY", "prefixed-key")
		t.Setenv("MEALGEN_OPENAI_MODEL", "gpt-4o")
		t.Setenv("MEALGEN_OPENAI_IMAGE_TIMEOUT", "5s")
		t.Setenv("MEALGEN_SERVER_ALLOWED_ORIGINS", "https://a.example,https://b.example")
		t.Setenv("REDIS_URL", "redis://localhost:6379/0")

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, "prefixed-key", cfg.OpenAI.APIKey)
		assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
		assert.Equal(t, 5*time.Second, cfg.OpenAI.ImageTimeout)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
		assert.True(t, cfg.Redis.Enabled())
	})

	t.Run("should read API key from file", func(t *testing.T) {
		isolate(t)
		keyFile := filepath.Join(t.TempDir(), "key")
		require.NoError(t, os.WriteFile(keyFile, []byte("  file-key\n"), 0o600))
		t.Setenv("OPENAI_API_KEY_FILE", keyFile)

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "file-key", cfg.OpenAI.APIKey)
	})

	t.Run("should read API key from secrets directory", func(t *testing.T) {
		isolate(t)
		dir := t.TempDir()
		t.Setenv("SECRETS_DIR", dir)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "openai_api_key"), []byte("secret-key"), 0o600))

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "secret-key", cfg.OpenAI.APIKey)
	})

	t.Run("should load a yaml file", func(t *testing.T) {
		isolate(t)
		path := filepath.Join(t.TempDir(), "config.yaml")
		yaml := "openai:\n  api_key: yaml-key\n  image_size: 512x512\n  chat_timeout: 12s\nstorage:\n  bucket: my-bucket\n"
		require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "yaml-key", cfg.OpenAI.APIKey)
		assert.Equal(t, "512x512", cfg.OpenAI.ImageSize)
		assert.Equal(t, 12*time.Second, cfg.OpenAI.ChatTimeout)
		assert.Equal(t, "my-bucket", cfg.Storage.Bucket)
	})

	t.Run("should fail when the config file is missing", func(t *testing.T) {
		isolate(t)
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		field string
	}{
		{
			name:  "missing API key",
			env:   map[string]string{},
			field: "openai.api_key",
		},
		{
			name:  "unsupported image size",
			env:   map[string]string{"OPENAI_API_KEY": "k", "MEALGEN_OPENAI_IMAGE_SIZE": "999x999"},
			field: "openai.image_size",
		},
		{
			name:  "image count out of bounds",
			env:   map[string]string{"OPENAI_API_KEY": "k", "MEALGEN_OPENAI_IMAGE_COUNT": "11"},
			field: "openai.image_count",
		},
		{
			name:  "top_p above one",
			env:   map[string]string{"OPENAI_API_KEY": "k", "MEALGEN_OPENAI_TOP_P": "1.5"},
			field: "openai.top_p",
		},
		{
			name:  "invalid allowed origin",
			env:   map[string]string{"OPENAI_API_KEY": "k", "MEALGEN_SERVER_ALLOWED_ORIGINS": "not a url"},
			field: "server.allowed_origins[0]",
		},
		{
			name:  "invalid chat URL",
			env:   map[string]string{"OPENAI_API_KEY": "k", "MEALGEN_OPENAI_CHAT_URL": "not a url"},
			field: "openai.chat_url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load("")
			require.Error(t, err)

			var verrs ValidationErrors
			require.ErrorAs(t, err, &verrs)
			fields := make([]string, 0, len(verrs))
			for _, ve := range verrs {
				fields = append(fields, ve.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestValidate_NoAllowedOrigins(t *testing.T) {
	isolate(t)
	t.Setenv("OPENAI_API_KEY", "k")
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Server.AllowedOrigins = nil
	err = cfg.Validate()

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "server.allowed_origins", verrs[0].Field)
	assert.Equal(t, "must have at least 1 entries", verrs[0].Message)
}

func TestGetEnvironment(t *testing.T) {
	t.Run("should detect CI", func(t *testing.T) {
		t.Setenv("CI", "true")
		t.Setenv("ENV", "production")
		assert.Equal(t, CI, GetEnvironment())
	})

	t.Run("should default to development", func(t *testing.T) {
		t.Setenv("CI", "")
		t.Setenv("ENV", "staging")
		assert.Equal(t, Development, GetEnvironment())
		assert.True(t, GetEnvironment().IsDevelopment())
	})

	t.Run("should read production", func(t *testing.T) {
		t.Setenv("CI", "")
		t.Setenv("ENV", "production")
		assert.True(t, GetEnvironment().IsProduction())
	})
}

func TestPublicReadPolicy(t *testing.T) {
	policy := PublicReadPolicy(StorageConfig{Bucket: "meals", Prefix: "generated-recipe-images"})
	assert.Contains(t, policy, "arn:aws:s3:::meals/generated-recipe-images/*")
}
