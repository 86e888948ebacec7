package logger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Run("should honour the configured level", func(t *testing.T) {
		log := New(Config{Level: "warn", Format: "json"})
		assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, log.Core().Enabled(zapcore.WarnLevel))
	})

	t.Run("should fall back to info on an unknown level", func(t *testing.T) {
		log := New(Config{Level: "loud", Format: "console", Development: true})
		assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
		assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))

	long := strings.Repeat("x", 20)
	out := Truncate(long, 5)
	assert.True(t, strings.HasPrefix(out, "xxxxx"))
	assert.Contains(t, out, "truncated")
}
