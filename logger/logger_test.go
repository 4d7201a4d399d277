package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitialize(t *testing.T) {
	t.Cleanup(func() { Set(nil) })

	require.NoError(t, Initialize("debug"))
	assert.True(t, Logger.Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, Initialize("warn"))
	assert.False(t, Logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, Logger.Core().Enabled(zapcore.WarnLevel))
}

func TestInitializeRejectsUnknownLevel(t *testing.T) {
	err := Initialize("bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestSetAndHelpers(t *testing.T) {
	t.Cleanup(func() { Set(nil) })

	core, logs := observer.New(zapcore.DebugLevel)
	Set(zap.New(core))

	Debug("d")
	Info("i", zap.Int("n", 1))
	Warn("w")
	Error("e")
	With(zap.String("repo", "octo/hello")).Info("scoped")

	require.Equal(t, 5, logs.Len())
	assert.Equal(t, int64(1), logs.FilterMessage("i").All()[0].ContextMap()["n"])
	assert.Equal(t, "octo/hello", logs.FilterMessage("scoped").All()[0].ContextMap()["repo"])

	Set(nil)
	assert.NotNil(t, Logger)
	Info("dropped")
	assert.Equal(t, 5, logs.Len())
}
