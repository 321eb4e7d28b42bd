package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zapcore"

	"github.com/Additional-Code/serviceorders/internal/config"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, zapcore.DebugLevel, parseLevel(" DEBUG "))
	require.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	require.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
	require.Equal(t, zapcore.InfoLevel, parseLevel(""))
}

func TestBuildRespectsLevel(t *testing.T) {
	for _, encoding := range []string{"json", "console"} {
		logger, err := Build(config.Observability{
			ServiceName: "serviceorders",
			LogLevel:    "warn",
			LogEncoding: encoding,
		})
		require.NoError(t, err, encoding)
		require.False(t, logger.Core().Enabled(zapcore.InfoLevel), encoding)
		require.True(t, logger.Core().Enabled(zapcore.ErrorLevel), encoding)
	}
}

func TestNewRegistersLifecycle(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	logger, err := New(lc, config.Config{Observability: config.Observability{LogLevel: "info", LogEncoding: "json"}})
	require.NoError(t, err)
	require.NotNil(t, logger)

	lc.RequireStart()
	lc.RequireStop()
}
