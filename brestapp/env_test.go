package brestapp_test

import (
	"testing"
	"time"

	"github.com/advdv/brest/brestapp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

type appEnv struct {
	brestapp.BaseEnvironment
	TableName string `env:"TABLE_NAME,required"`
}

func TestParseEnvDefaults(t *testing.T) {
	env, err := brestapp.ParseEnv[brestapp.BaseEnvironment]()()
	require.NoError(t, err)

	require.Equal(t, brestapp.BaseEnvironment{
		Port:                8080,
		ServiceName:         "brest",
		ServerName:          "brest",
		ReadinessCheckPath:  "/health",
		MetricsPath:         "/metrics",
		LogLevel:            zapcore.InfoLevel,
		OtelExporter:        "stdout",
		CORSOrigin:          "*",
		ResponseBufferLimit: -1,
		ReceiveTimeout:      30 * time.Second,
		KeepAliveTimeout:    60 * time.Second,
		ShutdownTimeout:     10 * time.Second,
		StaticPrefix:        "/static",
	}, env)
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("BR_PORT", "9000")
	t.Setenv("BR_LOG_LEVEL", "debug")
	t.Setenv("BR_RECEIVE_TIMEOUT", "5s")
	t.Setenv("BR_MAX_REQUESTS_PER_CONN", "100")
	t.Setenv("BR_STATIC_BUCKET", "assets")
	t.Setenv("TABLE_NAME", "items")

	env, err := brestapp.ParseEnv[appEnv]()()
	require.NoError(t, err)
	require.Equal(t, 9000, env.Port)
	require.Equal(t, zapcore.DebugLevel, env.LogLevel)
	require.Equal(t, 5*time.Second, env.ReceiveTimeout)
	require.Equal(t, 100, env.MaxRequestsPerConn)
	require.Equal(t, "assets", env.StaticBucket)
	require.Equal(t, "items", env.TableName)
}

func TestParseEnvErrors(t *testing.T) {
	t.Run("missing required", func(t *testing.T) {
		_, err := brestapp.ParseEnv[appEnv]()()
		require.ErrorContains(t, err, "failed to parse environment")
		require.ErrorContains(t, err, "TABLE_NAME")
	})

	t.Run("invalid port", func(t *testing.T) {
		t.Setenv("BR_PORT", "abc")

		_, err := brestapp.ParseEnv[brestapp.BaseEnvironment]()()
		require.ErrorContains(t, err, "failed to parse environment")
	})
}
