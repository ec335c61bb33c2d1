package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/star-console/internal/config"
	"github.com/stretchr/testify/require"
)

func TestEnvVars_GetPort(t *testing.T) {
	t.Run("default binds loopback", func(t *testing.T) {
		t.Setenv("PORT", "")
		t.Setenv("HOST", "")
		require.Equal(t, "127.0.0.1:8090", config.EnvVars{}.GetPort())
	})

	t.Run("bare port on loopback", func(t *testing.T) {
		t.Setenv("PORT", "9000")
		t.Setenv("HOST", "")
		require.Equal(t, "127.0.0.1:9000", config.EnvVars{}.GetPort())
	})

	t.Run("colon port on loopback", func(t *testing.T) {
		t.Setenv("PORT", ":9001")
		t.Setenv("HOST", "")
		require.Equal(t, "127.0.0.1:9001", config.EnvVars{}.GetPort())
	})

	t.Run("host override", func(t *testing.T) {
		t.Setenv("PORT", "9002")
		t.Setenv("HOST", "0.0.0.0")
		require.Equal(t, "0.0.0.0:9002", config.EnvVars{}.GetPort())
	})

	t.Run("full address kept", func(t *testing.T) {
		t.Setenv("PORT", "localhost:9003")
		require.Equal(t, "localhost:9003", config.EnvVars{}.GetPort())
	})
}

func TestSession_Durations(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("REFRESH_MARGIN", "")
		t.Setenv("REFRESH_MIN_LEAD", "")
		require.Equal(t, 60*time.Second, config.Session{}.GetRefreshMargin())
		require.Equal(t, time.Second, config.Session{}.GetMinimumRefreshLead())
	})

	t.Run("override", func(t *testing.T) {
		t.Setenv("REFRESH_MARGIN", "2m")
		require.Equal(t, 2*time.Minute, config.Session{}.GetRefreshMargin())
	})

	t.Run("invalid falls back", func(t *testing.T) {
		t.Setenv("REFRESH_MARGIN", "soon")
		require.Equal(t, 60*time.Second, config.Session{}.GetRefreshMargin())
	})
}

func TestStorage_Defaults(t *testing.T) {
	t.Setenv("TOKEN_STORE", "")
	t.Setenv("TOKEN_KEY", "")
	t.Setenv("REDIS_DB", "nope")

	s := config.Storage{}
	require.Equal(t, config.TokenStoreFile, s.GetTokenStore())
	require.Equal(t, "gsor.access_token", s.GetTokenKey())
	require.Equal(t, 0, s.GetRedisDB())
}
