package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmb-docgen/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 2, cfg.Queue.Ceiling)
	assert.Equal(t, "templates", cfg.Templates.Dir)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3001"}, cfg.Server.AllowOrigins)
}

func TestLoadAllowOrigins(t *testing.T) {
	t.Setenv("ALLOW_ORIGINS", " https://app.example.com , https://admin.example.com ,")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"https://app.example.com", "https://admin.example.com"},
		cfg.Server.AllowOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("QUEUE_CEILING", "4")
	t.Setenv("GOTENBERG_TIMEOUT", "not-a-duration")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 4, cfg.Queue.Ceiling)
	assert.Equal(t, "30s", cfg.Gotenberg.ParsedTimeout().String())
}
