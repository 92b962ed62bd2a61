package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"SERVER_ADDRESS", "POSTGRES_DSN", "SHUTDOWN_TIMEOUT", "ROOT_ITEM_GROUP", "PREFIX_MAX_DEPTH", "SERIALIZE_ALLOCATIONS"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, ":8484", cfg.ServerAddress)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "All Item Groups", cfg.RootItemGroup)
	assert.Equal(t, 32, cfg.PrefixMaxDepth)
	assert.False(t, cfg.SerializeAllocations)
	assert.Error(t, cfg.RequireDSN())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":9000")
	t.Setenv("POSTGRES_DSN", "postgres://localhost/items")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("ROOT_ITEM_GROUP", "Everything")
	t.Setenv("PREFIX_MAX_DEPTH", "8")
	t.Setenv("SERIALIZE_ALLOCATIONS", "true")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.ServerAddress)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "Everything", cfg.RootItemGroup)
	assert.Equal(t, 8, cfg.PrefixMaxDepth)
	assert.True(t, cfg.SerializeAllocations)
	assert.NoError(t, cfg.RequireDSN())
}

func TestLoadInvalid(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value string
	}{
		{name: "Duration", key: "SHUTDOWN_TIMEOUT", value: "soon"},
		{name: "Depth", key: "PREFIX_MAX_DEPTH", value: "deep"},
		{name: "Zero depth", key: "PREFIX_MAX_DEPTH", value: "0"},
		{name: "Boolean", key: "SERIALIZE_ALLOCATIONS", value: "maybe"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)

			_, err := Load()

			assert.Error(t, err)
		})
	}
}
