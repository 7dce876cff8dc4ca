package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pthm/hxadmin/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = strings.Repeat("ab", 32)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HXADMIN_SECRET_KEY", testKey)

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, "http://localhost:8080/api", cfg.APIRoot)
	assert.Len(t, cfg.SecretKey, 32)
	assert.Equal(t, 10*time.Second, cfg.ReadTimeout)
	assert.False(t, cfg.DevAPI)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("HXADMIN_SECRET_KEY", testKey)
	t.Setenv("HXADMIN_ADDR", ":9000")
	t.Setenv("HXADMIN_API_ROOT", "https://api.example.com")
	t.Setenv("HXADMIN_PAGE_SIZE", "25")
	t.Setenv("HXADMIN_DEV_API", "true")
	t.Setenv("HXADMIN_WRITE_TIMEOUT", "5s")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "https://api.example.com", cfg.APIRoot)
	assert.Equal(t, 25, cfg.PageSize)
	assert.True(t, cfg.DevAPI)
	assert.Equal(t, 5*time.Second, cfg.WriteTimeout)
}

func TestLoad_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("HXADMIN_API_TOKEN=from-dotenv\nHXADMIN_SECRET_KEY="+testKey+"\n"), 0o600))
	// godotenv does not override variables that are already set, and
	// t.Setenv restores them after the test.
	t.Setenv("HXADMIN_API_TOKEN", "")
	require.NoError(t, os.Unsetenv("HXADMIN_API_TOKEN"))
	t.Setenv("HXADMIN_SECRET_KEY", "")
	require.NoError(t, os.Unsetenv("HXADMIN_SECRET_KEY"))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.APIToken)
}

func TestLoad_MissingDotEnvIsIgnored(t *testing.T) {
	t.Setenv("HXADMIN_DEBUG", "true")

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"no secret outside debug", map[string]string{}},
		{"secret not hex", map[string]string{"HXADMIN_SECRET_KEY": "zz"}},
		{"secret too short", map[string]string{"HXADMIN_SECRET_KEY": "abcd"}},
		{"bad page size", map[string]string{"HXADMIN_SECRET_KEY": testKey, "HXADMIN_PAGE_SIZE": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load("")
			assert.Error(t, err)
		})
	}
}
