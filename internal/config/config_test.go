package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvAPIBase, EnvPort, EnvRequestTimeout, EnvLogJSON, EnvLogDebug} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	content := `{
		"api_base": "http://backend:9000/",
		"port": 8081,
		"request_timeout": "45s",
		"log_json": true
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "http://backend:9000/", cfg.APIBase)
	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, 45*time.Second, cfg.Timeout())
	assert.True(t, cfg.LogJSON)
}

func TestLoadConfig_NumericTimeout(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(`{"request_timeout": 90}`), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.Timeout())
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(`{ invalid json }`), 0644))

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIBase, cfg.APIBase)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultRequestTimeout, cfg.Timeout())
	assert.False(t, cfg.LogJSON)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAPIBase, "http://from-env:8000/")
	t.Setenv(EnvRequestTimeout, "10s")

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(`{"api_base":"http://from-file:8000","port":4000}`), 0644))

	cfg, err := Load(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, "http://from-env:8000", cfg.APIBase)
	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.Timeout())
}

func TestLoad_InvalidBaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAPIBase, "not a url")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_base")
}

func TestFromEnv_IgnoresGarbage(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvPort, "eighty")
	t.Setenv(EnvRequestTimeout, "soon")
	t.Setenv(EnvLogDebug, "true")

	cfg := FromEnv()
	assert.Equal(t, 0, cfg.Port)
	assert.Equal(t, Duration(0), cfg.RequestTimeout)
	assert.True(t, cfg.LogDebug)
}

func TestValidate_PortRange(t *testing.T) {
	cfg := Defaults()
	cfg.Port = 70000

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{APIBase: "http://custom:1"}
	result := cfg.MergeWithDefaults(Defaults())

	assert.Equal(t, "http://custom:1", result.APIBase)
	assert.Equal(t, DefaultPort, result.Port)
	assert.Equal(t, Duration(DefaultRequestTimeout), result.RequestTimeout)
}

func TestMergeWithDefaults_EmptyDefaults(t *testing.T) {
	cfg := Config{Port: 1234, LogDebug: true}
	result := cfg.MergeWithDefaults(Config{})

	assert.Equal(t, "", result.APIBase)
	assert.Equal(t, 1234, result.Port)
	assert.True(t, result.LogDebug)
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://localhost:8000/", "http://localhost:8000"},
		{"http://localhost:8000", "http://localhost:8000"},
		{"  https://api.example.com/v1/  ", "https://api.example.com/v1"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeBaseURL(tt.in), tt.in)
	}
}
