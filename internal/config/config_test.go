package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// chdirTemp switches to an empty temp dir so no config.yaml or .env is found.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	t.Setenv("GOOGLE_MAPS_API_KEY", "")
	t.Setenv("PRAXIS_GEOCODE_API_KEY", "")
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "liste.pdf", cfg.Input.PDF)
	assert.Equal(t, 60, cfg.Input.DownloadTimeoutSecs)
	assert.Equal(t, "aerzte_extracted_structured.csv", cfg.Extract.CSVPath)
	assert.Equal(t, "all", cfg.Extract.Pages)
	assert.Equal(t, "auto", cfg.Extract.Strategy)
	assert.Empty(t, cfg.Geocode.APIKey)
	assert.Equal(t, "https://maps.googleapis.com/maps/api/geocode/json", cfg.Geocode.Endpoint)
	assert.Equal(t, "Chariteplatz 1, 10117 Berlin, Deutschland", cfg.Geocode.CheckAddress)
	assert.Equal(t, 30, cfg.Geocode.TimeoutSecs)
	assert.Zero(t, cfg.Geocode.RateLimit)
	assert.Equal(t, "arztpraxen_berlin.html", cfg.Map.HTMLPath)
	assert.InDelta(t, 52.52, cfg.Map.CenterLat, 0.0001)
	assert.InDelta(t, 13.405, cfg.Map.CenterLng, 0.0001)
	assert.Equal(t, 11, cfg.Map.Zoom)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Empty(t, cfg.Metrics.TextfilePath)
	assert.Empty(t, cfg.Map.ReportPath)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
input:
  pdf: https://example.com/liste.pdf
extract:
  pages: "1-3"
  strategy: stream
map:
  zoom: 13
cache:
  enabled: true
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/liste.pdf", cfg.Input.PDF)
	assert.Equal(t, "1-3", cfg.Extract.Pages)
	assert.Equal(t, "stream", cfg.Extract.Strategy)
	assert.Equal(t, 13, cfg.Map.Zoom)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, "arztpraxen_berlin.html", cfg.Map.HTMLPath)
}

func TestLoadGoogleAPIKeyFromEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("GOOGLE_MAPS_API_KEY", "AIza-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "AIza-test", cfg.Geocode.APIKey)
}

func TestLoadPrefixedAPIKeyWins(t *testing.T) {
	chdirTemp(t)
	t.Setenv("GOOGLE_MAPS_API_KEY", "google-key")
	t.Setenv("PRAXIS_GEOCODE_API_KEY", "praxis-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "praxis-key", cfg.Geocode.APIKey)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
map:
  html_path: from-file.html
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("PRAXIS_MAP_HTML_PATH", "from-env.html")
	t.Setenv("PRAXIS_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-env.html", cfg.Map.HTMLPath)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PRAXIS_SERVER_PORT=3000\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("PRAXIS_SERVER_PORT") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Input.PDF = "liste.pdf"
	cfg.Extract.CSVPath = "out.csv"
	cfg.Extract.Strategy = "auto"
	cfg.Geocode.APIKey = "key"
	cfg.Map.HTMLPath = "map.html"
	cfg.Map.Zoom = 11
	cfg.Server.Port = 8080
	return cfg
}

func TestValidate_AllModesPass(t *testing.T) {
	cfg := validDefaults()
	for _, mode := range []string{"extract", "map", "run", "serve"} {
		assert.NoError(t, cfg.Validate(mode), "mode %s", mode)
	}
}

func TestValidateMap_MissingAPIKey(t *testing.T) {
	cfg := validDefaults()
	cfg.Geocode.APIKey = ""

	err := cfg.Validate("map")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geocode.api_key is required")

	// extract does not need the key
	assert.NoError(t, cfg.Validate("extract"))
}

func TestValidateExtract_BadStrategy(t *testing.T) {
	cfg := validDefaults()
	cfg.Extract.Strategy = "ocr"

	err := cfg.Validate("extract")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `extract.strategy "ocr"`)
}

func TestValidateRun_CollectsAll(t *testing.T) {
	cfg := validDefaults()
	cfg.Input.PDF = ""
	cfg.Geocode.APIKey = ""
	cfg.Map.Zoom = 25

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input.pdf is required")
	assert.Contains(t, err.Error(), "geocode.api_key is required")
	assert.Contains(t, err.Error(), "map.zoom must be between 0 and 19")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
