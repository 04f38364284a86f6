package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Input   InputConfig   `yaml:"input" mapstructure:"input"`
	Extract ExtractConfig `yaml:"extract" mapstructure:"extract"`
	Schema  SchemaConfig  `yaml:"schema" mapstructure:"schema"`
	Geocode GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	Map     MapConfig     `yaml:"map" mapstructure:"map"`
	Export  ExportConfig  `yaml:"export" mapstructure:"export"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// InputConfig locates the source PDF. PDF may be a local path or an
// http(s):// or ftp:// URL.
type InputConfig struct {
	PDF                 string `yaml:"pdf" mapstructure:"pdf"`
	DownloadTimeoutSecs int    `yaml:"download_timeout_secs" mapstructure:"download_timeout_secs"`
}

// ExtractConfig configures table extraction (stage A).
type ExtractConfig struct {
	CSVPath  string `yaml:"csv_path" mapstructure:"csv_path"`
	Pages    string `yaml:"pages" mapstructure:"pages"`
	Strategy string `yaml:"strategy" mapstructure:"strategy"`
}

// SchemaConfig points at an optional column schema file.
type SchemaConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// GeocodeConfig holds Google Geocoding API settings.
type GeocodeConfig struct {
	APIKey       string  `yaml:"api_key" mapstructure:"api_key"`
	Endpoint     string  `yaml:"endpoint" mapstructure:"endpoint"`
	CheckAddress string  `yaml:"check_address" mapstructure:"check_address"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit    float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// MapConfig configures map rendering (stage B).
type MapConfig struct {
	HTMLPath      string  `yaml:"html_path" mapstructure:"html_path"`
	GeoJSONPath   string  `yaml:"geojson_path" mapstructure:"geojson_path"`
	ShapefilePath string  `yaml:"shapefile_path" mapstructure:"shapefile_path"`
	ReportPath    string  `yaml:"report_path" mapstructure:"report_path"`
	CenterLat     float64 `yaml:"center_lat" mapstructure:"center_lat"`
	CenterLng     float64 `yaml:"center_lng" mapstructure:"center_lng"`
	Zoom          int     `yaml:"zoom" mapstructure:"zoom"`
	TileURL       string  `yaml:"tile_url" mapstructure:"tile_url"`
	Attribution   string  `yaml:"attribution" mapstructure:"attribution"`
	Title         string  `yaml:"title" mapstructure:"title"`
}

// ExportConfig configures optional extra outputs of stage A.
type ExportConfig struct {
	XLSXPath string `yaml:"xlsx_path" mapstructure:"xlsx_path"`
}

// CacheConfig configures the optional SQLite geocode cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
	TTLDays int    `yaml:"ttl_days" mapstructure:"ttl_days"`
}

// ServerConfig configures the map preview server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// MetricsConfig configures the Prometheus textfile written after each run.
// An empty path disables metrics.
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path" mapstructure:"textfile_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config file and environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: read .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PRAXIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("geocode.api_key", "PRAXIS_GEOCODE_API_KEY", "GOOGLE_MAPS_API_KEY"); err != nil {
		return nil, eris.Wrap(err, "config: bind api key env")
	}

	// Defaults
	v.SetDefault("input.pdf", "liste.pdf")
	v.SetDefault("input.download_timeout_secs", 60)
	v.SetDefault("extract.csv_path", "aerzte_extracted_structured.csv")
	v.SetDefault("extract.pages", "all")
	v.SetDefault("extract.strategy", "auto")
	v.SetDefault("schema.path", "")
	v.SetDefault("geocode.endpoint", "https://maps.googleapis.com/maps/api/geocode/json")
	v.SetDefault("geocode.check_address", "Chariteplatz 1, 10117 Berlin, Deutschland")
	v.SetDefault("geocode.timeout_secs", 30)
	v.SetDefault("geocode.rate_limit", 0)
	v.SetDefault("map.html_path", "arztpraxen_berlin.html")
	v.SetDefault("map.geojson_path", "")
	v.SetDefault("map.shapefile_path", "")
	v.SetDefault("map.report_path", "")
	v.SetDefault("map.center_lat", 52.52)
	v.SetDefault("map.center_lng", 13.405)
	v.SetDefault("map.zoom", 11)
	v.SetDefault("map.tile_url", "https://tile.openstreetmap.org/{z}/{x}/{y}.png")
	v.SetDefault("map.attribution", "&copy; OpenStreetMap contributors")
	v.SetDefault("map.title", "Arztpraxen")
	v.SetDefault("export.xlsx_path", "")
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.path", "geocode_cache.db")
	v.SetDefault("cache.ttl_days", 90)
	v.SetDefault("server.port", 8080)
	v.SetDefault("metrics.textfile_path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the fields a command mode depends on. Modes: "extract",
// "map", "run", "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	extract := func() {
		if c.Input.PDF == "" {
			errs = append(errs, "input.pdf is required")
		}
		if c.Extract.CSVPath == "" {
			errs = append(errs, "extract.csv_path is required")
		}
		switch c.Extract.Strategy {
		case "", "auto", "lattice", "stream":
		default:
			errs = append(errs, fmt.Sprintf("extract.strategy %q must be one of auto, lattice, stream", c.Extract.Strategy))
		}
	}
	mapping := func() {
		if c.Geocode.APIKey == "" {
			errs = append(errs, "geocode.api_key is required (set GOOGLE_MAPS_API_KEY)")
		}
		if c.Map.HTMLPath == "" {
			errs = append(errs, "map.html_path is required")
		}
		if c.Map.Zoom < 0 || c.Map.Zoom > 19 {
			errs = append(errs, "map.zoom must be between 0 and 19")
		}
		if c.Geocode.RateLimit < 0 {
			errs = append(errs, "geocode.rate_limit must be >= 0")
		}
	}

	switch mode {
	case "extract":
		extract()
	case "map":
		mapping()
	case "run":
		extract()
		mapping()
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
