package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Google GoogleConfig `yaml:"google" mapstructure:"google"`
	Search SearchConfig `yaml:"search" mapstructure:"search"`
	Export ExportConfig `yaml:"export" mapstructure:"export"`
	Notify NotifyConfig `yaml:"notify" mapstructure:"notify"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// GoogleConfig holds Places API credentials and request pacing.
type GoogleConfig struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// RateLimit is provider requests per second across all tiles.
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	// PageTokenDelay is the minimum wait before a continuation token may
	// be reused. The provider documents ~2s; shortening it causes
	// INVALID_REQUEST failures upstream.
	PageTokenDelay time.Duration `yaml:"page_token_delay" mapstructure:"page_token_delay"`
}

// SearchConfig configures the search pipeline defaults.
type SearchConfig struct {
	Language string `yaml:"language" mapstructure:"language"`
	Region   string `yaml:"region" mapstructure:"region"`
	// CellMeters is the default tile edge for full exports; 0 keeps the
	// viewport as a single tile.
	CellMeters  float64 `yaml:"cell_meters" mapstructure:"cell_meters"`
	PageCap     int     `yaml:"page_cap" mapstructure:"page_cap"`
	Concurrency int     `yaml:"concurrency" mapstructure:"concurrency"`
}

// ExportConfig configures table output.
type ExportConfig struct {
	// Format is "csv" or "xlsx".
	Format string `yaml:"format" mapstructure:"format"`
	OutDir string `yaml:"out_dir" mapstructure:"out_dir"`
}

// NotifyConfig configures the optional notification collaborators.
type NotifyConfig struct {
	WebhookURL string     `yaml:"webhook_url" mapstructure:"webhook_url"`
	SMTP       SMTPConfig `yaml:"smtp" mapstructure:"smtp"`
}

// SMTPConfig holds mail delivery settings.
type SMTPConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	From     string `yaml:"from" mapstructure:"from"`
	To       string `yaml:"to" mapstructure:"to"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
	// AllowedOrigins lists CORS origins for the browser frontend.
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PLACES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Credentials default to empty so the env binding is
	// registered for AutomaticEnv.
	v.SetDefault("google.api_key", "")
	v.SetDefault("google.base_url", "")
	v.SetDefault("notify.webhook_url", "")
	v.SetDefault("google.rate_limit", 10.0)
	v.SetDefault("google.page_token_delay", "2100ms")
	v.SetDefault("search.language", "he")
	v.SetDefault("search.region", "IL")
	v.SetDefault("search.cell_meters", 1500.0)
	v.SetDefault("search.page_cap", 3)
	v.SetDefault("search.concurrency", 4)
	v.SetDefault("export.format", "csv")
	v.SetDefault("export.out_dir", ".")
	v.SetDefault("notify.smtp.port", 587)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks that the credentials and parameters a command scope needs
// are present, before any work starts.
func (c *Config) Validate(scope string) error {
	var missing []string

	switch scope {
	case "search", "export", "serve":
		if c.Google.APIKey == "" {
			missing = append(missing, "google.api_key")
		}
	case "notify":
		if c.Notify.WebhookURL == "" && c.Notify.SMTP.Host == "" {
			missing = append(missing, "notify.webhook_url or notify.smtp.host")
		}
		if c.Notify.SMTP.Host != "" && (c.Notify.SMTP.From == "" || c.Notify.SMTP.To == "") {
			missing = append(missing, "notify.smtp.from", "notify.smtp.to")
		}
	}

	if len(missing) > 0 {
		return eris.Errorf("config: missing required settings for %s: %s", scope, strings.Join(missing, ", "))
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
