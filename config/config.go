package config

import (
	"bufio"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Store     StoreConfig     `mapstructure:"store"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// MatchingConfig holds product matching configuration
type MatchingConfig struct {
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	Strategy            string  `mapstructure:"strategy"` // "greedy" or "linkage"
	TopN                int     `mapstructure:"top_n"`
	TablesFile          string  `mapstructure:"tables_file"`
	StemKeywords        bool    `mapstructure:"stem_keywords"`
	Debug               bool    `mapstructure:"debug"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration (requests per minute)
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
	Feed  int `mapstructure:"feed"`
}

// StoreConfig holds SQLite persistence configuration
type StoreConfig struct {
	DSN string `mapstructure:"dsn"` // empty disables persistence
}

// FeedConfig holds listing feed configuration
type FeedConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pricelens/")

	// PRICELENS_MATCHING_TOP_N -> matching.top_n
	v.SetEnvPrefix("PRICELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := validate(&config); err != nil {
		return nil, eris.Wrap(err, "invalid configuration")
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Matching defaults
	v.SetDefault("matching.similarity_threshold", 0.8)
	v.SetDefault("matching.strategy", "greedy")
	v.SetDefault("matching.top_n", 10)
	v.SetDefault("matching.tables_file", "")
	v.SetDefault("matching.stem_keywords", false)
	v.SetDefault("matching.debug", false)

	v.SetDefault("cache.ttl", "1h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.feed", 60)

	v.SetDefault("store.dsn", "")

	v.SetDefault("feed.base_url", "")
	v.SetDefault("feed.timeout", "30s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// validate validates the configuration
func validate(config *Config) error {
	m := config.Matching
	if m.SimilarityThreshold <= 0 || m.SimilarityThreshold > 1 {
		return eris.Errorf("matching similarity threshold must be in (0, 1], got: %v", m.SimilarityThreshold)
	}

	if m.Strategy != "greedy" && m.Strategy != "linkage" {
		return eris.Errorf("matching strategy must be 'greedy' or 'linkage', got: %s", m.Strategy)
	}

	if m.TopN < 0 {
		return eris.Errorf("matching top_n must not be negative, got: %d", m.TopN)
	}

	if config.Log.Format != "json" && config.Log.Format != "console" {
		return eris.Errorf("log format must be 'json' or 'console', got: %s", config.Log.Format)
	}

	if config.RateLimit.PerIP < 0 || config.RateLimit.Feed < 0 {
		return eris.New("rate limits must not be negative")
	}

	return nil
}

// loadEnvFile loads KEY=VALUE pairs from ./.env without overriding
// variables that are already set. A missing file is not an error.
func loadEnvFile() error {
	f, err := os.Open(".env")
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	return scanner.Err()
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
