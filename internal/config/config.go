package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Amazon    AmazonConfig    `yaml:"amazon" mapstructure:"amazon"`
	Etsy      EtsyConfig      `yaml:"etsy" mapstructure:"etsy"`
	Import    ImportConfig    `yaml:"import" mapstructure:"import"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string     `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string     `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string     `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	Pool        PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig holds the classification service settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// AmazonConfig holds the Rainforest product API settings for the
// Amazon adapter.
type AmazonConfig struct {
	APIKey      string `yaml:"api_key" mapstructure:"api_key"`
	AffiliateID string `yaml:"affiliate_id" mapstructure:"affiliate_id"`
	MaxResults  int    `yaml:"max_results" mapstructure:"max_results"`
	RateLimit   int    `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per minute
}

// EtsyConfig holds the Etsy Open API settings for the Etsy adapter.
type EtsyConfig struct {
	APIKey      string `yaml:"api_key" mapstructure:"api_key"`
	AffiliateID string `yaml:"affiliate_id" mapstructure:"affiliate_id"` // Awin affiliate id
	MaxResults  int    `yaml:"max_results" mapstructure:"max_results"`
	RateLimit   int    `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per minute
}

// ImportConfig configures pipeline behavior.
type ImportConfig struct {
	DescriptionMaxLength int    `yaml:"description_max_length" mapstructure:"description_max_length"`
	ErrorSampleSize      int    `yaml:"error_sample_size" mapstructure:"error_sample_size"`
	DataDir              string `yaml:"data_dir" mapstructure:"data_dir"`
}

// FetchConfig configures remote feed downloads for file imports.
type FetchConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// ServerConfig configures the status/webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// setDefaults registers every default on a viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.sqlite_path", "ingest.db")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("amazon.max_results", 50)
	v.SetDefault("amazon.rate_limit", 10)
	v.SetDefault("etsy.max_results", 50)
	v.SetDefault("etsy.rate_limit", 10)
	v.SetDefault("import.description_max_length", 500)
	v.SetDefault("import.error_sample_size", 10)
	v.SetDefault("import.data_dir", "data")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.user_agent", "ingest-cli/1.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads configuration from config.yaml and the environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("INGEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

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

// Default returns a Config populated with defaults only, used by
// `config init` to scaffold a starter config.yaml.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
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
