package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	OpenAI    OpenAIConfig    `yaml:"openai" mapstructure:"openai"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Discovery DiscoveryConfig `yaml:"discovery" mapstructure:"discovery"`
	Quote     QuoteConfig     `yaml:"quote" mapstructure:"quote"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int           `yaml:"port" mapstructure:"port"`
	Service         string        `yaml:"service" mapstructure:"service"`
	Version         string        `yaml:"version" mapstructure:"version"`
	CORSOrigins     []string      `yaml:"cors_origins" mapstructure:"cors_origins"`
	// RequestTimeout bounds /api requests. Zero disables it.
	RequestTimeout  time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// StoreConfig selects the supplier directory backend.
type StoreConfig struct {
	Driver      string        `yaml:"driver" mapstructure:"driver"` // mongo, sqlite, postgres
	DatabaseURL string        `yaml:"database_url" mapstructure:"database_url"`
	Database    string        `yaml:"database" mapstructure:"database"`
	Collection  string        `yaml:"collection" mapstructure:"collection"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxPoolSize uint64        `yaml:"max_pool_size" mapstructure:"max_pool_size"`
}

// LLMConfig selects the model provider and how calls to it are guarded.
type LLMConfig struct {
	Provider          string        `yaml:"provider" mapstructure:"provider"` // openai, anthropic
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	RetryAttempts     int           `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryBackoff      time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff"`
	RetryMaxBackoff   time.Duration `yaml:"retry_max_backoff" mapstructure:"retry_max_backoff"`
	BreakerThreshold  int           `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerCooldown   time.Duration `yaml:"breaker_cooldown" mapstructure:"breaker_cooldown"`
}

// OpenAIConfig configures the OpenAI-compatible chat client.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// AnthropicConfig configures the Anthropic client.
type AnthropicConfig struct {
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// DiscoveryConfig configures contact discovery.
type DiscoveryConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// QuoteConfig configures the email drafter.
type QuoteConfig struct {
	ShippingAddress string `yaml:"shipping_address" mapstructure:"shipping_address"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// legacyEnv maps config keys to the environment names used by earlier
// deployments. The QUOTE_ name always wins.
var legacyEnv = map[string]string{
	"server.port":        "PORT",
	"openai.api_key":     "OPENAI_API_KEY",
	"store.database_url": "MONGODB_URI",
	"store.database":     "DB_NAME",
	"store.collection":   "COLLECTION_NAME",
}

// Load reads configuration from .env, a YAML file and the environment. An
// empty path looks for an optional config.yaml in the working directory; an
// explicit path must exist.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	v.SetConfigType("yaml")

	// Environment
	v.SetEnvPrefix("QUOTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		envKey := "QUOTE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, legacy); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.service", "Sistema de Cotação IPARTES")
	v.SetDefault("server.version", "2.0.0")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.request_timeout", "0s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("store.driver", "mongo")
	v.SetDefault("store.database_url", "mongodb://localhost:27017")
	v.SetDefault("store.database", "ipartes_cotacao")
	v.SetDefault("store.collection", "suppliers")
	v.SetDefault("store.timeout", "10s")
	v.SetDefault("store.max_pool_size", 10)
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.requests_per_second", 2)
	v.SetDefault("llm.burst", 2)
	v.SetDefault("llm.retry_attempts", 3)
	v.SetDefault("llm.retry_backoff", "1s")
	v.SetDefault("llm.retry_max_backoff", "20s")
	v.SetDefault("llm.breaker_threshold", 5)
	v.SetDefault("llm.breaker_cooldown", "30s")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4")
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("discovery.concurrency", 1)
	v.SetDefault("quote.shipping_address", "SERVER X SYSTEMS\n10451 NW 28th St, Suite F101\nDoral, FL 33172, USA")
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

// Validation modes accepted by Validate.
const (
	ModeServe     = "serve"
	ModeDraft     = "draft"
	ModeDiscover  = "discover"
	ModeDirectory = "directory"
)

// Validate checks the settings a command needs before it starts.
func (c *Config) Validate(mode string) error {
	var problems []string

	needsStore := mode == ModeServe || mode == ModeDiscover || mode == ModeDirectory
	needsLLM := mode == ModeServe || mode == ModeDraft || mode == ModeDiscover

	switch mode {
	case ModeServe, ModeDraft, ModeDiscover, ModeDirectory:
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}

	if mode == ModeServe && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		problems = append(problems, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}

	if needsStore {
		switch c.Store.Driver {
		case "mongo", "sqlite":
		case "postgres":
			if c.Store.DatabaseURL == "" {
				problems = append(problems, "store.database_url is required for postgres")
			}
		default:
			problems = append(problems, fmt.Sprintf("store.driver %q is not one of mongo, sqlite, postgres", c.Store.Driver))
		}
	}

	if needsLLM {
		switch c.LLM.Provider {
		case "openai":
			if c.OpenAI.APIKey == "" {
				problems = append(problems, "openai.api_key is required (QUOTE_OPENAI_API_KEY or OPENAI_API_KEY)")
			}
		case "anthropic":
			if c.Anthropic.APIKey == "" {
				problems = append(problems, "anthropic.api_key is required (QUOTE_ANTHROPIC_API_KEY)")
			}
		default:
			problems = append(problems, fmt.Sprintf("llm.provider %q is not one of openai, anthropic", c.LLM.Provider))
		}
		if c.Discovery.Concurrency < 1 {
			problems = append(problems, "discovery.concurrency must be at least 1")
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
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
