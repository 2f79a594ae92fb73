package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"TraderGenie/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8001"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORS            bool          `yaml:"cors" default:"true"`
		RateLimit       float64       `yaml:"rate_limit" default:"20"`
		RateBurst       int           `yaml:"rate_burst" default:"40"`
	} `yaml:"server"`
	Logger struct {
		Level      string `yaml:"level" default:"info"`
		Format     string `yaml:"format" default:"json"`
		Output     string `yaml:"output" default:"stdout"`
		TimeFormat string `yaml:"time_format" default:"2006-01-02T15:04:05.000Z07:00"`
	} `yaml:"logger"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Upstream struct {
		BaseURL      string        `yaml:"base_url" default:"https://api.coingecko.com/api/v3"`
		APIKey       string        `yaml:"api_key"`
		VsCurrency   string        `yaml:"vs_currency" default:"usd"`
		UniverseSize int           `yaml:"universe_size" default:"100"`
		FetchTimeout time.Duration `yaml:"fetch_timeout" default:"30s"`
		Cooldown     time.Duration `yaml:"cooldown" default:"500ms"`
		TTL          struct {
			Short time.Duration `yaml:"short" default:"30s"`
			Long  time.Duration `yaml:"long" default:"120s"`
		} `yaml:"ttl"`
		Breaker struct {
			Enabled     bool          `yaml:"enabled" default:"true"`
			MaxFailures uint32        `yaml:"max_failures" default:"5"`
			OpenTimeout time.Duration `yaml:"open_timeout" default:"30s"`
		} `yaml:"breaker"`
	} `yaml:"upstream"`
	Scanner struct {
		DefaultLimit  int    `yaml:"default_limit" default:"20"`
		MinConfidence int    `yaml:"min_confidence" default:"50"`
		Workers       int    `yaml:"workers" default:"8"`
		Schedule      string `yaml:"schedule"`
		HistorySize   int    `yaml:"history_size" default:"1000"`
	} `yaml:"scanner"`
	Redis struct {
		Enabled        bool          `yaml:"enabled"`
		Host           string        `yaml:"host" default:"localhost"`
		Port           int           `yaml:"port" default:"6379"`
		Password       string        `yaml:"password"`
		DB             int           `yaml:"db"`
		Prefix         string        `yaml:"prefix" default:"tradergenie"`
		StaleRetention time.Duration `yaml:"stale_retention" default:"24h"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"tradergenie.signals"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"snappy"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"50ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"tradergenie"`
		Table            string        `yaml:"table" default:"signals"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
}

// Load reads a YAML file over the defaults and validates the result.
// A missing file is not an error: defaults plus environment still apply.
func Load(path string) (*Config, error) {
	c := &Config{}
	if err := defaults.Set(c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads envFiles (missing ones are skipped), then the YAML
// file, then applies environment overrides.
func LoadWithEnv(path string, envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("APP_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		c.Upstream.APIKey = v
	}
	if v := os.Getenv("COINGECKO_BASE_URL"); v != "" {
		c.Upstream.BaseURL = v
	}
	if v := os.Getenv("SCANNER_LIMIT"); v != "" {
		c.Scanner.DefaultLimit = util.ParseIntDefault(v, c.Scanner.DefaultLimit)
	}
	if v := os.Getenv("SCANNER_MIN_CONFIDENCE"); v != "" {
		c.Scanner.MinConfidence = util.ParseIntDefault(v, c.Scanner.MinConfidence)
	}
	if v := os.Getenv("SCANNER_SCHEDULE"); v != "" {
		c.Scanner.Schedule = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Redis.Enabled = true
		c.Redis.Host = host
		if ok {
			c.Redis.Port = util.ParseIntDefault(port, c.Redis.Port)
		}
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Enabled = true
		c.Kafka.Brokers = util.SplitCSV(v)
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Enabled = true
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if c.Upstream.FetchTimeout <= 0 {
		return fmt.Errorf("upstream.fetch_timeout must be positive")
	}
	if c.Upstream.Cooldown < 0 {
		return fmt.Errorf("upstream.cooldown cannot be negative")
	}
	if c.Upstream.TTL.Short <= 0 || c.Upstream.TTL.Long <= 0 {
		return fmt.Errorf("upstream.ttl values must be positive")
	}
	if c.Upstream.TTL.Long < c.Upstream.TTL.Short {
		return fmt.Errorf("upstream.ttl.long (%s) must not be shorter than ttl.short (%s)", c.Upstream.TTL.Long, c.Upstream.TTL.Short)
	}
	if c.Scanner.MinConfidence < 0 || c.Scanner.MinConfidence > 100 {
		return fmt.Errorf("scanner.min_confidence must be within 0..100, got %d", c.Scanner.MinConfidence)
	}
	if c.Scanner.DefaultLimit <= 0 {
		return fmt.Errorf("scanner.default_limit must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}

// RedisAddr is host:port of the Redis server.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
