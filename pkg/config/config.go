package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Log         struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Collector struct {
		QlibDir        string        `yaml:"qlib_dir"`
		CacheDir       string        `yaml:"cache_dir"`
		RosterCacheTTL time.Duration `yaml:"roster_cache_ttl"`
		FetchTimeout   time.Duration `yaml:"fetch_timeout"`
		RetryMax       int           `yaml:"retry_max"`
		RetryBackoff   time.Duration `yaml:"retry_backoff"`
		CronSpec       string        `yaml:"cron_spec"`
	} `yaml:"collector"`
	HealthCheck struct {
		PriceStepThreshold  float64 `yaml:"price_step_threshold"`
		VolumeStepThreshold float64 `yaml:"volume_step_threshold"`
		MissingAllowance    int     `yaml:"missing_allowance"`
	} `yaml:"health_check"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	return &c, nil
}

// Default returns a config with defaults applied, for flag-only invocations
// without a config file.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("QLIB_DIR"); v != "" {
		c.Collector.QlibDir = v
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		c.Collector.CacheDir = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Redis.Host = host
		if ok {
			fmt.Sscanf(port, "%d", &c.Redis.Port)
		}
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
	if c.Collector.RosterCacheTTL <= 0 {
		c.Collector.RosterCacheTTL = 4 * time.Hour
	}
	if c.Collector.FetchTimeout <= 0 {
		c.Collector.FetchTimeout = 30 * time.Second
	}
	if c.Collector.RetryMax <= 0 {
		c.Collector.RetryMax = 5
	}
	if c.Collector.RetryBackoff <= 0 {
		c.Collector.RetryBackoff = time.Second
	}
}

// Validate checks backend settings that apply to every run mode. The
// health check method works off a plain CSV directory, so the collector
// directories are validated separately by ValidateCollector.
func (c *Config) Validate() error {
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required when brokers are set")
	}
	if c.ClickHouse.Host != "" && c.ClickHouse.Database == "" {
		return fmt.Errorf("clickhouse.database is required when host is set")
	}
	return nil
}

// ValidateCollector checks the settings the collection methods need on
// top of Validate.
func (c *Config) ValidateCollector() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Collector.QlibDir == "" {
		return fmt.Errorf("collector.qlib_dir is required")
	}
	if c.Collector.CacheDir == "" {
		return fmt.Errorf("collector.cache_dir is required")
	}
	return nil
}

// KafkaEnabled reports whether Kafka publishing is configured.
func (c *Config) KafkaEnabled() bool { return len(c.Kafka.Brokers) > 0 }

// ClickHouseEnabled reports whether the history store is configured.
func (c *Config) ClickHouseEnabled() bool { return c.ClickHouse.Host != "" }
