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
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	RateSource struct {
		URL          string        `yaml:"url"`
		RateSelector string        `yaml:"rate_selector"`
		DateSelector string        `yaml:"date_selector"`
		UserAgent    string        `yaml:"user_agent"`
		Timeout      time.Duration `yaml:"timeout"`
		TermYears    int           `yaml:"term_years"`
		RateType     string        `yaml:"rate_type"`
		MinInterval  time.Duration `yaml:"min_interval"`
	} `yaml:"rate_source"`
	Schedule struct {
		Timezone     string        `yaml:"timezone"`
		StartHour    int           `yaml:"start_hour"`
		EndHour      int           `yaml:"end_hour"`
		TickInterval time.Duration `yaml:"tick_interval"`
		TickerOn     bool          `yaml:"ticker_on"`
		ServiceToken string        `yaml:"service_token"`
	} `yaml:"schedule"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		JWTIssuer string `yaml:"jwt_issuer"`
	} `yaml:"auth"`
	Postgres struct {
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Database     string        `yaml:"database"`
		User         string        `yaml:"user"`
		Password     string        `yaml:"password"`
		SSLMode      string        `yaml:"ssl_mode"`
		MaxConns     int           `yaml:"max_conns"`
		MinConns     int           `yaml:"min_conns"`
		DialTimeout  time.Duration `yaml:"dial_timeout"`
		QueryTimeout time.Duration `yaml:"query_timeout"`
	} `yaml:"postgres"`
	Kafka struct {
		Enabled            bool     `yaml:"enabled"`
		Brokers            []string `yaml:"brokers"`
		ObservationsTopic  string   `yaml:"observations_topic"`
		NotificationsTopic string   `yaml:"notifications_topic"`
		RequiredAcks       int      `yaml:"required_acks"`
		Compression        string   `yaml:"compression"`
		Producer           struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchSize    int           `yaml:"batch_size"`
			BatchBytes   int           `yaml:"batch_bytes"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Cache struct {
		LatestTTL    time.Duration `yaml:"latest_ttl"`
		AnalyticsTTL time.Duration `yaml:"analytics_ttl"`
		Redis        struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
}

func load(path string) (*Config, error) {
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

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := load(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables. Validation runs after the overrides so secrets may come
// from the environment alone.
func LoadWithEnv(path string) (*Config, error) {
	c, err := load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("RATE_SOURCE_URL"); v != "" {
		c.RateSource.URL = v
	}
	if v := os.Getenv("SERVICE_TOKEN"); v != "" {
		c.Schedule.ServiceToken = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("POSTGRES_HOST"); v != "" {
		c.Postgres.Host = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		c.Postgres.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.RateSource.RateSelector == "" {
		c.RateSource.RateSelector = ".current-mtg-rate .rate"
	}
	if c.RateSource.DateSelector == "" {
		c.RateSource.DateSelector = ".current-mtg-rate .rate-date"
	}
	if c.RateSource.TermYears == 0 {
		c.RateSource.TermYears = 30
	}
	if c.RateSource.RateType == "" {
		c.RateSource.RateType = "fixed"
	}
	if c.RateSource.Timeout == 0 {
		c.RateSource.Timeout = 15 * time.Second
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = "America/New_York"
	}
	if c.Schedule.StartHour == 0 && c.Schedule.EndHour == 0 {
		c.Schedule.StartHour = 8
		c.Schedule.EndHour = 18
	}
	if c.Schedule.TickInterval == 0 {
		c.Schedule.TickInterval = time.Hour
	}
	if c.Cache.LatestTTL == 0 {
		c.Cache.LatestTTL = 5 * time.Minute
	}
	if c.Cache.AnalyticsTTL == 0 {
		c.Cache.AnalyticsTTL = time.Minute
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.RateSource.URL == "" {
		return fmt.Errorf("rate_source.url is required")
	}
	if c.RateSource.TermYears <= 0 {
		return fmt.Errorf("rate_source.term_years must be positive, got %d", c.RateSource.TermYears)
	}
	if c.Schedule.StartHour < 0 || c.Schedule.StartHour > 23 ||
		c.Schedule.EndHour < 1 || c.Schedule.EndHour > 24 ||
		c.Schedule.StartHour >= c.Schedule.EndHour {
		return fmt.Errorf("schedule window %02d-%02d is invalid", c.Schedule.StartHour, c.Schedule.EndHour)
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	if c.Schedule.ServiceToken == "" {
		return fmt.Errorf("schedule.service_token is required")
	}
	if c.Postgres.Host == "" {
		return fmt.Errorf("postgres.host is required")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
