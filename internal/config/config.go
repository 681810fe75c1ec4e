package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Redis      RedisConfig      `yaml:"redis"`
	Agent      AgentConfig      `yaml:"agent"`
	Oracle     OracleConfig     `yaml:"oracle"`
	MarketData MarketDataConfig `yaml:"market_data"`
	Store      StoreConfig      `yaml:"store"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host           string `yaml:"host"`
	Port           string `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	DBName         string `yaml:"dbname"`
	SSLMode        string `yaml:"sslmode"`
	MigrationsPath string `yaml:"migrations_path"`
}

// KafkaConfig holds Kafka configuration. Events go to Topic, evaluation
// requests are read from RequestTopic.
type KafkaConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Brokers      []string `yaml:"brokers"`
	Topic        string   `yaml:"topic"`
	RequestTopic string   `yaml:"request_topic"`
	GroupID      string   `yaml:"group_id"`
}

// RedisConfig holds the price cache connection
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// AgentConfig holds decision engine settings and the default agent
type AgentConfig struct {
	Name                string        `yaml:"name"`
	InitialBalance      string        `yaml:"initial_balance"`
	ConfidenceThreshold float64       `yaml:"confidence_threshold"`
	SizingDivisor       int64         `yaml:"sizing_divisor"`
	Period              string        `yaml:"period"`
	Interval            string        `yaml:"interval"`
	FetchTimeout        time.Duration `yaml:"fetch_timeout"`
	OracleTimeout       time.Duration `yaml:"oracle_timeout"`
}

// OracleConfig selects the recommendation provider: mistral, openai or none
type OracleConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Verbose  bool   `yaml:"verbose"`
}

// MarketDataConfig selects the market data source: auto, yahoo or simulated
type MarketDataConfig struct {
	Source        string        `yaml:"source"`
	PriceCacheTTL time.Duration `yaml:"price_cache_ttl"`
	Seed          int64         `yaml:"seed"`
}

// StoreConfig selects where ledger state is saved: file or postgres
type StoreConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			Host: "0.0.0.0",
		},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           "5432",
			User:           "postgres",
			Password:       "postgres",
			DBName:         "papertrader",
			SSLMode:        "disable",
			MigrationsPath: "file://db/migrations",
		},
		Kafka: KafkaConfig{
			Brokers:      []string{"localhost:9092"},
			Topic:        "paper-trader-events",
			RequestTopic: "paper-trader-requests",
			GroupID:      "paper-trader",
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "paper-trader:",
		},
		Agent: AgentConfig{
			Name:                "default",
			InitialBalance:      "10000",
			ConfidenceThreshold: 0.5,
			SizingDivisor:       10,
			Period:              "1mo",
			Interval:            "1d",
			FetchTimeout:        10 * time.Second,
			OracleTimeout:       30 * time.Second,
		},
		Oracle: OracleConfig{
			Provider: "none",
		},
		MarketData: MarketDataConfig{
			Source:        "auto",
			PriceCacheTTL: 60 * time.Second,
		},
		Store: StoreConfig{
			Backend: "file",
			Path:    "data/ledgers",
		},
	}
}

// Load builds the configuration from defaults, the YAML file named by
// CONFIG_FILE if set, and environment variables, in that order. A .env
// file in the working directory is loaded into the environment first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadFromEnv() {
	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)

	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.DBName = getEnv("DB_NAME", c.Database.DBName)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.MigrationsPath = getEnv("DB_MIGRATIONS_PATH", c.Database.MigrationsPath)

	c.Kafka.Enabled = getEnvBool("KAFKA_ENABLED", c.Kafka.Enabled)
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.Kafka.Brokers = splitList(brokers)
	}
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)
	c.Kafka.RequestTopic = getEnv("KAFKA_REQUEST_TOPIC", c.Kafka.RequestTopic)
	c.Kafka.GroupID = getEnv("KAFKA_GROUP_ID", c.Kafka.GroupID)

	c.Redis.Enabled = getEnvBool("REDIS_ENABLED", c.Redis.Enabled)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = int(getEnvInt("REDIS_DB", int64(c.Redis.DB)))
	c.Redis.Prefix = getEnv("REDIS_PREFIX", c.Redis.Prefix)

	c.Agent.Name = getEnv("AGENT_NAME", c.Agent.Name)
	c.Agent.InitialBalance = getEnv("INITIAL_BALANCE", c.Agent.InitialBalance)
	c.Agent.ConfidenceThreshold = getEnvFloat("CONFIDENCE_THRESHOLD", c.Agent.ConfidenceThreshold)
	c.Agent.SizingDivisor = getEnvInt("SIZING_DIVISOR", c.Agent.SizingDivisor)
	c.Agent.Period = getEnv("MARKET_PERIOD", c.Agent.Period)
	c.Agent.Interval = getEnv("MARKET_INTERVAL", c.Agent.Interval)
	c.Agent.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", c.Agent.FetchTimeout)
	c.Agent.OracleTimeout = getEnvDuration("ORACLE_TIMEOUT", c.Agent.OracleTimeout)

	c.Oracle.Provider = getEnv("ORACLE_PROVIDER", c.Oracle.Provider)
	c.Oracle.APIKey = getEnv("ORACLE_API_KEY", c.Oracle.APIKey)
	c.Oracle.Model = getEnv("ORACLE_MODEL", c.Oracle.Model)
	c.Oracle.BaseURL = getEnv("ORACLE_BASE_URL", c.Oracle.BaseURL)
	c.Oracle.Verbose = getEnvBool("ORACLE_VERBOSE", c.Oracle.Verbose)

	c.MarketData.Source = getEnv("MARKET_DATA_SOURCE", c.MarketData.Source)
	c.MarketData.PriceCacheTTL = getEnvDuration("PRICE_CACHE_TTL", c.MarketData.PriceCacheTTL)
	c.MarketData.Seed = getEnvInt("MARKET_SEED", c.MarketData.Seed)

	c.Store.Backend = getEnv("STORE_BACKEND", c.Store.Backend)
	c.Store.Path = getEnv("STORE_PATH", c.Store.Path)
}

// Validate checks values that would otherwise fail late
func (c *Config) Validate() error {
	if _, err := c.Agent.Balance(); err != nil {
		return err
	}
	if c.Agent.ConfidenceThreshold < 0 || c.Agent.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold must be within [0, 1], got %v", c.Agent.ConfidenceThreshold)
	}
	switch c.Oracle.Provider {
	case "none", "mistral", "openai":
	default:
		return fmt.Errorf("unknown oracle provider %q", c.Oracle.Provider)
	}
	switch c.MarketData.Source {
	case "auto", "yahoo", "simulated":
	default:
		return fmt.Errorf("unknown market data source %q", c.MarketData.Source)
	}
	switch c.Store.Backend {
	case "file", "postgres":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}

// Balance parses the configured initial balance
func (a AgentConfig) Balance() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(a.InitialBalance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid initial balance %q: %w", a.InitialBalance, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("initial balance must not be negative, got %s", d)
	}
	return d, nil
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Printf("Ignoring invalid %s=%q", key, value)
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
		log.Printf("Ignoring invalid %s=%q", key, value)
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Printf("Ignoring invalid %s=%q", key, value)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Ignoring invalid %s=%q", key, value)
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
