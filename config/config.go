package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Port            string
	HTTPBindAddr    string
	Environment     string
	APIEnabled      bool
	WorkerEnabled   bool
	LoggingConfig   LoggingConfig
	PostgresConfig  PostgresConfig
	Neo4jConfig     Neo4jConfig
	RedisConfig     RedisConfig
	WorkerConfig    WorkerConfig
	CollectorConfig CollectorConfig
	SweepConfig     SweepConfig
	NetworkConfig   NetworkConfig
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	Enabled  bool
}

// URL renders the configuration as a connection URL for the pgx driver.
func (c PostgresConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// Neo4jConfig holds Neo4j connection configuration
type Neo4jConfig struct {
	URI      string
	User     string
	Password string
	Enabled  bool
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host      string
	Port      string
	Password  string
	DB        int
	QueueName string
}

// Addr returns the host:port address of the Redis server.
func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// WorkerConfig holds worker pool configuration
type WorkerConfig struct {
	Concurrency     int
	JobTimeout      time.Duration
	ShutdownTimeout time.Duration
	OutputDir       string
}

// CollectorConfig holds pricing API client configuration
type CollectorConfig struct {
	BaseURL      string
	Token        string
	Currency     string
	Limit        int
	RequestDelay time.Duration
	HTTPTimeout  time.Duration
	CacheTTL     time.Duration
}

// SweepConfig holds the recurring collection sweep schedule. Day offsets are
// relative to the day the sweep fires.
type SweepConfig struct {
	Enabled      bool
	Cron         string
	Origin       string
	Destination  string
	Leg1FromDays int
	Leg1ToDays   int
	Leg2FromDays int
	Leg2ToDays   int
}

// NetworkConfig holds airport proximity network build configuration
type NetworkConfig struct {
	AirportsFile  string
	MaxDistanceKm float64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	loggingConfig := LoggingConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "json"),
	}

	postgresConfig := PostgresConfig{
		Host:     getEnv("DB_HOST", "postgres"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "viafly"),
		Password: getEnv("DB_PASSWORD", ""),
		DBName:   getEnv("DB_NAME", "viafly"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
		Enabled:  getBool("DB_ENABLED", false),
	}

	neo4jConfig := Neo4jConfig{
		URI:      getEnv("NEO4J_URI", "bolt://neo4j:7687"),
		User:     getEnv("NEO4J_USER", "neo4j"),
		Password: getEnv("NEO4J_PASSWORD", ""),
		Enabled:  getBool("NEO4J_ENABLED", false),
	}

	redisConfig := RedisConfig{
		Host:      getEnv("REDIS_HOST", "redis"),
		Port:      getEnv("REDIS_PORT", "6379"),
		Password:  getEnv("REDIS_PASSWORD", ""),
		DB:        getInt("REDIS_DB", 0),
		QueueName: getEnv("REDIS_QUEUE_NAME", "viafly:jobs"),
	}

	workerConfig := WorkerConfig{
		Concurrency:     getInt("WORKER_CONCURRENCY", 2),
		JobTimeout:      getDuration("WORKER_JOB_TIMEOUT", 30*time.Minute),
		ShutdownTimeout: getDuration("WORKER_SHUTDOWN_TIMEOUT", 30*time.Second),
		OutputDir:       getEnv("WORKER_OUTPUT_DIR", "data"),
	}

	collectorConfig := CollectorConfig{
		BaseURL:      getEnv("PRICES_API_URL", "https://api.travelpayouts.com/aviasales/v3/prices_for_dates"),
		Token:        getEnv("TRAVELPAYOUTS_TOKEN", ""),
		Currency:     getEnv("PRICES_CURRENCY", "RUB"),
		Limit:        getInt("PRICES_LIMIT", 1000),
		RequestDelay: getDuration("PRICES_REQUEST_DELAY", 500*time.Millisecond),
		HTTPTimeout:  getDuration("PRICES_HTTP_TIMEOUT", 10*time.Second),
		CacheTTL:     getDuration("PRICES_CACHE_TTL", 6*time.Hour),
	}

	sweepConfig := SweepConfig{
		Enabled:      getBool("SWEEP_ENABLED", false),
		Cron:         getEnv("SWEEP_CRON", "0 3 * * *"),
		Origin:       getEnv("SWEEP_ORIGIN", ""),
		Destination:  getEnv("SWEEP_DESTINATION", ""),
		Leg1FromDays: getInt("SWEEP_LEG1_FROM_DAYS", 14),
		Leg1ToDays:   getInt("SWEEP_LEG1_TO_DAYS", 21),
		Leg2FromDays: getInt("SWEEP_LEG2_FROM_DAYS", 24),
		Leg2ToDays:   getInt("SWEEP_LEG2_TO_DAYS", 35),
	}

	networkConfig := NetworkConfig{
		AirportsFile:  getEnv("AIRPORTS_FILE", "data/airports.json"),
		MaxDistanceKm: getFloat("NETWORK_MAX_DISTANCE_KM", 100),
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		HTTPBindAddr:    getEnv("HTTP_BIND_ADDR", ""),
		Environment:     getEnv("ENVIRONMENT", "development"),
		APIEnabled:      getBool("API_ENABLED", true),
		WorkerEnabled:   getBool("WORKER_ENABLED", true),
		LoggingConfig:   loggingConfig,
		PostgresConfig:  postgresConfig,
		Neo4jConfig:     neo4jConfig,
		RedisConfig:     redisConfig,
		WorkerConfig:    workerConfig,
		CollectorConfig: collectorConfig,
		SweepConfig:     sweepConfig,
		NetworkConfig:   networkConfig,
	}, nil
}

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getBool(key string, defaultValue bool) bool {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getInt(key string, defaultValue int) int {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getFloat(key string, defaultValue float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
