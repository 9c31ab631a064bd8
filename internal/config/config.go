package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for our application
type Config struct {
	Port                      string
	Origin                    string
	Environment               string
	JWTSecret                 string
	JWTRefreshSecret          string
	JWTExpirationMinutes      int
	JWTRefreshExpirationHours int
	SeedDemoUsers             bool
	Database                  DatabaseConfig
	Risk                      RiskConfig
	Assistant                 AssistantConfig
	Redis                     RedisConfig
	MQTT                      MQTTConfig
	Log                       LogConfig
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// RiskConfig selects the classifier and trend defaults.
type RiskConfig struct {
	Strategy    string
	ModelPath   string
	TrendWindow int
}

// AssistantConfig configures the Gemini client.
type AssistantConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// RedisConfig is empty-Addr when redis is not used.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	StatusTTL time.Duration
}

// MQTTConfig is empty-Broker when device ingest is disabled.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	dbConfig := DatabaseConfig{
		Driver:   strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		Host:     getEnv("DB_HOST", "localhost"),
		Username: getEnv("DB_USERNAME", "root"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "vitalmine"),
	}
	switch dbConfig.Driver {
	case "mysql":
		dbConfig.Port = getEnv("DB_PORT", "3306")
		dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)
	case "postgres":
		dbConfig.Port = getEnv("DB_PORT", "5432")
		dbConfig.DSN = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			dbConfig.Host, dbConfig.Username, dbConfig.Password, dbConfig.Name, dbConfig.Port, getEnv("DB_SSLMODE", "disable"))
	default:
		return nil, fmt.Errorf("invalid DB_DRIVER %q: want mysql or postgres", dbConfig.Driver)
	}

	jwtExpMinutes, err := getInt("JWT_EXPIRATION_MINUTES", 15)
	if err != nil {
		return nil, err
	}
	jwtRefreshExpHours, err := getInt("JWT_REFRESH_EXPIRATION_HOURS", 168) // 7 days
	if err != nil {
		return nil, err
	}

	riskConfig := RiskConfig{
		Strategy:  strings.ToLower(getEnv("RISK_STRATEGY", "rule")),
		ModelPath: getEnv("MODEL_PATH", "sepsis_model.json"),
	}
	if riskConfig.Strategy != "rule" && riskConfig.Strategy != "model" {
		return nil, fmt.Errorf("invalid RISK_STRATEGY %q: want rule or model", riskConfig.Strategy)
	}
	if riskConfig.TrendWindow, err = getInt("TREND_WINDOW", 20); err != nil {
		return nil, err
	}
	if riskConfig.TrendWindow <= 0 {
		return nil, fmt.Errorf("invalid TREND_WINDOW: must be positive")
	}

	assistantTimeout, err := getInt("ASSISTANT_TIMEOUT_SECONDS", 20)
	if err != nil {
		return nil, err
	}

	redisDB, err := getInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	statusTTL, err := getInt("STATUS_CACHE_TTL_MINUTES", 1440)
	if err != nil {
		return nil, err
	}

	seed, err := strconv.ParseBool(getEnv("SEED_DEMO_USERS", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid SEED_DEMO_USERS: %w", err)
	}

	return &Config{
		Port:                      getEnv("PORT", "5000"),
		Origin:                    getEnv("ORIGIN", "http://localhost:4200"),
		Environment:               getEnv("APP_ENV", "development"),
		JWTSecret:                 getEnv("JWT_SECRET", "default_jwt_secret"),
		JWTRefreshSecret:          getEnv("JWT_REFRESH_SECRET", "default_refresh_secret"),
		JWTExpirationMinutes:      jwtExpMinutes,
		JWTRefreshExpirationHours: jwtRefreshExpHours,
		SeedDemoUsers:             seed,
		Database:                  dbConfig,
		Risk:                      riskConfig,
		Assistant: AssistantConfig{
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			BaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			Timeout: time.Duration(assistantTimeout) * time.Second,
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", ""),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        redisDB,
			StatusTTL: time.Duration(statusTTL) * time.Minute,
		},
		MQTT: MQTTConfig{
			Broker:   getEnv("MQTT_BROKER", ""),
			ClientID: getEnv("MQTT_CLIENT_ID", "vitalmine-server"),
			Username: getEnv("MQTT_USERNAME", ""),
			Password: getEnv("MQTT_PASSWORD", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

// IsDevelopment reports whether cookies may be sent without Secure.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	n, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
