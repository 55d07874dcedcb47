package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"bizhub_backend/pkg/utils"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds every setting read from the environment at startup.
type Config struct {
	AppEnv  string
	Port    string
	GinMode string

	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSSLMode      string
	DBSchemaPath   string
	DBMaxOpenConns int

	JWTSecret          string
	CORSAllowedOrigins []string

	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	AnalyticsCacheTTL time.Duration

	AllowOversell            bool
	DefaultTopProducts       int
	DefaultExpiryHorizonDays int
	ReportLocation           *time.Location

	LogLevel  string
	LogPretty bool
}

// Load reads the configuration. When APP_ENV is "local", .env.local is loaded first.
func Load() (*Config, error) {
	appEnv := utils.Getenv("APP_ENV", "development")
	if appEnv == "local" {
		if err := godotenv.Load(".env.local"); err != nil {
			log.Warn().Err(err).Msg(".env.local not loaded, relying on system environment variables")
		}
	}

	loc, err := time.LoadLocation(utils.Getenv("REPORT_TIMEZONE", "UTC"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AppEnv:  appEnv,
		Port:    utils.Getenv("PORT", "8080"),
		GinMode: utils.Getenv("GIN_MODE", "release"),

		DBHost:         utils.Getenv("DB_HOST", "localhost"),
		DBPort:         utils.Getenv("DB_PORT", "5432"),
		DBUser:         utils.Getenv("DB_USER", "postgres"),
		DBPassword:     utils.Getenv("DB_PASSWORD", ""),
		DBName:         utils.Getenv("DB_NAME", "bizhub"),
		DBSSLMode:      utils.Getenv("DB_SSLMODE", "disable"),
		DBSchemaPath:   os.Getenv("DB_SCHEMA_PATH"),
		DBMaxOpenConns: getInt("DB_MAX_OPEN_CONNS", 20),

		JWTSecret:          os.Getenv("JWT_SECRET"),
		CORSAllowedOrigins: splitList(utils.Getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),

		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getInt("REDIS_DB", 0),
		AnalyticsCacheTTL: getDuration("ANALYTICS_CACHE_TTL", 5*time.Minute),

		AllowOversell:            getBool("ALLOW_OVERSELL", false),
		DefaultTopProducts:       getInt("DEFAULT_TOP_PRODUCTS", 10),
		DefaultExpiryHorizonDays: getInt("DEFAULT_EXPIRY_HORIZON_DAYS", 7),
		ReportLocation:           loc,

		LogLevel:  utils.Getenv("LOG_LEVEL", "info"),
		LogPretty: getBool("LOG_PRETTY", appEnv == "local"),
	}
	return cfg, nil
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(utils.Getenv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(utils.Getenv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(utils.Getenv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
