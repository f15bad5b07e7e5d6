package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env       string
	Server    ServerConfig
	Mongo     MongoConfig
	JWT       JWTConfig
	Log       LogConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	SMS       SMSConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

func (s ServerConfig) Address() string {
	return ":" + s.Port
}

type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	// Per-IP limit applied to the /auth routes.
	AuthRequestsPerMinute int
	AuthBurst             int
}

// SMSConfig configures the Textbelt notifier. The API key is read once here
// and handed to the notifier at construction.
type SMSConfig struct {
	Enabled  bool
	APIKey   string
	Endpoint string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, bool, error) {
	dotenvLoaded := godotenv.Load() == nil

	cfg := &Config{
		Env: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Port:            getEnv("API_PORT", "8080"),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Mongo: MongoConfig{
			URI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGO_DATABASE", "telehealth"),
			ConnectTimeout: getEnvDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			TTL:    getEnvDuration("JWT_TTL", 24*time.Hour),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:8081"}),
		},
		RateLimit: RateLimitConfig{
			AuthRequestsPerMinute: getEnvInt("RATE_LIMIT_AUTH_RPM", 20),
			AuthBurst:             getEnvInt("RATE_LIMIT_AUTH_BURST", 5),
		},
		SMS: SMSConfig{
			Enabled:  getEnvBool("SMS_ENABLED", false),
			APIKey:   getEnv("TEXTBELT_API_KEY", ""),
			Endpoint: getEnv("TEXTBELT_ENDPOINT", "https://textbelt.com/text"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, dotenvLoaded, err
	}
	return cfg, dotenvLoaded, nil
}

// Validate fails fast on settings the server cannot run without.
func (c *Config) Validate() error {
	var errs []string

	if c.JWT.Secret == "" {
		errs = append(errs, "JWT_SECRET is required")
	} else if len(c.JWT.Secret) < 32 && c.Env == "production" {
		errs = append(errs, "JWT_SECRET must be at least 32 characters in production")
	}
	if c.Mongo.URI == "" {
		errs = append(errs, "MONGO_URI is required")
	}
	if c.Mongo.Database == "" {
		errs = append(errs, "MONGO_DATABASE is required")
	}
	if c.SMS.Enabled && c.SMS.APIKey == "" {
		errs = append(errs, "TEXTBELT_API_KEY is required when SMS_ENABLED=true")
	}
	if c.RateLimit.AuthRequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_AUTH_RPM must be positive")
	}
	if c.RateLimit.AuthBurst <= 0 {
		errs = append(errs, "RATE_LIMIT_AUTH_BURST must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
