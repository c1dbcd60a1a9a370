package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds all runtime configuration, loaded once at startup.
type Config struct {
	Port        string
	MongoURI    string
	Database    string
	JWTSecret   string
	TokenExpiry time.Duration

	SMTP struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
	}

	MQTT struct {
		BrokerURL string
		ClientID  string
		Topic     string
	}

	RateLimitPerSecond float64
	RateLimitBurst     int
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return def
}

// Load reads configuration from the environment, with .env as a convenience
// for local development.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using environment")
	}

	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		MongoURI:  getEnv("MONGO_URI", "mongodb://localhost:27017"),
		Database:  getEnv("MONGO_DATABASE", "fleet"),
		JWTSecret: getEnv("JWT_SECRET", "default-secret-key-change-in-production"),
	}

	cfg.TokenExpiry = 30 * 24 * time.Hour
	if expStr := os.Getenv("JWT_EXPIRY"); expStr != "" {
		if parsed, err := time.ParseDuration(expStr); err == nil {
			cfg.TokenExpiry = parsed
		}
	}

	cfg.SMTP.Host = getEnv("SMTP_HOST", "")
	cfg.SMTP.Port = getEnvInt("SMTP_PORT", 587)
	cfg.SMTP.Username = getEnv("SMTP_USERNAME", "")
	cfg.SMTP.Password = getEnv("SMTP_PASSWORD", "")
	cfg.SMTP.From = getEnv("EMAIL_FROM", "fleet@example.com")

	cfg.MQTT.BrokerURL = getEnv("MQTT_BROKER_URL", "")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "fleetd")
	cfg.MQTT.Topic = getEnv("MQTT_LOCATION_TOPIC", "fleet/vehicles/+/location")

	cfg.RateLimitPerSecond = getEnvFloat("RATE_LIMIT_RPS", 20)
	cfg.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 40)

	return cfg
}
