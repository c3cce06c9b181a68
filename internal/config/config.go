package config

import (
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DBDriver         string
	DBHost           string
	DBPort           string
	DBUser           string
	DBPassword       string
	DBName           string
	DBPath           string
	RedisHost        string
	RedisPort        string
	SessionStore     string
	SessionSecret    string
	GinMode          string
	Port             string
	OpenAIAPIKey     string
	LogLevel         string
	ScheduleTimezone string
}

var defaults = map[string]string{
	"DB_DRIVER":         "mysql",
	"DB_HOST":           "localhost",
	"DB_PORT":           "3306",
	"DB_USER":           "roommates",
	"DB_PASSWORD":       "roommates",
	"DB_NAME":           "roommates",
	"DB_PATH":           "roommates.db",
	"REDIS_HOST":        "localhost",
	"REDIS_PORT":        "6379",
	"SESSION_STORE":     "redis",
	"SESSION_SECRET":    "default-secret-key-change-me",
	"GIN_MODE":          "debug",
	"PORT":              "8080",
	"OPENAI_API_KEY":    "",
	"LOG_LEVEL":         "info",
	"SCHEDULE_TIMEZONE": "UTC",
}

// Load reads configuration from the environment. A .env file in the working
// directory is honoured when present; real environment variables win.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		slog.Debug("Loaded .env file")
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	return &Config{
		DBDriver:         v.GetString("DB_DRIVER"),
		DBHost:           v.GetString("DB_HOST"),
		DBPort:           v.GetString("DB_PORT"),
		DBUser:           v.GetString("DB_USER"),
		DBPassword:       v.GetString("DB_PASSWORD"),
		DBName:           v.GetString("DB_NAME"),
		DBPath:           v.GetString("DB_PATH"),
		RedisHost:        v.GetString("REDIS_HOST"),
		RedisPort:        v.GetString("REDIS_PORT"),
		SessionStore:     v.GetString("SESSION_STORE"),
		SessionSecret:    v.GetString("SESSION_SECRET"),
		GinMode:          v.GetString("GIN_MODE"),
		Port:             v.GetString("PORT"),
		OpenAIAPIKey:     v.GetString("OPENAI_API_KEY"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		ScheduleTimezone: v.GetString("SCHEDULE_TIMEZONE"),
	}
}

// Location returns the time zone used to compute week boundaries. Unknown
// zones fall back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ScheduleTimezone)
	if err != nil {
		slog.Warn("Unknown schedule timezone, using UTC", "timezone", c.ScheduleTimezone, "error", err)
		return time.UTC
	}
	return loc
}
