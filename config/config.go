package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Gemini configuration.
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel  string `mapstructure:"GEMINI_MODEL"`

	// Google Calendar configuration.
	GoogleCredentialsFile string `mapstructure:"GOOGLE_CREDENTIALS_FILE"`
	CalendarID            string `mapstructure:"CALENDAR_ID"`

	// Agent behaviour.
	AgentTimezone       string `mapstructure:"AGENT_TIMEZONE"`
	DefaultEventMinutes int    `mapstructure:"DEFAULT_EVENT_MINUTES"`
	MaxToolIterations   int    `mapstructure:"MAX_TOOL_ITERATIONS"`
	SessionTTLMinutes   int    `mapstructure:"SESSION_TTL_MINUTES"`
	TurnTimeoutSeconds  int    `mapstructure:"TURN_TIMEOUT_SECONDS"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	viper.SetDefault("GOOGLE_CREDENTIALS_FILE", "")
	viper.SetDefault("CALENDAR_ID", "primary")
	viper.SetDefault("AGENT_TIMEZONE", "Asia/Kolkata")
	viper.SetDefault("DEFAULT_EVENT_MINUTES", 60)
	viper.SetDefault("MAX_TOOL_ITERATIONS", 5)
	viper.SetDefault("SESSION_TTL_MINUTES", 30)
	viper.SetDefault("TURN_TIMEOUT_SECONDS", 60)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
