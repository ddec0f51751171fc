package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	LogFile           string `mapstructure:"LOG_FILE"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisSignalDB int    `mapstructure:"REDIS_SIGNAL_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Billing.
	StripeKey    string `mapstructure:"STRIPE_KEY"`
	Currency     string `mapstructure:"CURRENCY"`
	FreePlanName string `mapstructure:"FREE_PLAN_NAME"`

	// Firebase Cloud Messaging.
	FirebaseCredentialsPath string `mapstructure:"FIREBASE_CREDENTIALS_PATH"`

	// Cloudinary.
	CloudinaryCloudName string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `mapstructure:"CLOUDINARY_API_SECRET"`
	DocumentsFolder     string `mapstructure:"DOCUMENTS_FOLDER"`

	// Calls.
	STUNURLs              string `mapstructure:"STUN_URLS"`
	ReminderLeadMinutes   int    `mapstructure:"REMINDER_LEAD_MINUTES"`
	PresenceTTLMinutes    int    `mapstructure:"PRESENCE_TTL_MINUTES"`
	CompletionSweepSpec   string `mapstructure:"COMPLETION_SWEEP_SPEC"`
	AvailabilityCacheMins int    `mapstructure:"AVAILABILITY_CACHE_MINUTES"`
}

var AppConfig Config

// LoadConfig reads .env (if present), config.yaml (if present) and the environment
// into AppConfig. An explicit file path overrides the config.yaml lookup.
func LoadConfig(path string) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, continuing")
	}

	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}
	viper.AutomaticEnv()

	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FILE", "")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "expertmeet")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_SIGNAL_DB", 1)
	viper.SetDefault("REDIS_QUEUE_DB", 2)
	viper.SetDefault("STRIPE_KEY", "")
	viper.SetDefault("CURRENCY", "usd")
	viper.SetDefault("FREE_PLAN_NAME", "Free")
	viper.SetDefault("FIREBASE_CREDENTIALS_PATH", "")
	viper.SetDefault("CLOUDINARY_CLOUD_NAME", "")
	viper.SetDefault("CLOUDINARY_API_KEY", "")
	viper.SetDefault("CLOUDINARY_API_SECRET", "")
	viper.SetDefault("DOCUMENTS_FOLDER", "expertmeet/documents")
	viper.SetDefault("STUN_URLS", "stun:stun.l.google.com:19302")
	viper.SetDefault("REMINDER_LEAD_MINUTES", 60)
	viper.SetDefault("PRESENCE_TTL_MINUTES", 120)
	viper.SetDefault("COMPLETION_SWEEP_SPEC", "@every 15m")
	viper.SetDefault("AVAILABILITY_CACHE_MINUTES", 30)

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

// STUNServers splits STUN_URLS on commas.
func STUNServers() []string {
	var out []string
	for _, u := range strings.Split(AppConfig.STUNURLs, ",") {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}
