// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	FrontendURL    string `mapstructure:"FRONTEND_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	FeatureFlags   string `mapstructure:"FEATURE_FLAGS"`

	DBHost                        string `mapstructure:"DB_HOST"`
	DBPort                        string `mapstructure:"DB_PORT"`
	DBUser                        string `mapstructure:"DB_USER"`
	DBPassword                    string `mapstructure:"DB_PASSWORD"`
	DBName                        string `mapstructure:"DB_NAME"`
	DBSSLMode                     string `mapstructure:"DB_SSLMODE"`
	DBReadHost                    string `mapstructure:"DB_READ_HOST"`
	DBReadPort                    string `mapstructure:"DB_READ_PORT"`
	DBReadUser                    string `mapstructure:"DB_READ_USER"`
	DBReadPassword                string `mapstructure:"DB_READ_PASSWORD"`
	DBSchemaMode                  string `mapstructure:"DB_SCHEMA_MODE"`
	DBAutoMigrateAllowDestructive bool   `mapstructure:"DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE"`
	DBMaxOpenConns                int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns                int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeMinutes      int    `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`

	RedisURL string `mapstructure:"REDIS_URL"`

	JWTSecret          string `mapstructure:"JWT_SECRET"`
	SessionTTLHours    int    `mapstructure:"SESSION_TTL_HOURS"`
	TokenEncryptionKey string `mapstructure:"TOKEN_ENCRYPTION_KEY"`

	DiscordClientID           string `mapstructure:"DISCORD_CLIENT_ID"`
	DiscordClientSecret       string `mapstructure:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURL        string `mapstructure:"DISCORD_REDIRECT_URL"`
	DiscordBotToken           string `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordAPIBaseURL         string `mapstructure:"DISCORD_API_BASE_URL"`
	DiscordHTTPTimeoutSeconds int    `mapstructure:"DISCORD_HTTP_TIMEOUT_SECONDS"`

	IGDBClientID           string `mapstructure:"IGDB_CLIENT_ID"`
	IGDBClientSecret       string `mapstructure:"IGDB_CLIENT_SECRET"`
	IGDBTokenURL           string `mapstructure:"IGDB_TOKEN_URL"`
	IGDBAPIBaseURL         string `mapstructure:"IGDB_API_BASE_URL"`
	IGDBHTTPTimeoutSeconds int    `mapstructure:"IGDB_HTTP_TIMEOUT_SECONDS"`

	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base config file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("PORT", "8375")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("FRONTEND_URL", "http://localhost:3000")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")
	viper.SetDefault("FEATURE_FLAGS", "discord_friends_import=on,dashboard=on")

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "playshelf")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_READ_HOST", "")
	viper.SetDefault("DB_READ_PORT", "5432")
	viper.SetDefault("DB_READ_USER", "user")
	viper.SetDefault("DB_READ_PASSWORD", "password")
	viper.SetDefault("DB_SCHEMA_MODE", "hybrid")
	viper.SetDefault("DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE", false)
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 5)

	viper.SetDefault("REDIS_URL", "localhost:6379")

	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("SESSION_TTL_HOURS", 24*7)
	viper.SetDefault("TOKEN_ENCRYPTION_KEY", "")

	viper.SetDefault("DISCORD_CLIENT_ID", "")
	viper.SetDefault("DISCORD_CLIENT_SECRET", "")
	viper.SetDefault("DISCORD_REDIRECT_URL", "http://localhost:8375/auth/callback")
	viper.SetDefault("DISCORD_BOT_TOKEN", "")
	viper.SetDefault("DISCORD_API_BASE_URL", "https://discord.com/api/v10")
	viper.SetDefault("DISCORD_HTTP_TIMEOUT_SECONDS", 10)

	viper.SetDefault("IGDB_CLIENT_ID", "")
	viper.SetDefault("IGDB_CLIENT_SECRET", "")
	viper.SetDefault("IGDB_TOKEN_URL", "https://id.twitch.tv/oauth2/token")
	viper.SetDefault("IGDB_API_BASE_URL", "https://api.igdb.com/v4")
	viper.SetDefault("IGDB_HTTP_TIMEOUT_SECONDS", 10)

	viper.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.DBSchemaMode = strings.ToLower(strings.TrimSpace(c.DBSchemaMode))
	c.FrontendURL = strings.TrimRight(strings.TrimSpace(c.FrontendURL), "/")
	c.DiscordAPIBaseURL = strings.TrimRight(c.DiscordAPIBaseURL, "/")
	c.IGDBAPIBaseURL = strings.TrimRight(c.IGDBAPIBaseURL, "/")
}

// IsProduction reports whether the config targets a production environment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// SessionTTL is the lifetime of an issued session token.
func (c *Config) SessionTTL() time.Duration {
	if c.SessionTTLHours <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// DiscordTimeout is the HTTP timeout for Discord REST calls.
func (c *Config) DiscordTimeout() time.Duration {
	return secondsOr(c.DiscordHTTPTimeoutSeconds, 10)
}

// IGDBTimeout is the HTTP timeout for IGDB and Twitch token calls.
func (c *Config) IGDBTimeout() time.Duration {
	return secondsOr(c.IGDBHTTPTimeoutSeconds, 10)
}

func secondsOr(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Second
}

// EncryptionSecret returns the key material for encrypting stored OAuth
// tokens, falling back to the JWT secret outside production.
func (c *Config) EncryptionSecret() string {
	if c.TokenEncryptionKey != "" {
		return c.TokenEncryptionKey
	}
	return c.JWTSecret
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.DBConnMaxLifetimeMinutes < 0 {
		return errors.New("DB_CONN_MAX_LIFETIME_MINUTES must not be negative")
	}
	if c.RedisURL == "" {
		return errors.New("REDIS_URL is required")
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			return errors.New("DB_SSLMODE must enable SSL in production")
		}
		if len(c.TokenEncryptionKey) < 32 {
			return errors.New("TOKEN_ENCRYPTION_KEY must be at least 32 characters in production")
		}
		if c.DiscordClientID == "" || c.DiscordClientSecret == "" {
			return errors.New("DISCORD_CLIENT_ID and DISCORD_CLIENT_SECRET are required in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	if c.DiscordBotToken == "" {
		log.Println("WARNING: DISCORD_BOT_TOKEN is not set; Discord user lookups will fail.")
	}

	return nil
}
