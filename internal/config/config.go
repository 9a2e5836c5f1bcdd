package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"fleet-analytics-service/internal/analytics"
)

type HTTPConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
	SlowQuery       time.Duration
}

type AuthConfig struct {
	AccessSecret string
}

type AnalyticsConfig struct {
	RecordLimit int
	Locale      string
	Timezone    string
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Analytics   AnalyticsConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:           v.GetString("HTTP_HOST"),
			Port:           v.GetInt("HTTP_PORT"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
			SlowQuery:       time.Duration(v.GetInt("DB_SLOW_QUERY_MS")) * time.Millisecond,
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Analytics: AnalyticsConfig{
			RecordLimit: v.GetInt("ANALYTICS_RECORD_LIMIT"),
			Locale:      v.GetString("ANALYTICS_LOCALE"),
			Timezone:    v.GetString("ANALYTICS_TIMEZONE"),
		},
	}

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.DB.SlowQuery <= 0 {
		cfg.DB.SlowQuery = 500 * time.Millisecond
	}
	if cfg.Analytics.RecordLimit <= 0 {
		cfg.Analytics.RecordLimit = 500
	}
	if cfg.Analytics.Locale == "" {
		cfg.Analytics.Locale = analytics.DefaultLocale
	}
	if cfg.Analytics.Timezone == "" {
		cfg.Analytics.Timezone = "UTC"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.DB.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(cfg.DB.ConnMaxLifetime); err != nil {
			return fmt.Errorf("DB_CONN_MAX_LIFETIME: %w", err)
		}
	}
	if !analytics.SupportedLocale(cfg.Analytics.Locale) {
		return fmt.Errorf("ANALYTICS_LOCALE %q is not supported", cfg.Analytics.Locale)
	}
	if _, err := time.LoadLocation(cfg.Analytics.Timezone); err != nil {
		return fmt.Errorf("ANALYTICS_TIMEZONE: %w", err)
	}
	return nil
}

// Location is only valid after Load has validated the timezone.
func (c AnalyticsConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
