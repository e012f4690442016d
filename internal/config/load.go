package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. TASKBOARD_SERVER_PORT.
const EnvPrefix = "TASKBOARD"

var defaults = map[string]any{
	"server.port":                   8080,
	"server.log_level":              "info",
	"database.url":                  "",
	"auth.jwt_secret":               "",
	"auth.token_lifetime_minutes":   60,
	"notify.transport":              TransportRunner,
	"notify.worker_count":           2,
	"notify.queue_size":             100,
	"notify.max_attempts":           3,
	"notify.stuck_job_age_minutes":  30,
	"notify.retry_backoff_seconds":  5,
	"mail.host":                     "",
	"mail.port":                     587,
	"mail.username":                 "",
	"mail.password":                 "",
	"mail.from":                     "noreply@taskboard.local",
	"mail.from_name":                "Task Board",
	"mail.tls":                      "opportunistic",
	"rabbitmq.url":                  "",
	"rabbitmq.exchange":             "task.notifications",
	"rabbitmq.queue":                "task.notifications.mail",
	"rabbitmq.dead_letter_exchange": "task.notifications.dlx",
	"rabbitmq.prefetch":             10,
	"seed.admin_name":               "Admin",
	"seed.admin_email":              "",
	"seed.admin_password":           "",
	"seed.user_name":                "User",
	"seed.user_email":               "",
	"seed.user_password":            "",
}

// Load reads configuration from ./config.yaml (optional) and the environment.
// Environment variables take precedence over values from the file.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom behaves like Load but looks for config.yaml in dir.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tags and the rules that span sections.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Notify.Transport == TransportRabbitMQ {
		if cfg.RabbitMQ.URL == "" || cfg.RabbitMQ.Exchange == "" || cfg.RabbitMQ.Queue == "" {
			return errors.New("config validation failed: rabbitmq url, exchange and queue are required for the rabbitmq transport")
		}
	}

	return nil
}
