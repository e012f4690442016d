package config

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Notify   NotifyConfig   `mapstructure:"notify"   validate:"required"`
	Mail     MailConfig     `mapstructure:"mail"     validate:"required"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Seed     SeedConfig     `mapstructure:"seed"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains token signing settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// Notification transports.
const (
	TransportRunner   = "runner"
	TransportRabbitMQ = "rabbitmq"
)

// NotifyConfig controls how task notifications are delivered.
type NotifyConfig struct {
	// Transport is "runner" (in-process job runner) or "rabbitmq".
	Transport           string `mapstructure:"transport"              validate:"required,oneof=runner rabbitmq"`
	WorkerCount         int    `mapstructure:"worker_count"           validate:"required,gt=0"`
	QueueSize           int    `mapstructure:"queue_size"             validate:"required,gt=0"`
	MaxAttempts         int    `mapstructure:"max_attempts"           validate:"required,gt=0"`
	StuckJobAgeMinutes  int    `mapstructure:"stuck_job_age_minutes"  validate:"required,gt=0"`
	RetryBackoffSeconds int    `mapstructure:"retry_backoff_seconds"  validate:"gte=0"`
}

// MailConfig contains SMTP settings. An empty Host logs messages instead of sending them.
type MailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"      validate:"gte=0,lt=65536"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"      validate:"required,email"`
	FromName string `mapstructure:"from_name"`
	TLS      string `mapstructure:"tls"       validate:"oneof=opportunistic mandatory none"`
}

// RabbitMQConfig contains broker settings used when Notify.Transport is "rabbitmq".
type RabbitMQConfig struct {
	URL                string `mapstructure:"url"`
	Exchange           string `mapstructure:"exchange"`
	Queue              string `mapstructure:"queue"`
	DeadLetterExchange string `mapstructure:"dead_letter_exchange"`
	Prefetch           int    `mapstructure:"prefetch" validate:"gte=0"`
}

// SeedConfig holds the accounts created by the -seed flag.
type SeedConfig struct {
	AdminName     string `mapstructure:"admin_name"`
	AdminEmail    string `mapstructure:"admin_email"    validate:"omitempty,email"`
	AdminPassword string `mapstructure:"admin_password" validate:"omitempty,min=6,max=72"`
	UserName      string `mapstructure:"user_name"`
	UserEmail     string `mapstructure:"user_email"     validate:"omitempty,email"`
	UserPassword  string `mapstructure:"user_password"  validate:"omitempty,min=6,max=72"`
}
