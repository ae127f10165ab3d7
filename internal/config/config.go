package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "AGIL"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Upstream  UpstreamConfig  `yaml:"upstream" envconfig:"UPSTREAM"`
	Mail      MailConfig      `yaml:"mail" envconfig:"MAIL"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Stream    StreamConfig    `yaml:"stream" envconfig:"STREAM"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// UpstreamConfig locates the user and problem services and bounds every call made to them.
type UpstreamConfig struct {
	UserServiceURL    string        `yaml:"user_service_url" envconfig:"USER_SERVICE_URL"`
	ProblemServiceURL string        `yaml:"problem_service_url" envconfig:"PROBLEM_SERVICE_URL"`
	UsersTimeout      time.Duration `yaml:"users_timeout" envconfig:"USERS_TIMEOUT"`
	ProblemsTimeout   time.Duration `yaml:"problems_timeout" envconfig:"PROBLEMS_TIMEOUT"`
	StatsTimeout      time.Duration `yaml:"stats_timeout" envconfig:"STATS_TIMEOUT"`
	ProbeTimeout      time.Duration `yaml:"probe_timeout" envconfig:"PROBE_TIMEOUT"`
}

// MailConfig holds the SendGrid credentials and sender identity.
type MailConfig struct {
	SendGridAPIKey string        `yaml:"sendgrid_api_key" envconfig:"SENDGRID_API_KEY"`
	FromEmail      string        `yaml:"from_email" envconfig:"FROM_EMAIL"`
	FromName       string        `yaml:"from_name" envconfig:"FROM_NAME"`
	APIHost        string        `yaml:"api_host" envconfig:"API_HOST"`
	SendTimeout    time.Duration `yaml:"send_timeout" envconfig:"SEND_TIMEOUT"`
}

// TelemetryConfig controls OpenTelemetry tracing and metrics
type TelemetryConfig struct {
	Environment   string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	EnableTracing bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	TraceExporter string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	EnableMetrics bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
}

// StreamConfig contains the live dashboard websocket configuration
type StreamConfig struct {
	Interval        time.Duration `yaml:"interval" envconfig:"INTERVAL"`
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT"`
}

// legacyEnv maps the unprefixed variables the previous deployment used onto config fields.
var legacyEnv = map[string]func(*Config, string){
	"USER_SERVICE_URL":    func(c *Config, v string) { c.Upstream.UserServiceURL = v },
	"PROBLEM_SERVICE_URL": func(c *Config, v string) { c.Upstream.ProblemServiceURL = v },
	"SENDGRID_API_KEY":    func(c *Config, v string) { c.Mail.SendGridAPIKey = v },
	"SENDGRID_FROM_EMAIL": func(c *Config, v string) { c.Mail.FromEmail = v },
}

// Load builds the configuration from defaults, an optional YAML file, a .env file and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	applyLegacyEnv(cfg)

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg; keys absent from the file keep their value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyLegacyEnv(cfg *Config) {
	for key, apply := range legacyEnv {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			apply(cfg, v)
		}
	}
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if err := validateBaseURL("user service", c.Upstream.UserServiceURL); err != nil {
		return err
	}
	if err := validateBaseURL("problem service", c.Upstream.ProblemServiceURL); err != nil {
		return err
	}

	timeouts := map[string]time.Duration{
		"users":    c.Upstream.UsersTimeout,
		"problems": c.Upstream.ProblemsTimeout,
		"stats":    c.Upstream.StatsTimeout,
		"probe":    c.Upstream.ProbeTimeout,
	}
	for name, d := range timeouts {
		if d <= 0 {
			return fmt.Errorf("upstream %s timeout must be positive", name)
		}
	}

	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive when enabled")
	}

	if c.Stream.Interval <= 0 {
		return fmt.Errorf("stream interval must be positive")
	}

	switch c.Telemetry.TraceExporter {
	case "stdout", "none":
	default:
		return fmt.Errorf("unsupported trace exporter: %s", c.Telemetry.TraceExporter)
	}

	// JSON is the only supported format.
	c.Logging.Format = "json"

	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		c.Logging.Output = "console"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/agilboard.log"
	}

	return nil
}

func validateBaseURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s url %q: %w", name, raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid %s url %q: must be an absolute http(s) url", name, raw)
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8001,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"*"},
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/agilboard.log",
		},
		Upstream: UpstreamConfig{
			UserServiceURL:    "http://localhost:3000",
			ProblemServiceURL: "http://localhost:3001",
			UsersTimeout:      5 * time.Second,
			ProblemsTimeout:   10 * time.Second,
			StatsTimeout:      5 * time.Second,
			ProbeTimeout:      2 * time.Second,
		},
		Mail: MailConfig{
			FromEmail:   "noreply@agil.com.tn",
			FromName:    "Agil Management System",
			APIHost:     "https://api.sendgrid.com",
			SendTimeout: 10 * time.Second,
		},
		Telemetry: TelemetryConfig{
			Environment:   "development",
			EnableTracing: true,
			TraceExporter: "none",
			EnableMetrics: true,
			SampleRatio:   1.0,
		},
		Stream: StreamConfig{
			Interval:        30 * time.Second,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      54 * time.Second,
			PongWait:        60 * time.Second,
		},
	}
}
