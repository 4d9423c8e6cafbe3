package config

import (
	"errors"
	"fmt"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Encryption    EncryptionConfig    `mapstructure:"encryption"`
	Email         EmailConfig         `mapstructure:"email"`
	PDF           PDFConfig           `mapstructure:"pdf"`
	URLs          URLConfig           `mapstructure:"urls"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Host           string     `mapstructure:"host"`
	Port           int        `mapstructure:"port"`
	Environment    string     `mapstructure:"environment"`
	TimeoutSeconds int        `mapstructure:"timeout_seconds"`
	EnforceHTTPS   bool       `mapstructure:"enforce_https"`
	CORS           CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowOrigins   []string `mapstructure:"allow_origins"`
	OriginPatterns []string `mapstructure:"origin_patterns"`
}

type DatabaseConfig struct {
	URI            string `mapstructure:"uri"`
	Name           string `mapstructure:"name"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type RedisConfig struct {
	Enabled             bool   `mapstructure:"enabled"`
	Addr                string `mapstructure:"addr"`
	DB                  int    `mapstructure:"db"`
	Username            string `mapstructure:"username"`
	Password            string `mapstructure:"password"`
	PoolSize            int    `mapstructure:"pool_size"`
	MinIdleConns        int    `mapstructure:"min_idle_conns"`
	DialTimeoutSeconds  int    `mapstructure:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
}

type AuthConfig struct {
	AccessSecret  string `mapstructure:"access_secret"`
	RefreshSecret string `mapstructure:"refresh_secret"`
	// AccessTTL and RefreshTTL accept Go duration strings ("15m", "168h").
	AccessTTL        string `mapstructure:"access_ttl"`
	RefreshTTL       string `mapstructure:"refresh_ttl"`
	BcryptCost       int    `mapstructure:"bcrypt_cost"`
	LockoutThreshold int    `mapstructure:"lockout_threshold"`
	ResetTTLMinutes  int    `mapstructure:"reset_ttl_minutes"`
	TOTPIssuer       string `mapstructure:"totp_issuer"`
	CookieName       string `mapstructure:"cookie_name"`
}

func (c AuthConfig) AccessTokenTTL() time.Duration {
	if d, err := time.ParseDuration(c.AccessTTL); err == nil && d > 0 {
		return d
	}
	return 15 * time.Minute
}

func (c AuthConfig) RefreshTokenTTL() time.Duration {
	if d, err := time.ParseDuration(c.RefreshTTL); err == nil && d > 0 {
		return d
	}
	return 7 * 24 * time.Hour
}

func (c AuthConfig) ResetTokenTTL() time.Duration {
	if c.ResetTTLMinutes > 0 {
		return time.Duration(c.ResetTTLMinutes) * time.Minute
	}
	return time.Hour
}

func (c AuthConfig) RefreshCookieName() string {
	if c.CookieName != "" {
		return c.CookieName
	}
	return "bridges_rt"
}

type EncryptionConfig struct {
	// MasterKey is a 64-char hex string decoding to a 32-byte AES-256 key.
	MasterKey string `mapstructure:"master_key"`
}

type EmailConfig struct {
	// Provider selects the delivery backend: "resend", "smtp" or "none".
	Provider       string     `mapstructure:"provider"`
	From           string     `mapstructure:"from"`
	TimeoutSeconds int        `mapstructure:"timeout_seconds"`
	Resend         ResendConf `mapstructure:"resend"`
	SMTP           SMTPConf   `mapstructure:"smtp"`
}

type ResendConf struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
}

type SMTPConf struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	UseTLS   bool   `mapstructure:"use_tls"`
}

type PDFConfig struct {
	// RendererURL points at the headless HTML-to-PDF converter.
	RendererURL    string `mapstructure:"renderer_url"`
	OutputDir      string `mapstructure:"output_dir"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type URLConfig struct {
	FrontendBase       string `mapstructure:"frontend_base"`
	PrivacyPolicy      string `mapstructure:"privacy_policy"`
	CancellationPolicy string `mapstructure:"cancellation_policy"`
}

type LoggingConfig struct {
	Level  string              `mapstructure:"level"`
	Format string              `mapstructure:"format"`
	Output LoggingOutputConfig `mapstructure:"output"`
}

type LoggingOutputConfig struct {
	Stdout bool              `mapstructure:"stdout"`
	File   LoggingFileConfig `mapstructure:"file"`
	Loki   LoggingLokiConfig `mapstructure:"loki"`
}

type LoggingFileConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type LoggingLokiConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ObservabilityConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	ServiceName    string        `mapstructure:"service_name"`
	ServiceVersion string        `mapstructure:"service_version"`
	Tracing        TracingConfig `mapstructure:"tracing"`
	Metrics        MetricsConfig `mapstructure:"metrics"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

func (c *Config) Validate() error {
	if c.Database.URI == "" {
		return errors.New("database.uri is required")
	}
	if c.Database.Name == "" {
		return errors.New("database.name is required")
	}
	if c.Auth.AccessSecret == "" || c.Auth.RefreshSecret == "" {
		return errors.New("auth.access_secret and auth.refresh_secret are required")
	}
	if len(c.Encryption.MasterKey) != 64 {
		return fmt.Errorf("encryption.master_key must be 64 hex chars, got %d", len(c.Encryption.MasterKey))
	}
	if c.Auth.BcryptCost != 0 && c.Auth.BcryptCost < 10 {
		return errors.New("auth.bcrypt_cost must be at least 10")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}
