package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	configName   = "config"
	configFormat = "yaml"
)

func ReadConfig(configPath string) (*Config, error) {
	viper.SetConfigName(configName)
	viper.SetConfigType(configFormat)
	viper.AddConfigPath(configPath)

	// Allow env vars to override config values.
	// e.g. BRIDGES_DATABASE_URI overrides database.uri
	viper.SetEnvPrefix("BRIDGES")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	// The config file is optional in containerised deployments where
	// everything arrives via environment variables.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if os.Getenv("BRIDGES_DATABASE_URI") == "" {
				return nil, fmt.Errorf("error reading config file: %v", err)
			}
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %v", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func MustReadConfig(path string) *Config {
	config, err := ReadConfig(path)
	if err != nil {
		panic(err)
	}
	return config
}

func setDefaults() {
	viper.SetDefault("server.port", 4000)
	viper.SetDefault("server.environment", "development")
	viper.SetDefault("server.timeout_seconds", 30)
	viper.SetDefault("auth.access_ttl", "15m")
	viper.SetDefault("auth.refresh_ttl", "168h")
	viper.SetDefault("auth.bcrypt_cost", 12)
	viper.SetDefault("auth.lockout_threshold", 5)
	viper.SetDefault("auth.reset_ttl_minutes", 60)
	viper.SetDefault("auth.totp_issuer", "Bridges Physiotherapy")
	viper.SetDefault("auth.cookie_name", "bridges_rt")
	viper.SetDefault("email.provider", "none")
	viper.SetDefault("email.timeout_seconds", 30)
	viper.SetDefault("pdf.output_dir", "generated")
	viper.SetDefault("pdf.timeout_seconds", 45)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("observability.service_name", "bridges_backend")
}
