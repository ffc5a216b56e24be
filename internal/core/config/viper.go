package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults matching DefaultConfig
	d := DefaultConfig()
	v.SetDefault("introspection.max_array_size", d.Introspection.MaxArraySize)
	v.SetDefault("introspection.discard_large_arrays", d.Introspection.DiscardLargeArrays)
	v.SetDefault("introspection.separator", d.Introspection.Separator)
	v.SetDefault("introspection.root_name", d.Introspection.RootName)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.max_connections", d.Server.MaxConnections)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout.String())
	v.SetDefault("server.max_batch_size", d.Server.MaxBatchSize)
	v.SetDefault("server.data_dir", d.Server.DataDir)
	v.SetDefault("database.url", "")

	// Load config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Checked before env binding so only file values are inspected.
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	// Bind environment variables with DS_ prefix
	v.SetEnvPrefix("DS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	maxArraySize := v.GetInt64("introspection.max_array_size")
	if maxArraySize < 0 || maxArraySize > int64(^uint32(0)) {
		return nil, fmt.Errorf("max_array_size must be between 0 and %d, got %d", ^uint32(0), maxArraySize)
	}

	cfg := &Config{
		Introspection: IntrospectionConfig{
			MaxArraySize:       uint32(maxArraySize),
			DiscardLargeArrays: v.GetBool("introspection.discard_large_arrays"),
			Separator:          v.GetString("introspection.separator"),
			RootName:           v.GetString("introspection.root_name"),
		},
		Server: ServerConfig{
			Host:           v.GetString("server.host"),
			Port:           v.GetInt("server.port"),
			MaxConnections: v.GetInt("server.max_connections"),
			RequestTimeout: v.GetDuration("server.request_timeout"),
			MaxBatchSize:   v.GetInt("server.max_batch_size"),
			DataDir:        v.GetString("server.data_dir"),
		},
		Database: DatabaseConfig{
			URL: v.GetString("database.url"),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port range, positive server limits and a usable
// naming scheme for leaves.
func validateConfig(cfg *Config) error {
	if cfg.Introspection.Separator == "" {
		return fmt.Errorf("separator must not be empty")
	}
	if cfg.Introspection.RootName == "" {
		return fmt.Errorf("root_name must not be empty")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxConnections <= 0 {
		return fmt.Errorf("max_connections must be positive, got %d", cfg.Server.MaxConnections)
	}
	if cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Server.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be positive, got %d", cfg.Server.MaxBatchSize)
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only credentials (12-factor principle).
func validateNoSecretsInConfig(v *viper.Viper) error {
	if !v.InConfig("database.url") {
		return nil
	}
	u, err := url.Parse(v.GetString("database.url"))
	if err != nil {
		return fmt.Errorf("invalid database.url: %w", err)
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		return fmt.Errorf("database passwords not allowed in config files (use DS_DATABASE_URL environment variable)")
	}
	return nil
}
