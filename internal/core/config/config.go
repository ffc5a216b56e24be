// Package config provides configuration management for datastreamer commands
// and the introspection service.
package config

import (
	"time"

	"github.com/solatis/datastreamer/internal/types"
)

// IntrospectionConfig controls how types are flattened into leaf indexes.
type IntrospectionConfig struct {
	MaxArraySize       uint32
	DiscardLargeArrays bool
	Separator          string
	RootName           string
}

// Policy returns the container policy applied at every array and sequence.
func (c IntrospectionConfig) Policy() types.ContainerPolicy {
	return types.ContainerPolicy{MaxSize: c.MaxArraySize, Discard: c.DiscardLargeArrays}
}

// ServerConfig holds configuration for the gRPC introspection service.
type ServerConfig struct {
	Host           string
	Port           int
	MaxConnections int
	RequestTimeout time.Duration
	MaxBatchSize   int
	DataDir        string
}

// DatabaseConfig selects the catalog store. An empty URL disables persistence.
type DatabaseConfig struct {
	URL string
}

// Config is the complete datastreamer configuration.
type Config struct {
	Introspection IntrospectionConfig
	Server        ServerConfig
	Database      DatabaseConfig
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Introspection: IntrospectionConfig{
			MaxArraySize:       100,
			DiscardLargeArrays: true,
			Separator:          types.DefaultSeparator,
			RootName:           "root",
		},
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           50051,
			MaxConnections: 1000,
			RequestTimeout: 30 * time.Second,
			MaxBatchSize:   1000,
			DataDir:        "./data",
		},
	}
}
