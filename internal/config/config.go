// Package config loads process configuration from the environment.
package config

import (
	"time"
)

// Config holds the settings of the API server, the simulator and the client.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Session   SessionConfig   `mapstructure:"session"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Simulator SimulatorConfig `mapstructure:"simulator"`
}

// APIConfig is where the client sends requests.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// SessionConfig locates the client's durable token store.
type SessionConfig struct {
	DBPath string `mapstructure:"db_path"`
}

type HTTPConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
}

// MQTTConfig configures change notifications. An empty Broker disables them.
type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
	// TrustedProxies are IPs or CIDRs whose X-Forwarded-For is believed.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type SimulatorConfig struct {
	FleetSize int    `mapstructure:"fleet_size"`
	Refuels   int    `mapstructure:"refuels"`
	Phone     string `mapstructure:"phone"`
	Password  string `mapstructure:"password"`
}
