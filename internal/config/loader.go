package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"api.base_url":               "FUEL_API_URL",
	"session.db_path":            "SESSION_DB_PATH",
	"http.port":                  "PORT",
	"http.read_timeout":          "HTTP_READ_TIMEOUT",
	"http.write_timeout":         "HTTP_WRITE_TIMEOUT",
	"http.shutdown_timeout":      "HTTP_SHUTDOWN_TIMEOUT",
	"mongo.uri":                  "MONGO_URI",
	"mongo.database":             "MONGO_DB",
	"jwt.secret":                 "JWT_SECRET",
	"jwt.expiry":                 "JWT_EXPIRY",
	"mqtt.broker":                "MQTT_BROKER",
	"mqtt.client_id":             "MQTT_CLIENT_ID",
	"rate_limit.rps":             "RATE_LIMIT_RPS",
	"rate_limit.burst":           "RATE_LIMIT_BURST",
	"rate_limit.trusted_proxies": "RATE_LIMIT_TRUSTED_PROXIES",
	"logging.level":              "LOG_LEVEL",
	"simulator.fleet_size":       "FLEET_SIZE",
	"simulator.refuels":          "SIM_REFUELS",
	"simulator.phone":            "SIM_PHONE",
	"simulator.password":         "SIM_PASSWORD",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8080/api")
	v.SetDefault("session.db_path", "data/session.db")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", "15s")
	v.SetDefault("http.write_timeout", "15s")
	v.SetDefault("http.shutdown_timeout", "10s")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "fuel_tracker")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "fuel-tracker-api")
	v.SetDefault("rate_limit.rps", 10)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("rate_limit.trusted_proxies", []string{})
	v.SetDefault("logging.level", "info")
	v.SetDefault("simulator.fleet_size", 3)
	v.SetDefault("simulator.refuels", 10)
	v.SetDefault("simulator.phone", "+10000000000")
	v.SetDefault("simulator.password", "simulator-password")
}

// Load reads the optional dotenv files (".env" when none are given), then
// the environment. Variables already set in the environment win over the
// files.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.HTTP.Port)
	}
	if c.JWT.Expiry <= 0 {
		return fmt.Errorf("invalid JWT_EXPIRY %s", c.JWT.Expiry)
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return nil
}

// Logger returns a logrus logger at the configured level with JSON output.
func (c *Config) Logger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(c.Logging.Level); err == nil {
		log.SetLevel(level)
	}
	return log
}

// Addr is the listen address of the API server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTP.Port)
}
