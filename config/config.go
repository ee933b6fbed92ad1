// Package config loads application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envFile = "config/.env"

// NewConfig loads configuration using viper with typed defaults and
// validation. The projects list comes from the YAML config file; scalar
// settings may be overridden through the environment, optionally seeded
// from config/.env.
func NewConfig(path string) (*Config, error) {
	v := viper.New()
	if envMap, err := godotenv.Read(envFile); err == nil {
		for k, v := range envMap {
			if _, exists := os.LookupEnv(k); !exists {
				_ = os.Setenv(k, v)
			}
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvs(v)

	if err := readConfigFile(v, path); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// readConfigFile loads the YAML file at path, or searches the usual
// locations when no path is given. Only an explicitly named file is
// required to exist.
func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config file: %w", err)
		}
	}

	return nil
}

// normalize fills per-project defaults that depend on other fields.
func (c *Config) normalize() {
	for i := range c.Projects {
		if c.Projects[i].Branch == "" {
			c.Projects[i].Branch = "master"
		}
		if c.Projects[i].TestBranch == "" {
			c.Projects[i].TestBranch = "testing"
		}
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "debug")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 1979)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("http.request_timeout", 3*time.Second)

	v.SetDefault("queue.capacity", 128)

	v.SetDefault("git.user_name", "hoff")
	v.SetDefault("git.user_email", "hoff@localhost")
	v.SetDefault("git.command_timeout", time.Minute)
	v.SetDefault("git.checkout_root", "checkouts")
	v.SetDefault("git.state_root", "state")

	v.SetDefault("state.backend", "file")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "postgres")
	v.SetDefault("postgres.db_name", "hoff_db")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.migrations_dir", "db/migrations")
	v.SetDefault("postgres.migrate_timeout", 10*time.Second)
	v.SetDefault("postgres.query_timeout", 2*time.Second)
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
}

func bindEnvs(v *viper.Viper) {
	keys := []string{
		"logging.level",
		"server.host",
		"server.port",
		"server.shutdown_timeout",
		"http.request_timeout",
		"queue.capacity",
		"github.access_token",
		"github.webhook_secret",
		"github.api_base_url",
		"git.user_name",
		"git.user_email",
		"git.command_timeout",
		"git.checkout_root",
		"git.state_root",
		"trigger.comment_prefix",
		"state.backend",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.db_name",
		"postgres.ssl_mode",
		"postgres.migrations_dir",
		"postgres.migrate_timeout",
		"postgres.query_timeout",
		"postgres.max_conns",
		"postgres.min_conns",
		"read_only",
	}

	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}
