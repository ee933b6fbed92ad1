package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// Config holds application configuration.
type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	HTTP     HTTPConfig      `mapstructure:"http"`
	Logging  LoggingConfig   `mapstructure:"logging"`
	Queue    QueueConfig     `mapstructure:"queue"`
	Github   GithubConfig    `mapstructure:"github"`
	Git      GitConfig       `mapstructure:"git"`
	Trigger  TriggerConfig   `mapstructure:"trigger"`
	State    StateConfig     `mapstructure:"state"`
	Postgres PostgresConfig  `mapstructure:"postgres"`
	ReadOnly bool            `mapstructure:"read_only"`
	Projects []ProjectConfig `mapstructure:"projects"`
}

// Validate ensures required fields are present.
func (c Config) Validate() error {
	if c.Server.Port == 0 {
		return errors.New("server.port is required")
	}
	if c.Github.AccessToken == "" {
		return errors.New("github.access_token is required")
	}
	if c.Trigger.CommentPrefix == "" {
		return errors.New("trigger.comment_prefix is required")
	}

	switch c.State.Backend {
	case "file":
	case "postgres":
		if c.Postgres.User == "" || c.Postgres.Password == "" || c.Postgres.DBName == "" {
			return errors.New("postgres credentials are required")
		}
		if c.Postgres.Host == "" {
			return errors.New("postgres.host is required")
		}
	default:
		return fmt.Errorf("unknown state backend: %s", c.State.Backend)
	}

	if len(c.Projects) == 0 {
		return errors.New("at least one project is required")
	}

	seen := make(map[string]bool, len(c.Projects))
	for _, p := range c.Projects {
		if p.Owner == "" || p.Repository == "" {
			return errors.New("every project needs owner and repository")
		}
		if seen[p.FullName()] {
			return fmt.Errorf("project %s is configured twice", p.FullName())
		}
		seen[p.FullName()] = true
	}

	return nil
}

// ServerAddr returns host:port for HTTP server binding.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ServerConfig contains HTTP server options.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// HTTPConfig contains transport settings.
type HTTPConfig struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// LoggingConfig contains logger preferences.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// QueueConfig sizes the per-project webhook queues.
type QueueConfig struct {
	Capacity int `mapstructure:"capacity"`
}

// GithubConfig contains API credentials and the webhook secret.
type GithubConfig struct {
	AccessToken   string `mapstructure:"access_token"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	APIBaseURL    string `mapstructure:"api_base_url"`
}

// GitConfig describes how local checkouts are driven.
type GitConfig struct {
	UserName       string        `mapstructure:"user_name"`
	UserEmail      string        `mapstructure:"user_email"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
	CheckoutRoot   string        `mapstructure:"checkout_root"`
	StateRoot      string        `mapstructure:"state_root"`
}

// TriggerConfig names the comment prefix that addresses the bot.
type TriggerConfig struct {
	CommentPrefix string `mapstructure:"comment_prefix"`
}

// StateConfig selects where project state snapshots live.
type StateConfig struct {
	Backend string `mapstructure:"backend"`
}

// PostgresConfig describes database connection parameters for the postgres
// state backend.
type PostgresConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	DBName         string        `mapstructure:"db_name"`
	SSLMode        string        `mapstructure:"ssl_mode"`
	MigrationsDir  string        `mapstructure:"migrations_dir"`
	MigrateTimeout time.Duration `mapstructure:"migrate_timeout"`
	QueryTimeout   time.Duration `mapstructure:"query_timeout"`
	MaxConns       int32         `mapstructure:"max_conns"`
	MinConns       int32         `mapstructure:"min_conns"`
}

// DSN returns a Postgres connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode,
	)
}

// ProjectConfig describes one gated repository.
type ProjectConfig struct {
	Owner      string `mapstructure:"owner"`
	Repository string `mapstructure:"repository"`
	Branch     string `mapstructure:"branch"`
	TestBranch string `mapstructure:"test_branch"`
	CloneURL   string `mapstructure:"clone_url"`
	Checkout   string `mapstructure:"checkout"`
	StateFile  string `mapstructure:"state_file"`
}

// FullName returns the "owner/repository" form used in webhook payloads.
func (p ProjectConfig) FullName() string {
	return p.Owner + "/" + p.Repository
}

// URL returns the clone URL, defaulting to the GitHub HTTPS remote.
func (p ProjectConfig) URL() string {
	if p.CloneURL != "" {
		return p.CloneURL
	}
	return fmt.Sprintf("https://github.com/%s/%s.git", p.Owner, p.Repository)
}

// CheckoutDir returns the working checkout path under root.
func (p ProjectConfig) CheckoutDir(root string) string {
	if p.Checkout != "" {
		return p.Checkout
	}
	return filepath.Join(root, p.Owner, p.Repository)
}

// StatePath returns the state file path under root.
func (p ProjectConfig) StatePath(root string) string {
	if p.StateFile != "" {
		return p.StateFile
	}
	return filepath.Join(root, p.Owner, p.Repository+".json")
}
