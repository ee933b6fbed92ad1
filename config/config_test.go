package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
github:
  access_token: token123
trigger:
  comment_prefix: "@hoff-bot"
projects:
  - owner: acme
    repository: widgets
`

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig(writeConfigFile(t, minimalConfig))
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0:1979", cfg.ServerAddr())
	require.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	require.Equal(t, 3*time.Second, cfg.HTTP.RequestTimeout)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, 128, cfg.Queue.Capacity)
	require.Equal(t, "hoff", cfg.Git.UserName)
	require.Equal(t, time.Minute, cfg.Git.CommandTimeout)
	require.Equal(t, "file", cfg.State.Backend)
	require.Equal(t, 2*time.Second, cfg.Postgres.QueryTimeout)
	require.False(t, cfg.ReadOnly)

	require.Len(t, cfg.Projects, 1)
	p := cfg.Projects[0]
	require.Equal(t, "acme/widgets", p.FullName())
	require.Equal(t, "master", p.Branch)
	require.Equal(t, "testing", p.TestBranch)
	require.Equal(t, "https://github.com/acme/widgets.git", p.URL())
	require.Equal(t, filepath.Join("checkouts", "acme", "widgets"), p.CheckoutDir(cfg.Git.CheckoutRoot))
	require.Equal(t, filepath.Join("state", "acme", "widgets.json"), p.StatePath(cfg.Git.StateRoot))
}

func TestNewConfigFullFile(t *testing.T) {
	cfg, err := NewConfig(writeConfigFile(t, `
server:
  host: 127.0.0.1
  port: 8080
  shutdown_timeout: 2s
logging:
  level: info
queue:
  capacity: 16
github:
  access_token: token123
  webhook_secret: hush
  api_base_url: https://ghe.example.com/api/v3
git:
  user_name: gatekeeper
  user_email: gatekeeper@example.com
  command_timeout: 30s
  checkout_root: /var/lib/hoff/checkouts
  state_root: /var/lib/hoff/state
trigger:
  comment_prefix: "@gatekeeper"
read_only: true
projects:
  - owner: acme
    repository: widgets
    branch: main
    test_branch: ci
    clone_url: git@github.com:acme/widgets.git
    checkout: /srv/checkouts/widgets
    state_file: /srv/state/widgets.json
  - owner: acme
    repository: gadgets
`))
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1:8080", cfg.ServerAddr())
	require.Equal(t, 2*time.Second, cfg.Server.ShutdownTimeout)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, 16, cfg.Queue.Capacity)
	require.Equal(t, "hush", cfg.Github.WebhookSecret)
	require.Equal(t, "https://ghe.example.com/api/v3", cfg.Github.APIBaseURL)
	require.Equal(t, 30*time.Second, cfg.Git.CommandTimeout)
	require.True(t, cfg.ReadOnly)

	require.Len(t, cfg.Projects, 2)

	widgets := cfg.Projects[0]
	require.Equal(t, "main", widgets.Branch)
	require.Equal(t, "ci", widgets.TestBranch)
	require.Equal(t, "git@github.com:acme/widgets.git", widgets.URL())
	require.Equal(t, "/srv/checkouts/widgets", widgets.CheckoutDir(cfg.Git.CheckoutRoot))
	require.Equal(t, "/srv/state/widgets.json", widgets.StatePath(cfg.Git.StateRoot))

	gadgets := cfg.Projects[1]
	require.Equal(t, "master", gadgets.Branch)
	require.Equal(t, "testing", gadgets.TestBranch)
	require.Equal(t, filepath.Join("/var/lib/hoff/checkouts", "acme", "gadgets"), gadgets.CheckoutDir(cfg.Git.CheckoutRoot))
}

func TestNewConfigEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("READ_ONLY", "true")
	t.Setenv("GITHUB_ACCESS_TOKEN", "env-token")

	cfg, err := NewConfig(writeConfigFile(t, minimalConfig))
	require.NoError(t, err)

	require.Equal(t, 9999, cfg.Server.Port)
	require.True(t, cfg.ReadOnly)
	require.Equal(t, "env-token", cfg.Github.AccessToken)
}

func TestNewConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "missing access token",
			yaml: `
trigger:
  comment_prefix: "@hoff-bot"
projects:
  - owner: acme
    repository: widgets
`,
			wantErr: "github.access_token",
		},
		{
			name: "missing comment prefix",
			yaml: `
github:
  access_token: token123
projects:
  - owner: acme
    repository: widgets
`,
			wantErr: "trigger.comment_prefix",
		},
		{
			name: "no projects",
			yaml: `
github:
  access_token: token123
trigger:
  comment_prefix: "@hoff-bot"
`,
			wantErr: "at least one project",
		},
		{
			name: "project without repository",
			yaml: `
github:
  access_token: token123
trigger:
  comment_prefix: "@hoff-bot"
projects:
  - owner: acme
`,
			wantErr: "owner and repository",
		},
		{
			name: "duplicate project",
			yaml: `
github:
  access_token: token123
trigger:
  comment_prefix: "@hoff-bot"
projects:
  - owner: acme
    repository: widgets
  - owner: acme
    repository: widgets
`,
			wantErr: "configured twice",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GITHUB_ACCESS_TOKEN", "")
			t.Setenv("TRIGGER_COMMENT_PREFIX", "")

			_, err := NewConfig(writeConfigFile(t, tt.yaml))
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNewConfigMissingExplicitFile(t *testing.T) {
	_, err := NewConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestNewConfigRejectsBadYAML(t *testing.T) {
	_, err := NewConfig(writeConfigFile(t, "projects: ["))
	require.Error(t, err)
}
