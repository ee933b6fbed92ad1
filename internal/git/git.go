// Package git wraps the git command line client. Every project gets one
// Repository bound to its checkout directory, target branch and test branch;
// the logic worker is its only caller, so operations need no locking.
package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pbrinkmeier/hoff/internal/entities"
)

// Runner executes one git invocation in dir and returns trimmed stdout.
// Extra env entries are appended to the process environment.
type Runner interface {
	Run(ctx context.Context, dir string, env []string, args ...string) (string, error)
}

// CLIRunner runs the real git binary with a per-command timeout.
type CLIRunner struct {
	GitPath string
	Timeout time.Duration
}

// Run implements Runner.
func (r CLIRunner) Run(ctx context.Context, dir string, env []string, args ...string) (string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	gitPath := r.GitPath
	if gitPath == "" {
		gitPath = "git"
	}

	cmd := exec.CommandContext(ctx, gitPath, args...)
	cmd.Dir = dir
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Identity is the author/committer identity for integration commits, passed
// to git through the environment.
type Identity struct {
	Name  string
	Email string
}

func (id Identity) env() []string {
	if id.Name == "" && id.Email == "" {
		return nil
	}
	return []string{
		"GIT_AUTHOR_NAME=" + id.Name,
		"GIT_AUTHOR_EMAIL=" + id.Email,
		"GIT_COMMITTER_NAME=" + id.Name,
		"GIT_COMMITTER_EMAIL=" + id.Email,
	}
}

// Config binds a Repository to one project's remote and branches.
type Config struct {
	URL        string
	Dir        string
	Branch     entities.Branch
	TestBranch entities.Branch
	Identity   Identity
	// PushDisabled keeps remote refs untouched; a read-only instance still
	// rebases and merges in its local checkout.
	PushDisabled bool
}

// Repository is the local clone of one project.
//
// Failures of individual git commands never abort the worker: integration
// failures surface as a conflict result and push failures as a rejected
// result, which the logic turns into a user-visible comment or a retry.
type Repository struct {
	cfg    Config
	runner Runner
	log    *zap.SugaredLogger
}

// NewRepository builds a Repository from its configuration.
func NewRepository(cfg Config, runner Runner, log *zap.SugaredLogger) *Repository {
	return &Repository{
		cfg:    cfg,
		runner: runner,
		log:    log.Named("git"),
	}
}

// Directory returns the checkout directory.
func (r *Repository) Directory() string {
	return r.cfg.Dir
}

// DirectoryExists reports whether the checkout is present on disk.
func (r *Repository) DirectoryExists() bool {
	info, err := os.Stat(filepath.Join(r.cfg.Dir, ".git"))
	return err == nil && info.IsDir()
}

// Clone clones the remote into the checkout directory.
func (r *Repository) Clone(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(r.cfg.Dir), 0o755); err != nil {
		return fmt.Errorf("create checkout parent: %w", err)
	}
	if _, err := r.runner.Run(ctx, "", nil, "clone", r.cfg.URL, r.cfg.Dir); err != nil {
		return err
	}
	return nil
}

// TryIntegrate fetches the candidate ref, rebases it onto the target branch
// and rewrites the test branch to a merge commit carrying message, then
// force-pushes the test branch so CI picks it up. It returns the new test
// branch head, or ok false when the candidate cannot be integrated cleanly.
func (r *Repository) TryIntegrate(ctx context.Context, message, ref string, sha entities.Sha) (entities.Sha, bool, error) {
	if _, err := r.run(ctx, "fetch", "origin", ref); err != nil {
		return r.conflict("fetch candidate", err)
	}
	if _, err := r.run(ctx, "fetch", "origin", string(r.cfg.Branch)); err != nil {
		return r.conflict("fetch target", err)
	}
	if _, err := r.run(ctx, "checkout", "--quiet", string(sha)); err != nil {
		return r.conflict("checkout candidate", err)
	}
	if _, err := r.runCommit(ctx, "rebase", "origin/"+string(r.cfg.Branch)); err != nil {
		r.log.Infow("rebase conflict", "ref", ref, "sha", sha, "error", err)
		if _, abortErr := r.run(ctx, "rebase", "--abort"); abortErr != nil {
			r.log.Warnw("rebase abort failed", "error", abortErr)
		}
		return "", false, nil
	}
	rebased, err := r.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return r.conflict("resolve rebased head", err)
	}
	if _, err := r.run(ctx, "checkout", "--quiet", "-B", string(r.cfg.TestBranch), "origin/"+string(r.cfg.Branch)); err != nil {
		return r.conflict("reset test branch", err)
	}
	if _, err := r.runCommit(ctx, "merge", "--no-ff", "-m", message, rebased); err != nil {
		r.log.Infow("merge conflict", "ref", ref, "sha", sha, "error", err)
		if _, abortErr := r.run(ctx, "merge", "--abort"); abortErr != nil {
			r.log.Warnw("merge abort failed", "error", abortErr)
		}
		return "", false, nil
	}
	newSha, err := r.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return r.conflict("resolve merge head", err)
	}
	if r.cfg.PushDisabled {
		r.log.Infow("push disabled, keeping test branch local", "sha", newSha)
		return entities.Sha(newSha), true, nil
	}
	if _, err := r.run(ctx, "push", "--force", "origin", string(r.cfg.TestBranch)); err != nil {
		return r.conflict("push test branch", err)
	}
	return entities.Sha(newSha), true, nil
}

// Push fast-forwards branch on the host to sha. A push the host refuses,
// because the branch advanced or the remote is unreachable, reports
// PushRejected; the logic restarts integration in that case.
func (r *Repository) Push(ctx context.Context, sha entities.Sha, branch entities.Branch) (entities.PushResult, error) {
	if _, err := r.run(ctx, "push", "origin", string(sha)+":refs/heads/"+string(branch)); err != nil {
		r.log.Infow("push rejected", "branch", branch, "sha", sha, "error", err)
		return entities.PushRejected, nil
	}
	return entities.PushOK, nil
}

// ForcePush rewrites branch on the host to point at sha.
func (r *Repository) ForcePush(ctx context.Context, sha entities.Sha, branch entities.Branch) (entities.PushResult, error) {
	if _, err := r.run(ctx, "push", "--force", "origin", string(sha)+":refs/heads/"+string(branch)); err != nil {
		r.log.Infow("force push rejected", "branch", branch, "sha", sha, "error", err)
		return entities.PushRejected, nil
	}
	return entities.PushOK, nil
}

func (r *Repository) run(ctx context.Context, args ...string) (string, error) {
	return r.runner.Run(ctx, r.cfg.Dir, nil, args...)
}

// runCommit is run with the commit identity exported, for commands that
// create commits.
func (r *Repository) runCommit(ctx context.Context, args ...string) (string, error) {
	return r.runner.Run(ctx, r.cfg.Dir, r.cfg.Identity.env(), args...)
}

func (r *Repository) conflict(step string, err error) (entities.Sha, bool, error) {
	r.log.Warnw("integration failed", "step", step, "error", err)
	return "", false, nil
}
