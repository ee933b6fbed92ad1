package logic

import (
	"context"

	"go.uber.org/zap"

	"github.com/pbrinkmeier/hoff/internal/entities"
)

// GitDriver is the slice of the git driver the interpreter needs.
type GitDriver interface {
	DirectoryExists() bool
	Clone(ctx context.Context) error
	TryIntegrate(ctx context.Context, message, ref string, sha entities.Sha) (entities.Sha, bool, error)
	Push(ctx context.Context, sha entities.Sha, branch entities.Branch) (entities.PushResult, error)
	ForcePush(ctx context.Context, sha entities.Sha, branch entities.Branch) (entities.PushResult, error)
}

// HostDriver is the slice of the host API driver the interpreter needs.
type HostDriver interface {
	LeaveComment(ctx context.Context, owner, repo string, number entities.PullRequestID, body string) error
	HasPushAccess(ctx context.Context, owner, repo, user string) (bool, error)
}

// cloneAttempts bounds how often a missing checkout is cloned before the
// interpreter gives up and lets the git operations fail soft.
const cloneAttempts = 3

// Interpreter executes effects against the real drivers for one project.
// In read-only mode comments are logged instead of posted and promotions are
// skipped; reviewer checks and local git operations still run.
type Interpreter struct {
	owner    string
	repo     string
	branch   entities.Branch
	git      GitDriver
	host     HostDriver
	readOnly bool
	log      *zap.SugaredLogger
}

// NewInterpreter binds the effects of one project to its drivers. branch is
// the target branch promotions fast-forward.
func NewInterpreter(
	owner, repo string,
	branch entities.Branch,
	git GitDriver,
	host HostDriver,
	readOnly bool,
	log *zap.SugaredLogger,
) *Interpreter {
	return &Interpreter{
		owner:    owner,
		repo:     repo,
		branch:   branch,
		git:      git,
		host:     host,
		readOnly: readOnly,
		log:      log.Named("interpreter").With("project", owner+"/"+repo),
	}
}

// TryIntegrate implements Effects.
func (in *Interpreter) TryIntegrate(ctx context.Context, message, ref string, sha entities.Sha) (entities.Sha, bool, error) {
	if !in.ensureCloned(ctx) {
		return "", false, nil
	}
	return in.git.TryIntegrate(ctx, message, ref, sha)
}

// TryPromote implements Effects. The pull request branch is rewritten first
// so the host marks the pull request merged once the target branch moves.
func (in *Interpreter) TryPromote(ctx context.Context, branch entities.Branch, sha entities.Sha) (entities.PushResult, error) {
	if in.readOnly {
		in.log.Infow("read-only: skipping promotion", "branch", branch, "sha", sha)
		return entities.PushOK, nil
	}
	if !in.ensureCloned(ctx) {
		return entities.PushRejected, nil
	}
	result, err := in.git.ForcePush(ctx, sha, branch)
	if err != nil {
		return "", err
	}
	if result == entities.PushRejected {
		return entities.PushRejected, nil
	}
	return in.git.Push(ctx, sha, in.branch)
}

// LeaveComment implements Effects.
func (in *Interpreter) LeaveComment(ctx context.Context, id entities.PullRequestID, body string) error {
	if in.readOnly {
		in.log.Infow("read-only: suppressing comment", "pull_request", id, "body", body)
		return nil
	}
	return in.host.LeaveComment(ctx, in.owner, in.repo, id, body)
}

// IsReviewer implements Effects.
func (in *Interpreter) IsReviewer(ctx context.Context, username string) (bool, error) {
	return in.host.HasPushAccess(ctx, in.owner, in.repo, username)
}

// ensureCloned makes sure the local checkout exists, cloning it on demand.
// After cloneAttempts failures it gives up; the following git operation
// fails and surfaces as a conflict or rejected push.
func (in *Interpreter) ensureCloned(ctx context.Context) bool {
	if in.git.DirectoryExists() {
		return true
	}
	in.log.Infow("checkout missing, cloning")
	for attempt := 1; attempt <= cloneAttempts; attempt++ {
		if err := in.git.Clone(ctx); err != nil {
			in.log.Warnw("clone failed", "attempt", attempt, "error", err)
			continue
		}
		return true
	}
	in.log.Errorw("giving up on clone", "attempts", cloneAttempts)
	return false
}
