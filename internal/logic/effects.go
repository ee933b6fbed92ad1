package logic

import (
	"context"

	"github.com/pbrinkmeier/hoff/internal/entities"
)

// Effects is everything the event handler may do besides changing state. The
// production implementation is the Interpreter; tests substitute a recorder
// so transitions stay deterministic.
//
// Handler methods call effects in a fixed order for a given event and state,
// so the sequence of calls doubles as the action log of a transition.
type Effects interface {
	// TryIntegrate rebases the commit reachable at ref onto the target
	// branch and publishes the result on the test branch. It returns the
	// new test branch head, or ok false on conflict.
	TryIntegrate(ctx context.Context, message, ref string, sha entities.Sha) (entities.Sha, bool, error)
	// TryPromote rewrites the pull request branch to the integrated sha and
	// fast-forwards the target branch to it.
	TryPromote(ctx context.Context, branch entities.Branch, sha entities.Sha) (entities.PushResult, error)
	// LeaveComment posts a comment on the pull request.
	LeaveComment(ctx context.Context, id entities.PullRequestID, body string) error
	// IsReviewer reports whether username may approve merges.
	IsReviewer(ctx context.Context, username string) (bool, error)
}
