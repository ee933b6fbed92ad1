// Package logic contains the event handler and proceed loop that drive a
// project's merge queue, plus the interpreter binding their effects to the
// git and host drivers.
package logic

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pbrinkmeier/hoff/internal/entities"
	"github.com/pbrinkmeier/hoff/internal/trigger"
)

// Handler applies domain events to a project state. Transitions are
// deterministic: the same event on the same state yields the same state and
// the same effect calls. All blocking happens inside the Effects
// implementation.
type Handler struct {
	trigger trigger.Parser
	effects Effects
	log     *zap.SugaredLogger
}

// NewHandler builds a Handler around the merge-command parser and an effects
// implementation.
func NewHandler(parser trigger.Parser, effects Effects, log *zap.SugaredLogger) *Handler {
	return &Handler{
		trigger: parser,
		effects: effects,
		log:     log.Named("logic"),
	}
}

// HandleEvent applies one event to state. Events referring to unknown pull
// requests are dropped without touching the state.
func (h *Handler) HandleEvent(ctx context.Context, state *entities.ProjectState, event entities.Event) error {
	switch e := event.(type) {
	case entities.PullRequestOpened:
		return h.handleOpened(state, e)
	case entities.PullRequestCommitChanged:
		return h.handleCommitChanged(state, e)
	case entities.PullRequestClosed:
		return h.handleClosed(state, e)
	case entities.CommentAdded:
		return h.handleCommentAdded(ctx, state, e)
	case entities.BuildStatusChanged:
		return h.handleBuildStatusChanged(state, e)
	}
	return invariantViolation("unhandled event kind %q", event.Kind())
}

func (h *Handler) handleOpened(state *entities.ProjectState, e entities.PullRequestOpened) error {
	state.Insert(e.ID, entities.NewPullRequest(e.Branch, e.Sha, e.Title, e.Author))
	return nil
}

// handleCommitChanged treats a real head change as close-then-reopen: the
// pull request moves to the back of the queue and loses approval and build
// results. The host occasionally resends the current head; that is a no-op.
func (h *Handler) handleCommitChanged(state *entities.ProjectState, e entities.PullRequestCommitChanged) error {
	pr, ok := state.Get(e.ID)
	if !ok || pr.Sha == e.Sha {
		return nil
	}
	state.Insert(e.ID, entities.NewPullRequest(pr.Branch, e.Sha, pr.Title, pr.Author))
	return nil
}

func (h *Handler) handleClosed(state *entities.ProjectState, e entities.PullRequestClosed) error {
	state.Delete(e.ID)
	return nil
}

func (h *Handler) handleCommentAdded(ctx context.Context, state *entities.ProjectState, e entities.CommentAdded) error {
	if !state.Has(e.ID) {
		return nil
	}
	if !h.trigger.IsMergeCommand(e.Body) {
		return nil
	}
	reviewer, err := h.effects.IsReviewer(ctx, e.Author)
	if err != nil {
		return err
	}
	if !reviewer {
		h.log.Infow("merge command from non-reviewer ignored",
			"pull_request", e.ID,
			"author", e.Author)
		return nil
	}
	state.Update(e.ID, func(pr *entities.PullRequest) {
		pr.ApprovedBy = e.Author
	})
	return h.effects.LeaveComment(ctx, e.ID, approvalMessage(e.Author, state.QueuePosition(e.ID)))
}

// handleBuildStatusChanged applies a CI status when it reports on the
// candidate's integrated commit. Statuses for any other commit are stale
// leftovers of earlier integrations and get dropped.
func (h *Handler) handleBuildStatusChanged(state *entities.ProjectState, e entities.BuildStatusChanged) error {
	if state.Candidate == entities.NoCandidate {
		return nil
	}
	pr, ok := state.Get(state.Candidate)
	if !ok {
		return invariantViolation("candidate %d is not tracked", state.Candidate)
	}
	if pr.Integration.State != entities.Integrated || pr.Integration.Sha != e.Sha {
		h.log.Debugw("dropping stale build status",
			"sha", e.Sha,
			"status", e.Status,
			"candidate", state.Candidate)
		return nil
	}
	state.Update(state.Candidate, func(pr *entities.PullRequest) {
		pr.Build = e.Status
	})
	return nil
}

func approvalMessage(user string, position int) string {
	switch position {
	case 0:
		return fmt.Sprintf("approved by @%s, rebasing now.", user)
	case 1:
		return fmt.Sprintf("approved by @%s, waiting for rebase at the front of the queue.", user)
	default:
		return fmt.Sprintf("approved by @%s, waiting for rebase behind %d pull requests.", user, position)
	}
}

func invariantViolation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", entities.ErrInvariantViolation, fmt.Sprintf(format, args...))
}
