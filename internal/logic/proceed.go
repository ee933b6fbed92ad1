package logic

import (
	"context"
	"fmt"

	"github.com/pbrinkmeier/hoff/internal/entities"
)

// maxProceedSteps caps the fixed-point loop. The transition system converges
// in a handful of steps; hitting the cap means a transition stopped being
// monotonic and the worker must die loudly instead of spinning.
const maxProceedSteps = 100

// ProceedUntilFixedPoint advances the queue until another step would not
// change the state.
func (h *Handler) ProceedUntilFixedPoint(ctx context.Context, state *entities.ProjectState) error {
	for i := 0; i < maxProceedSteps; i++ {
		before := state.Clone()
		if err := h.Proceed(ctx, state); err != nil {
			return err
		}
		if state.Equal(before) {
			return nil
		}
	}
	return invariantViolation("proceed loop did not converge after %d steps", maxProceedSteps)
}

// Proceed performs one step of queue progress without consuming an event:
// it resolves the candidate's build outcome, or picks the next pull request
// to integrate when there is no candidate.
func (h *Handler) Proceed(ctx context.Context, state *entities.ProjectState) error {
	if state.Candidate == entities.NoCandidate {
		id, ok := state.FirstEligible()
		if !ok {
			return nil
		}
		return h.tryIntegrate(ctx, state, id)
	}

	pr, ok := state.Get(state.Candidate)
	if !ok {
		return invariantViolation("candidate %d is not tracked", state.Candidate)
	}
	if pr.Integration.State != entities.Integrated {
		return invariantViolation("candidate %d has integration state %s", state.Candidate, pr.Integration.State)
	}
	switch pr.Build {
	case entities.BuildNotStarted:
		return invariantViolation("candidate %d has no build", state.Candidate)
	case entities.BuildPending:
		return nil
	case entities.BuildSucceeded:
		return h.pushCandidate(ctx, state, state.Candidate)
	case entities.BuildFailed:
		if err := h.effects.LeaveComment(ctx, state.Candidate, "The build failed."); err != nil {
			return err
		}
		state.Candidate = entities.NoCandidate
		return nil
	}
	return invariantViolation("candidate %d has unknown build status %q", state.Candidate, pr.Build)
}

// tryIntegrate makes id the integration candidate: rebase its head onto the
// target branch and hand the result to CI. On conflict the pull request is
// parked as Conflicted until its author pushes a new head.
func (h *Handler) tryIntegrate(ctx context.Context, state *entities.ProjectState, id entities.PullRequestID) error {
	pr, ok := state.Get(id)
	if !ok {
		return invariantViolation("pull request %d vanished before integration", id)
	}
	message := fmt.Sprintf("Merge #%d\n\nApproved-by: %s", id, pr.ApprovedBy)
	ref := fmt.Sprintf("refs/pull/%d/head", id)

	sha, ok, err := h.effects.TryIntegrate(ctx, message, ref, pr.Sha)
	if err != nil {
		return err
	}
	if !ok {
		if err := h.effects.LeaveComment(ctx, id, "Failed to rebase, please rebase manually."); err != nil {
			return err
		}
		state.Update(id, func(pr *entities.PullRequest) {
			pr.Integration = entities.IntegrationStatus{State: entities.Conflicted}
		})
		state.Candidate = entities.NoCandidate
		return nil
	}

	if err := h.effects.LeaveComment(ctx, id, fmt.Sprintf("Rebased as %s, waiting for CI …", sha)); err != nil {
		return err
	}
	state.Update(id, func(pr *entities.PullRequest) {
		pr.Integration = entities.IntegratedAs(sha)
		pr.Build = entities.BuildPending
	})
	state.Candidate = id
	return nil
}

// pushCandidate promotes a candidate whose build succeeded. A rejected push
// means the target branch advanced under us; the candidate is rebased again
// right away.
func (h *Handler) pushCandidate(ctx context.Context, state *entities.ProjectState, id entities.PullRequestID) error {
	pr, ok := state.Get(id)
	if !ok {
		return invariantViolation("candidate %d is not tracked", id)
	}
	if !pr.Approved() || pr.Build != entities.BuildSucceeded || pr.Integration.State != entities.Integrated {
		return invariantViolation("candidate %d is not promotable: approvedBy=%q build=%s integration=%s",
			id, pr.ApprovedBy, pr.Build, pr.Integration.State)
	}

	result, err := h.effects.TryPromote(ctx, pr.Branch, pr.Integration.Sha)
	if err != nil {
		return err
	}
	if result == entities.PushRejected {
		return h.tryIntegrate(ctx, state, id)
	}
	state.Candidate = entities.NoCandidate
	return nil
}
