package logic

import (
	"context"
	"fmt"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/pbrinkmeier/hoff/internal/entities"
	"github.com/pbrinkmeier/hoff/internal/trigger"
)

type integrateResult struct {
	sha entities.Sha
	ok  bool
}

// fakeEffects records every effect call in order and plays back scripted
// results, so transitions can be asserted as (state, call log) pairs.
type fakeEffects struct {
	calls     []string
	reviewers map[string]bool

	integrations []integrateResult
	promotions   []entities.PushResult

	integrateFn func(message, ref string, sha entities.Sha) (entities.Sha, bool)
	promoteFn   func(branch entities.Branch, sha entities.Sha) entities.PushResult

	reviewerErr  error
	commentErr   error
	integrateErr error
	promoteErr   error
}

func newFakeEffects() *fakeEffects {
	return &fakeEffects{reviewers: map[string]bool{}}
}

func (f *fakeEffects) TryIntegrate(_ context.Context, message, ref string, sha entities.Sha) (entities.Sha, bool, error) {
	f.calls = append(f.calls, fmt.Sprintf("TryIntegrate(%q, %s, %s)", message, ref, sha))
	if f.integrateErr != nil {
		return "", false, f.integrateErr
	}
	if f.integrateFn != nil {
		newSha, ok := f.integrateFn(message, ref, sha)
		return newSha, ok, nil
	}
	if len(f.integrations) == 0 {
		return "", false, nil
	}
	result := f.integrations[0]
	f.integrations = f.integrations[1:]
	return result.sha, result.ok, nil
}

func (f *fakeEffects) TryPromote(_ context.Context, branch entities.Branch, sha entities.Sha) (entities.PushResult, error) {
	f.calls = append(f.calls, fmt.Sprintf("TryPromote(%s, %s)", branch, sha))
	if f.promoteErr != nil {
		return "", f.promoteErr
	}
	if f.promoteFn != nil {
		return f.promoteFn(branch, sha), nil
	}
	if len(f.promotions) == 0 {
		return entities.PushOK, nil
	}
	result := f.promotions[0]
	f.promotions = f.promotions[1:]
	return result, nil
}

func (f *fakeEffects) LeaveComment(_ context.Context, id entities.PullRequestID, body string) error {
	f.calls = append(f.calls, fmt.Sprintf("LeaveComment(%d, %q)", id, body))
	return f.commentErr
}

func (f *fakeEffects) IsReviewer(_ context.Context, username string) (bool, error) {
	f.calls = append(f.calls, fmt.Sprintf("IsReviewer(%s)", username))
	if f.reviewerErr != nil {
		return false, f.reviewerErr
	}
	return f.reviewers[username], nil
}

func newTestHandler(t *testing.T, effects Effects) *Handler {
	t.Helper()
	return NewHandler(trigger.NewParser("@bot"), effects, zaptest.NewLogger(t).Sugar())
}

// openedPR is a shorthand for the state entry created by PullRequestOpened.
func openedPR(branch entities.Branch, sha entities.Sha, author string) entities.PullRequest {
	return entities.NewPullRequest(branch, sha, "title", author)
}

func approvedPR(branch entities.Branch, sha entities.Sha, author, approver string) entities.PullRequest {
	pr := openedPR(branch, sha, author)
	pr.ApprovedBy = approver
	return pr
}

func candidatePR(branch entities.Branch, sha, integrated entities.Sha, approver string, build entities.BuildStatus) entities.PullRequest {
	pr := approvedPR(branch, sha, "author", approver)
	pr.Integration = entities.IntegratedAs(integrated)
	pr.Build = build
	return pr
}
