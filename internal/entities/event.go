package entities

// Event is a domain event consumed by the logic worker. Events arrive through
// the webhook adapter in host-delivery order.
type Event interface {
	// Kind names the event for logs.
	Kind() string
}

// PullRequestOpened records a pull request opened (or re-opened) on the host.
type PullRequestOpened struct {
	ID     PullRequestID
	Branch Branch
	Sha    Sha
	Title  string
	Author string
}

// Kind implements Event.
func (PullRequestOpened) Kind() string { return "pull_request_opened" }

// PullRequestCommitChanged records a new head commit for a pull request. The
// host may send it spuriously; the handler ignores it when the sha is
// unchanged.
type PullRequestCommitChanged struct {
	ID  PullRequestID
	Sha Sha
}

// Kind implements Event.
func (PullRequestCommitChanged) Kind() string { return "pull_request_commit_changed" }

// PullRequestClosed records a pull request closed on the host, whether merged
// or abandoned.
type PullRequestClosed struct {
	ID PullRequestID
}

// Kind implements Event.
func (PullRequestClosed) Kind() string { return "pull_request_closed" }

// CommentAdded records a comment posted on a pull request.
type CommentAdded struct {
	ID     PullRequestID
	Author string
	Body   string
}

// Kind implements Event.
func (CommentAdded) Kind() string { return "comment_added" }

// BuildStatusChanged records a CI status for a commit. It is addressed by the
// rebased sha, not by pull request id; statuses for commits that are not the
// current candidate's integrated sha are stale and get dropped.
type BuildStatusChanged struct {
	Sha    Sha
	Status BuildStatus
}

// Kind implements Event.
func (BuildStatusChanged) Kind() string { return "build_status_changed" }
