// Package entities contains core business entities.
package entities

// PullRequestID identifies a pull request within its project. The host
// assigns it when the pull request is opened; it is stable for the pull
// request's lifetime.
type PullRequestID int

// Sha is a 40-hex-character commit identifier. Equality is bytewise.
type Sha string

// Branch is a host-visible ref name, e.g. the source branch of a pull request.
type Branch string

// BuildStatus enumerates CI states for an integrated commit.
type BuildStatus string

const (
	// BuildNotStarted means no CI run is associated with the pull request.
	BuildNotStarted BuildStatus = "NOT_STARTED"
	// BuildPending means CI is running for the integrated commit.
	BuildPending BuildStatus = "PENDING"
	// BuildSucceeded means CI passed for the integrated commit.
	BuildSucceeded BuildStatus = "SUCCEEDED"
	// BuildFailed means CI failed for the integrated commit.
	BuildFailed BuildStatus = "FAILED"
)

// IntegrationState enumerates rebase outcomes for a pull request.
type IntegrationState string

const (
	// NotIntegrated means no integration has been attempted for the current head.
	NotIntegrated IntegrationState = "NOT_INTEGRATED"
	// Integrated means the pull request was rebased onto the target branch.
	Integrated IntegrationState = "INTEGRATED"
	// Conflicted means the rebase onto the target branch failed.
	Conflicted IntegrationState = "CONFLICTED"
)

// IntegrationStatus couples the integration state with the rebased commit
// that was pushed to the test branch. Sha is set only when State is
// Integrated.
type IntegrationStatus struct {
	State IntegrationState `json:"state"`
	Sha   Sha              `json:"sha,omitempty"`
}

// IntegratedAs builds the status of a pull request rebased to sha.
func IntegratedAs(sha Sha) IntegrationStatus {
	return IntegrationStatus{State: Integrated, Sha: sha}
}

// PushResult reports whether the host accepted a fast-forward push.
type PushResult string

const (
	// PushOK means the target branch now points at the pushed commit.
	PushOK PushResult = "OK"
	// PushRejected means the target branch advanced in the meantime.
	PushRejected PushResult = "REJECTED"
)

// PullRequest is the tracked state of a single pull request.
type PullRequest struct {
	Branch      Branch            `json:"branch"`
	Sha         Sha               `json:"sha"`
	Title       string            `json:"title"`
	Author      string            `json:"author"`
	ApprovedBy  string            `json:"approvedBy,omitempty"`
	Integration IntegrationStatus `json:"integration"`
	Build       BuildStatus       `json:"build"`
}

// NewPullRequest returns the entry inserted when a pull request is opened:
// unapproved, not integrated, no build.
func NewPullRequest(branch Branch, sha Sha, title, author string) PullRequest {
	return PullRequest{
		Branch:      branch,
		Sha:         sha,
		Title:       title,
		Author:      author,
		Integration: IntegrationStatus{State: NotIntegrated},
		Build:       BuildNotStarted,
	}
}

// Approved reports whether a reviewer issued a valid merge command for the
// current head commit.
func (pr PullRequest) Approved() bool {
	return pr.ApprovedBy != ""
}

// Eligible reports whether the pull request is waiting to become the
// integration candidate: approved, never integrated, no build yet.
func (pr PullRequest) Eligible() bool {
	return pr.Approved() && pr.Integration.State == NotIntegrated && pr.Build == BuildNotStarted
}
