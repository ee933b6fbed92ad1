// Package mapper converts between domain models and transport DTOs.
package mapper

import (
	"github.com/pbrinkmeier/hoff/internal/entities"
)

// ProjectView is the transport representation of one gated project.
type ProjectView struct {
	Owner                string            `json:"owner"`
	Repository           string            `json:"repository"`
	Branch               string            `json:"branch"`
	QueueLength          int               `json:"queueLength"`
	PullRequests         []PullRequestView `json:"pullRequests"`
	IntegrationCandidate *int              `json:"integrationCandidate,omitempty"`
}

// PullRequestView is the transport representation of one tracked pull request.
type PullRequestView struct {
	ID               int    `json:"id"`
	Branch           string `json:"branch"`
	Sha              string `json:"sha"`
	Title            string `json:"title"`
	Author           string `json:"author"`
	ApprovedBy       string `json:"approvedBy,omitempty"`
	IntegrationState string `json:"integrationState"`
	IntegrationSha   string `json:"integrationSha,omitempty"`
	BuildStatus      string `json:"buildStatus"`
}

// ToProjectView maps a state snapshot to its transport model.
func ToProjectView(owner, repository string, branch entities.Branch, state entities.ProjectState) ProjectView {
	prs := make([]PullRequestView, 0, len(state.PullRequests))
	for _, entry := range state.PullRequests {
		prs = append(prs, ToPullRequestView(entry))
	}

	view := ProjectView{
		Owner:        owner,
		Repository:   repository,
		Branch:       string(branch),
		PullRequests: prs,
	}
	if state.Candidate != entities.NoCandidate {
		id := int(state.Candidate)
		view.IntegrationCandidate = &id
	}

	return view
}

// ToPullRequestView maps a tracked pull request to its transport model.
func ToPullRequestView(entry entities.PullRequestEntry) PullRequestView {
	return PullRequestView{
		ID:               int(entry.ID),
		Branch:           string(entry.Branch),
		Sha:              string(entry.Sha),
		Title:            entry.Title,
		Author:           entry.Author,
		ApprovedBy:       entry.ApprovedBy,
		IntegrationState: string(entry.Integration.State),
		IntegrationSha:   string(entry.Integration.Sha),
		BuildStatus:      string(entry.Build),
	}
}
