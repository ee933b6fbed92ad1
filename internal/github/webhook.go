package github

import (
	"encoding/json"
	"fmt"

	gh "github.com/google/go-github/v61/github"

	"github.com/pbrinkmeier/hoff/internal/entities"
)

// Envelope is one webhook delivery as received on the wire. The transport
// stores deliveries raw; parsing happens in the per-project adapter.
type Envelope struct {
	DeliveryID string
	Name       string
	Payload    []byte
}

// RepositoryFullName peeks at the repository a delivery belongs to, without
// decoding the rest of the payload.
func RepositoryFullName(payload []byte) (string, error) {
	var peek struct {
		Repository struct {
			FullName string `json:"full_name"`
		} `json:"repository"`
	}
	if err := json.Unmarshal(payload, &peek); err != nil {
		return "", fmt.Errorf("decode webhook payload: %w", err)
	}
	return peek.Repository.FullName, nil
}

// ValidateSignature verifies a delivery's X-Hub-Signature-256 header.
func ValidateSignature(signature string, payload, secret []byte) error {
	return gh.ValidateSignature(signature, payload, secret)
}

// Translate turns a delivery into a domain event. Deliveries that cannot
// affect the merge queue translate to nil.
func Translate(envelope Envelope) (entities.Event, error) {
	payload, err := gh.ParseWebHook(envelope.Name, envelope.Payload)
	if err != nil {
		return nil, fmt.Errorf("parse %s payload: %w", envelope.Name, err)
	}
	switch event := payload.(type) {
	case *gh.PullRequestEvent:
		return translatePullRequest(event), nil
	case *gh.IssueCommentEvent:
		return translateIssueComment(event), nil
	case *gh.StatusEvent:
		return translateStatus(event), nil
	}
	return nil, nil
}

func translatePullRequest(event *gh.PullRequestEvent) entities.Event {
	pr := event.GetPullRequest()
	id := entities.PullRequestID(event.GetNumber())
	switch event.GetAction() {
	case "opened", "reopened":
		return entities.PullRequestOpened{
			ID:     id,
			Branch: entities.Branch(pr.GetHead().GetRef()),
			Sha:    entities.Sha(pr.GetHead().GetSHA()),
			Title:  pr.GetTitle(),
			Author: pr.GetUser().GetLogin(),
		}
	case "synchronize":
		return entities.PullRequestCommitChanged{
			ID:  id,
			Sha: entities.Sha(pr.GetHead().GetSHA()),
		}
	case "closed":
		return entities.PullRequestClosed{ID: id}
	}
	return nil
}

func translateIssueComment(event *gh.IssueCommentEvent) entities.Event {
	if event.GetAction() != "created" {
		return nil
	}
	issue := event.GetIssue()
	if !issue.IsPullRequest() {
		return nil
	}
	return entities.CommentAdded{
		ID:     entities.PullRequestID(issue.GetNumber()),
		Author: event.GetComment().GetUser().GetLogin(),
		Body:   event.GetComment().GetBody(),
	}
}

func translateStatus(event *gh.StatusEvent) entities.Event {
	var status entities.BuildStatus
	switch event.GetState() {
	case "pending":
		status = entities.BuildPending
	case "success":
		status = entities.BuildSucceeded
	case "error", "failure":
		status = entities.BuildFailed
	default:
		return nil
	}
	return entities.BuildStatusChanged{
		Sha:    entities.Sha(event.GetSHA()),
		Status: status,
	}
}
