package entities

import "slices"

// NoCandidate is the PullRequestID value meaning no integration candidate is
// set. Host pull request numbers start at 1, so 0 is free to use as the
// sentinel.
const NoCandidate PullRequestID = 0

// PullRequestEntry pairs a pull request with its id. ProjectState keeps
// entries in insertion order; queue position derives from it.
type PullRequestEntry struct {
	ID PullRequestID `json:"id"`
	PullRequest
}

// ProjectState is the per-project view of the merge queue. It is the value
// persisted after every handled event and restored verbatim on startup.
//
// Invariants: Candidate, when set, names an entry in PullRequests whose
// integration state is Integrated; deleting the candidate clears Candidate.
type ProjectState struct {
	PullRequests []PullRequestEntry `json:"pullRequests"`
	Candidate    PullRequestID      `json:"integrationCandidate,omitempty"`
}

// Get returns the pull request stored under id.
func (s *ProjectState) Get(id PullRequestID) (PullRequest, bool) {
	for i := range s.PullRequests {
		if s.PullRequests[i].ID == id {
			return s.PullRequests[i].PullRequest, true
		}
	}
	return PullRequest{}, false
}

// Has reports whether a pull request with id is tracked.
func (s *ProjectState) Has(id PullRequestID) bool {
	_, ok := s.Get(id)
	return ok
}

// Insert appends the pull request at the back of the insertion order. When an
// entry with the same id exists it is deleted first, so a re-opened pull
// request starts a fresh lifecycle at the back of the queue.
func (s *ProjectState) Insert(id PullRequestID, pr PullRequest) {
	s.Delete(id)
	s.PullRequests = append(s.PullRequests, PullRequestEntry{ID: id, PullRequest: pr})
}

// Delete removes the pull request and clears the candidate when it pointed at
// id. It reports whether an entry was removed.
func (s *ProjectState) Delete(id PullRequestID) bool {
	for i := range s.PullRequests {
		if s.PullRequests[i].ID == id {
			s.PullRequests = slices.Delete(s.PullRequests, i, i+1)
			if s.Candidate == id {
				s.Candidate = NoCandidate
			}
			return true
		}
	}
	return false
}

// Update applies fn to the stored pull request in place and reports whether
// the entry exists.
func (s *ProjectState) Update(id PullRequestID, fn func(*PullRequest)) bool {
	for i := range s.PullRequests {
		if s.PullRequests[i].ID == id {
			fn(&s.PullRequests[i].PullRequest)
			return true
		}
	}
	return false
}

// FirstEligible returns the first pull request in insertion order that is
// approved and still waiting for integration.
func (s *ProjectState) FirstEligible() (PullRequestID, bool) {
	for i := range s.PullRequests {
		if s.PullRequests[i].Eligible() {
			return s.PullRequests[i].ID, true
		}
	}
	return NoCandidate, false
}

// QueuePosition counts the approved pull requests other than id that are
// still heading to integration: the current candidate plus eligible waiters.
// Position 0 means integration starts right away.
func (s *ProjectState) QueuePosition(id PullRequestID) int {
	n := 0
	for i := range s.PullRequests {
		e := &s.PullRequests[i]
		if e.ID == id {
			continue
		}
		if e.ID == s.Candidate || e.Eligible() {
			n++
		}
	}
	return n
}

// Clone returns an independent copy of the state.
func (s ProjectState) Clone() ProjectState {
	return ProjectState{
		PullRequests: slices.Clone(s.PullRequests),
		Candidate:    s.Candidate,
	}
}

// Equal reports structural equality; the proceed loop uses it to detect the
// fixed point.
func (s ProjectState) Equal(o ProjectState) bool {
	return s.Candidate == o.Candidate && slices.Equal(s.PullRequests, o.PullRequests)
}
