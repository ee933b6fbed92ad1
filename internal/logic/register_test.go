package logic

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pbrinkmeier/hoff/internal/entities"
)

func TestRegisterStartsEmpty(t *testing.T) {
	reg := NewRegister()
	snapshot := reg.Snapshot()
	require.Empty(t, snapshot.PullRequests)
	require.Equal(t, entities.NoCandidate, snapshot.Candidate)
}

func TestRegisterSnapshotsAreIndependent(t *testing.T) {
	reg := NewRegister()
	state := entities.ProjectState{Candidate: 7}
	state.Insert(7, candidatePR("feature/a", "aaa", "bbb", "carol", entities.BuildPending))
	reg.Publish(state)

	// Neither the publisher's state nor a reader's snapshot may alias the
	// register's copy.
	state.Update(7, func(pr *entities.PullRequest) { pr.Build = entities.BuildFailed })
	snapshot := reg.Snapshot()
	pr, _ := snapshot.Get(7)
	require.Equal(t, entities.BuildPending, pr.Build)

	snapshot.Delete(7)
	again := reg.Snapshot()
	require.True(t, again.Has(7))
}

func TestRegisterConcurrentReaders(t *testing.T) {
	reg := NewRegister()
	var wg sync.WaitGroup
	violations := make(chan string, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				snapshot := reg.Snapshot()
				if snapshot.Candidate == entities.NoCandidate {
					continue
				}
				pr, ok := snapshot.Get(snapshot.Candidate)
				if !ok || pr.Integration.State != entities.Integrated {
					select {
					case violations <- "torn snapshot: candidate without integrated entry":
					default:
					}
					return
				}
			}
		}()
	}

	state := entities.ProjectState{}
	state.Insert(7, approvedPR("feature/a", "aaa", "alice", "carol"))
	for j := 0; j < 200; j++ {
		if j%2 == 0 {
			state.Update(7, func(pr *entities.PullRequest) {
				pr.Integration = entities.IntegratedAs("bbb")
				pr.Build = entities.BuildPending
			})
			state.Candidate = 7
		} else {
			state.Candidate = entities.NoCandidate
			state.Update(7, func(pr *entities.PullRequest) {
				pr.Integration = entities.IntegrationStatus{State: entities.NotIntegrated}
				pr.Build = entities.BuildNotStarted
			})
		}
		reg.Publish(state)
	}
	wg.Wait()

	close(violations)
	for violation := range violations {
		t.Fatal(violation)
	}
}
