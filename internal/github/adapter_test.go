package github

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pbrinkmeier/hoff/internal/entities"
	"github.com/pbrinkmeier/hoff/internal/queue"
)

func TestAdapterTranslatesAndForwards(t *testing.T) {
	intake := queue.New[Envelope](8)
	events := queue.New[entities.Event](8)
	adapter := NewAdapter("acme/widgets", intake, events, zaptest.NewLogger(t).Sugar())

	done := make(chan struct{})
	go func() {
		defer close(done)
		adapter.Run(context.Background())
	}()

	require.True(t, intake.TryEnqueue(Envelope{
		DeliveryID: "d1",
		Name:       "pull_request",
		Payload:    []byte(`{"action": "closed", "number": 7, "pull_request": {}}`),
	}))
	require.True(t, intake.TryEnqueue(Envelope{
		DeliveryID: "d2",
		Name:       "pull_request",
		Payload:    []byte(`not json`),
	}))
	require.True(t, intake.TryEnqueue(Envelope{
		DeliveryID: "d3",
		Name:       "pull_request",
		Payload:    []byte(`{"action": "labeled", "number": 7, "pull_request": {}}`),
	}))
	require.True(t, intake.TryEnqueue(Envelope{
		DeliveryID: "d4",
		Name:       "status",
		Payload:    []byte(`{"state": "success", "sha": "abc123"}`),
	}))
	intake.Close()

	event, ok := events.Dequeue(context.Background())
	require.True(t, ok)
	require.Equal(t, entities.PullRequestClosed{ID: 7}, event)

	event, ok = events.Dequeue(context.Background())
	require.True(t, ok)
	require.Equal(t, entities.BuildStatusChanged{Sha: "abc123", Status: entities.BuildSucceeded}, event)

	<-done

	_, ok = events.Dequeue(context.Background())
	require.False(t, ok, "event queue closes once the intake drains")
}
