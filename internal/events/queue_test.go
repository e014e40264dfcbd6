package events

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueuePreservesOrder(t *testing.T) {
	q := NewQueue()
	for i := 0; i < 10; i++ {
		require.NoError(t, q.Push(Event{Kind: Text, Content: fmt.Sprintf("m%d", i)}))
	}

	drained := q.Drain()
	require.Len(t, drained, 10)
	for i, ev := range drained {
		assert.Equal(t, fmt.Sprintf("m%d", i), ev.Content)
	}
}

func TestQueueDrainEmpty(t *testing.T) {
	q := NewQueue()
	assert.Empty(t, q.Drain())
	assert.Equal(t, 0, q.Len())
}

func TestQueueDrainRemovesEvents(t *testing.T) {
	q := NewQueue()
	require.NoError(t, q.Push(Event{Kind: Status, Content: "one"}))
	require.Len(t, q.Drain(), 1)
	assert.Empty(t, q.Drain())
}

func TestQueueFullReportsError(t *testing.T) {
	q := NewQueue()
	var reported []QueueError
	q.SetErrorCallback(func(e QueueError) {
		reported = append(reported, e)
	})

	for i := 0; i < defaultCapacity; i++ {
		require.NoError(t, q.Push(Event{Kind: Text}))
	}

	err := q.Push(Event{Kind: Text})
	require.Error(t, err)
	require.Len(t, reported, 1)
	assert.Equal(t, "Push", reported[0].Operation)
	assert.False(t, reported[0].Timestamp.IsZero())

	// The queued events survive the overflow untouched.
	assert.Equal(t, defaultCapacity, q.Len())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "text", Text.String())
	assert.Equal(t, "approval", ApprovalRequest.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
