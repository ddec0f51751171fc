package signaling

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryHubPreservesOrder(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()
	sub, err := hub.Subscribe(ctx, "r1")
	require.NoError(t, err)
	defer sub.Close()

	other, err := hub.Subscribe(ctx, "r2")
	require.NoError(t, err)
	defer other.Close()

	for i := 0; i < 100; i++ {
		require.NoError(t, hub.Publish(ctx, "r1", []byte(fmt.Sprint(i))))
	}
	for i := 0; i < 100; i++ {
		select {
		case msg := <-sub.Messages():
			assert.Equal(t, fmt.Sprint(i), string(msg))
		case <-time.After(time.Second):
			t.Fatalf("message %d not delivered", i)
		}
	}

	select {
	case msg := <-other.Messages():
		t.Fatalf("unexpected cross-room message %q", msg)
	default:
	}
}

func TestMemoryHubPresence(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()
	watch, cancel, err := hub.Watch(ctx, "r1")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, hub.Track(ctx, "r1", "alice"))
	require.NoError(t, hub.Track(ctx, "r1", "bob"))
	require.NoError(t, hub.Track(ctx, "r1", "alice"))

	select {
	case <-watch:
	case <-time.After(time.Second):
		t.Fatal("no presence notification")
	}

	entries, err := hub.State(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "alice", entries[0].Identity)
	assert.Equal(t, "bob", entries[1].Identity)

	require.NoError(t, hub.Untrack(ctx, "r1", "alice"))
	entries, err = hub.State(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "bob", entries[0].Identity)
}
