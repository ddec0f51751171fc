package signaling

import (
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardPayloadsStopsWhenReaderIsGone(t *testing.T) {
	in := make(chan *redis.Message, 4)
	out := make(chan []byte, 1)
	done := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		forwardPayloads(in, out, done)
	}()

	// nobody reads out: the first payload fills it and the second blocks
	in <- &redis.Message{Payload: "offer"}
	in <- &redis.Message{Payload: "answer"}
	require.Eventually(t, func() bool { return len(out) == 1 && len(in) == 0 }, time.Second, 5*time.Millisecond)

	close(done)
	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("forwarder still blocked after close")
	}
	assert.Equal(t, "offer", string(<-out))
}

func TestForwardPayloadsPreservesOrderUntilInputCloses(t *testing.T) {
	in := make(chan *redis.Message, 3)
	out := make(chan []byte, 3)
	for _, p := range []string{"a", "b", "c"} {
		in <- &redis.Message{Payload: p}
	}
	close(in)

	forwardPayloads(in, out, make(chan struct{}))

	require.Len(t, out, 3)
	assert.Equal(t, "a", string(<-out))
	assert.Equal(t, "b", string(<-out))
	assert.Equal(t, "c", string(<-out))
}

func TestCoalesceSignals(t *testing.T) {
	in := make(chan *redis.Message, 3)
	out := make(chan struct{}, 1)
	done := make(chan struct{})
	exited := make(chan struct{})
	for i := 0; i < 3; i++ {
		in <- &redis.Message{Payload: "sync"}
	}

	go func() {
		defer close(exited)
		coalesceSignals(in, out, done)
	}()

	require.Eventually(t, func() bool { return len(in) == 0 && len(out) == 1 }, time.Second, 5*time.Millisecond)

	close(done)
	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("watcher still running after cancel")
	}
}
