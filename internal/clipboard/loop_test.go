package clipboard

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopRunsTasksInOrder(t *testing.T) {
	l := NewLoop()

	var mtx sync.Mutex
	var got []int
	for i := 0; i < 100; i++ {
		i := i
		require.NoError(t, l.Post(func() {
			mtx.Lock()
			got = append(got, i)
			mtx.Unlock()
		}))
	}

	l.Close()

	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestLoopPostedTaskRunsAfterCurrentTurn(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	events := make(chan string, 3)
	require.NoError(t, l.Post(func() {
		events <- "outer start"
		assert.NoError(t, l.Post(func() {
			events <- "inner"
		}))
		events <- "outer end"
	}))

	assert.Equal(t, "outer start", recv(t, events))
	assert.Equal(t, "outer end", recv(t, events))
	assert.Equal(t, "inner", recv(t, events))
}

func TestLoopPostNeverRunsInline(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	block := make(chan struct{})
	require.NoError(t, l.Post(func() { <-block }))

	ran := make(chan struct{})
	require.NoError(t, l.Post(func() { close(ran) }))

	select {
	case <-ran:
		t.Fatal("task ran before the loop got to it")
	default:
	}

	close(block)
	<-ran
}

func TestLoopSurvivesPanickingTask(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	require.NoError(t, l.Post(func() { panic("boom") }))

	ran := make(chan struct{})
	require.NoError(t, l.Post(func() { close(ran) }))

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("loop stopped after a panicking task")
	}
}

func TestLoopClose(t *testing.T) {
	l := NewLoop()

	ran := false
	require.NoError(t, l.Post(func() {
		time.Sleep(10 * time.Millisecond)
		ran = true
	}))

	l.Close()
	assert.True(t, ran, "Close must drain queued tasks")

	assert.Equal(t, ErrClosed, l.Post(func() {}))

	// Closing twice is harmless.
	l.Close()
}

func recv(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return ""
	}
}
