package eventloop_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/topomap/internal/adapters/eventloop"
)

func TestQueue_TickRunsOneGeneration(t *testing.T) {
	q := eventloop.NewQueue()
	var order []string

	q.Defer(func() {
		order = append(order, "a")
		q.Defer(func() { order = append(order, "c") })
	})
	q.Defer(func() { order = append(order, "b") })

	assert.Equal(t, 2, q.Tick())
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, 1, q.Pending())

	assert.True(t, q.Flush(0))
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Zero(t, q.Tick())
}

func TestQueue_FlushGivesUp(t *testing.T) {
	q := eventloop.NewQueue()
	var again func()
	again = func() { q.Defer(again) }
	q.Defer(again)

	assert.False(t, q.Flush(10))
	assert.Equal(t, 1, q.Pending())
}

func TestLoop_DoRunsInOrder(t *testing.T) {
	l := eventloop.New()
	defer l.Close()

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		l.Defer(func() { order = append(order, i) })
	}
	require.NoError(t, l.Do(func() { order = append(order, 99) }))

	assert.Equal(t, []int{0, 1, 2, 3, 4, 99}, order)
}

func TestLoop_SettleWaitsForDeferredWork(t *testing.T) {
	l := eventloop.New()
	defer l.Close()

	count := 0
	require.NoError(t, l.Do(func() {
		var step func()
		step = func() {
			count++
			if count < 10 {
				l.Defer(step)
			}
		}
		l.Defer(step)
	}))

	assert.True(t, l.Settle(0))
	var got int
	require.NoError(t, l.Do(func() { got = count }))
	assert.Equal(t, 10, got)
	assert.Zero(t, l.Pending())
}

func TestLoop_SettleGivesUpOnEndlessWork(t *testing.T) {
	l := eventloop.New()
	defer l.Close()

	var again func()
	again = func() { l.Defer(again) }
	require.NoError(t, l.Do(func() { l.Defer(again) }))

	assert.False(t, l.Settle(5))
}

func TestLoop_Serializes(t *testing.T) {
	l := eventloop.New()
	defer l.Close()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Do(func() { counter++ })
		}()
	}
	wg.Wait()

	var got int
	require.NoError(t, l.Do(func() { got = counter }))
	assert.Equal(t, 50, got)
}

func TestLoop_Close(t *testing.T) {
	l := eventloop.New()
	l.Close()
	l.Close()

	err := l.Do(func() { t.Error("task ran after close") })
	assert.True(t, errors.Is(err, eventloop.ErrClosed))
	assert.False(t, l.Settle(3))

	l.Defer(func() { t.Error("deferred task ran after close") })
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, l.Pending())
}
