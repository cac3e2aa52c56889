package eventloop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger implements Logger for testing
type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) Debug(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("DEBUG: %s %v", msg, keysAndValues))
}

func (l *testLogger) Info(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("INFO: %s %v", msg, keysAndValues))
}

func (l *testLogger) Error(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("ERROR: %s %v", msg, keysAndValues))
}

func (l *testLogger) contains(s string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.messages {
		if strings.Contains(m, s) {
			return true
		}
	}
	return false
}

func startLoop(t *testing.T, size int, opts ...Option) (*Loop, *testLogger) {
	t.Helper()
	logger := &testLogger{}
	l, err := New(size, logger, opts...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = l.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})
	return l, logger
}

func TestLoop_RunsInSendOrder(t *testing.T) {
	l, _ := startLoop(t, 4)

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		require.NoError(t, l.Send(context.Background(), "append", func() { got = append(got, i) }))
	}

	var snapshot []int
	require.NoError(t, l.Invoke(context.Background(), "read", func() { snapshot = append([]int(nil), got...) }))

	require.Len(t, snapshot, 100)
	for i, v := range snapshot {
		assert.Equal(t, i, v)
	}
}

func TestLoop_InvokeWaits(t *testing.T) {
	l, _ := startLoop(t, 1)

	ran := false
	require.NoError(t, l.Invoke(context.Background(), "set", func() {
		time.Sleep(20 * time.Millisecond)
		ran = true
	}))
	assert.True(t, ran)
}

func TestLoop_PostDropsWhenFull(t *testing.T) {
	logger := &testLogger{}
	l, err := New(1, logger)
	require.NoError(t, err)

	// not running, so the single slot fills up
	require.NoError(t, l.Post("first", func() {}))
	err = l.Post("second", func() {})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFull))
	assert.Contains(t, err.Error(), "second")
}

func TestLoop_StoppedRejects(t *testing.T) {
	logger := &testLogger{}
	l, err := New(2, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = l.Run(ctx) }()
	cancel()
	<-l.Done()

	assert.ErrorIs(t, l.Post("x", func() {}), ErrStopped)
	assert.ErrorIs(t, l.Send(context.Background(), "x", func() {}), ErrStopped)
	assert.ErrorIs(t, l.Invoke(context.Background(), "x", func() {}), ErrStopped)
}

func TestLoop_SendHonorsContext(t *testing.T) {
	logger := &testLogger{}
	l, err := New(1, logger)
	require.NoError(t, err)
	require.NoError(t, l.Post("fill", func() {}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Send(ctx, "blocked", func() {}), context.DeadlineExceeded)
}

func TestLoop_Every(t *testing.T) {
	logger := &testLogger{}
	l, err := New(4, logger)
	require.NoError(t, err)

	var ticks atomic.Int32
	l.Every("tick", 5*time.Millisecond, func() { ticks.Add(1) })
	l.Every("ignored", 0, func() { t.Error("zero interval must not run") })

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = l.Run(ctx) }()
	defer func() {
		cancel()
		<-l.Done()
	}()

	assert.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestLoop_PanicIsContained(t *testing.T) {
	l, logger := startLoop(t, 2)

	require.NoError(t, l.Invoke(context.Background(), "boom", func() { panic("kaboom") }))

	ran := false
	require.NoError(t, l.Invoke(context.Background(), "after", func() { ran = true }))
	assert.True(t, ran)
	assert.True(t, logger.contains("task panicked"))
}

func TestLoop_Logged(t *testing.T) {
	l, logger := startLoop(t, 2, Logged())

	require.NoError(t, l.Invoke(context.Background(), "noted", func() {}))

	assert.True(t, logger.contains("running task"))
	assert.Eventually(t, func() bool { return logger.contains("task complete") }, time.Second, time.Millisecond)
}

func TestLoop_ConcurrentSendersKeepOwnOrder(t *testing.T) {
	l, _ := startLoop(t, 8)

	seen := make(map[int][]int)
	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				i := i
				_ = l.Send(context.Background(), "append", func() { seen[p] = append(seen[p], i) })
			}
		}(p)
	}
	wg.Wait()

	var snapshot map[int][]int
	require.NoError(t, l.Invoke(context.Background(), "read", func() {
		snapshot = make(map[int][]int, len(seen))
		for k, v := range seen {
			snapshot[k] = append([]int(nil), v...)
		}
	}))
	for p := 0; p < 4; p++ {
		require.Len(t, snapshot[p], 50)
		for i, v := range snapshot[p] {
			assert.Equal(t, i, v)
		}
	}
}
