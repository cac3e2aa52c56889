package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type op struct {
	Seq  int
	Name string
}

func TestQueue_New(t *testing.T) {
	q := New[op]()
	require.NotNil(t, q)
	assert.True(t, q.Empty())
	assert.Zero(t, q.Len())
}

func TestQueue_PushPop(t *testing.T) {
	q := New[op]()

	_, ok := q.Pop()
	assert.False(t, ok)

	q.Push(op{Seq: 1, Name: "first"}, op{Seq: 2, Name: "second"})
	assert.Equal(t, 2, q.Len())

	first, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, op{Seq: 1, Name: "first"}, first)
	assert.Equal(t, 1, q.Len())
	assert.False(t, q.Empty())
}

func TestQueue_GetAndEmpty(t *testing.T) {
	q := New[op]()
	q.Push(op{Seq: 1}, op{Seq: 2})
	q.Push(op{Seq: 3})

	items := q.GetAndEmpty()
	assert.Equal(t, []op{{Seq: 1}, {Seq: 2}, {Seq: 3}}, items)
	assert.True(t, q.Empty())
	assert.Empty(t, q.GetAndEmpty())
}

func TestQueue_ReadySignal(t *testing.T) {
	q := New[op]()

	select {
	case <-q.Ready():
		t.Fatal("signal before push")
	default:
	}

	q.Push()
	select {
	case <-q.Ready():
		t.Fatal("empty push must not signal")
	default:
	}

	q.Push(op{Seq: 1})
	q.Push(op{Seq: 2})
	select {
	case <-q.Ready():
	case <-time.After(time.Second):
		t.Fatal("expected ready signal")
	}
	assert.Len(t, q.GetAndEmpty(), 2, "one signal covers both pushes")
}

func TestQueue_ConcurrentProducersKeepPerProducerOrder(t *testing.T) {
	q := New[op]()
	const producers, perProducer = 8, 200

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(op{Seq: p*perProducer + i})
			}
		}(p)
	}
	wg.Wait()

	items := q.GetAndEmpty()
	require.Len(t, items, producers*perProducer)

	last := make(map[int]int)
	for _, it := range items {
		p := it.Seq / perProducer
		if prev, ok := last[p]; ok {
			assert.Greater(t, it.Seq, prev)
		}
		last[p] = it.Seq
	}
}
