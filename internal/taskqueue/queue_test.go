package taskqueue

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t Task) error {
	t()
	return nil
}

func TestDrainRunsTasksInEnqueueOrder(t *testing.T) {
	q := New()
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		q.Enqueue(func() { got = append(got, i) })
	}

	require.NoError(t, q.DrainInto(run))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
	assert.Equal(t, 0, q.Len())
}

func TestTasksRunExactlyOnce(t *testing.T) {
	q := New()
	counts := make(map[int]int)

	for round := 0; round < 4; round++ {
		for i := 0; i < 3; i++ {
			id := round*10 + i
			q.Enqueue(func() { counts[id]++ })
		}
		require.NoError(t, q.DrainInto(run))
		// Everything enqueued before this drain has run by now.
		for i := 0; i < 3; i++ {
			assert.Equal(t, 1, counts[round*10+i])
		}
	}
	require.NoError(t, q.DrainInto(run))
	require.NoError(t, q.DrainInto(run))

	for id, n := range counts {
		assert.Equalf(t, 1, n, "task %d", id)
	}
}

func TestSelfRequeueDefersToNextDrain(t *testing.T) {
	q := New()
	runs := 0
	var task Task
	task = func() {
		runs++
		q.Enqueue(task)
	}
	q.Enqueue(task)

	require.NoError(t, q.DrainInto(run))
	assert.Equal(t, 1, runs)
	assert.Equal(t, 1, q.Len())

	require.NoError(t, q.DrainInto(run))
	assert.Equal(t, 2, runs)
	assert.Equal(t, 1, q.Len())
}

func TestEnqueueDuringDrainDoesNotDisturbSnapshot(t *testing.T) {
	q := New()
	var got []string
	q.Enqueue(func() {
		got = append(got, "a")
		q.Enqueue(func() { got = append(got, "late") })
	})
	q.Enqueue(func() { got = append(got, "b") })

	require.NoError(t, q.DrainInto(run))
	assert.Equal(t, []string{"a", "b"}, got)

	require.NoError(t, q.DrainInto(run))
	assert.Equal(t, []string{"a", "b", "late"}, got)
}

func TestDrainStopsAtFirstError(t *testing.T) {
	q := New()
	boom := errors.New("boom")
	var ran []int
	for i := 0; i < 3; i++ {
		i := i
		q.Enqueue(func() { ran = append(ran, i) })
	}

	err := q.DrainInto(func(task Task) error {
		task()
		if len(ran) == 2 {
			return boom
		}
		return nil
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, []int{0, 1}, ran)
	assert.Equal(t, 0, q.Len())
}

func TestNestedDrainIsNoop(t *testing.T) {
	q := New()
	inner := false
	q.Enqueue(func() {
		q.Enqueue(func() { inner = true })
		require.NoError(t, q.DrainInto(run))
	})

	require.NoError(t, q.DrainInto(run))
	assert.False(t, inner)

	require.NoError(t, q.DrainInto(run))
	assert.True(t, inner)
}

func TestNilTaskIgnored(t *testing.T) {
	q := New()
	q.Enqueue(nil)
	assert.Equal(t, 0, q.Len())
}
