package fanout

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGather_PreservesTaskOrder(t *testing.T) {
	// Later tasks finish first; output must still follow input order.
	tasks := make([]Task[int], 5)
	for i := range tasks {
		i := i
		tasks[i] = func(ctx context.Context) (int, error) {
			time.Sleep(time.Duration(5-i) * 10 * time.Millisecond)
			return i, nil
		}
	}

	got := Gather(context.Background(), tasks)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestGather_DropsFailedTasks(t *testing.T) {
	tasks := []Task[string]{
		func(ctx context.Context) (string, error) { return "a", nil },
		func(ctx context.Context) (string, error) { return "", errors.New("boom") },
		func(ctx context.Context) (string, error) { return "c", nil },
		func(ctx context.Context) (string, error) { return "", errors.New("boom") },
		func(ctx context.Context) (string, error) { return "e", nil },
	}

	got := Gather(context.Background(), tasks)

	// k tasks with m failures yield exactly k-m results, input order kept.
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "c", "e"}, got)
}

func TestGather_WaitsForEveryTask(t *testing.T) {
	var finished atomic.Int32

	tasks := []Task[int]{
		func(ctx context.Context) (int, error) {
			finished.Add(1)
			return 0, errors.New("fast failure")
		},
		func(ctx context.Context) (int, error) {
			time.Sleep(50 * time.Millisecond)
			finished.Add(1)
			return 1, nil
		},
	}

	got := Gather(context.Background(), tasks)

	// A sibling failure must not cancel the slow task.
	assert.Equal(t, int32(2), finished.Load())
	assert.Equal(t, []int{1}, got)
}

func TestGather_EmptyBatch(t *testing.T) {
	got := Gather[int](context.Background(), nil)
	assert.Empty(t, got)
}

func TestGatherFlat(t *testing.T) {
	tasks := []Task[[]int]{
		func(ctx context.Context) ([]int, error) { return []int{1, 2}, nil },
		func(ctx context.Context) ([]int, error) { return nil, fmt.Errorf("dropped") },
		func(ctx context.Context) ([]int, error) { return []int{3}, nil },
	}

	got := GatherFlat(context.Background(), tasks)
	assert.Equal(t, []int{1, 2, 3}, got)
}
