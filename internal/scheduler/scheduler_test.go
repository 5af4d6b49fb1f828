package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Funz/fz-sub001/internal/fzcase"
)

func TestRunCollatesByCaseIndex(t *testing.T) {
	cases := []fzcase.Case{
		{Index: 0, Name: "a"},
		{Index: 1, Name: "b"},
		{Index: 2, Name: "c"},
	}

	results := Run(context.Background(), cases, 2, func(ctx context.Context, c fzcase.Case) any {
		// Reverse-order completion to prove collation isn't dependent on
		// finish order.
		time.Sleep(time.Duration(3-c.Index) * time.Millisecond)
		return c.Name
	}, Callbacks{})

	require.Equal(t, []any{"a", "b", "c"}, results)
}

func TestRunRespectsMaxWorkers(t *testing.T) {
	cases := make([]fzcase.Case, 10)
	for i := range cases {
		cases[i] = fzcase.Case{Index: i}
	}

	var concurrent, maxSeen int64
	Run(context.Background(), cases, 3, func(ctx context.Context, c fzcase.Case) any {
		n := atomic.AddInt64(&concurrent, 1)
		for {
			cur := atomic.LoadInt64(&maxSeen)
			if n <= cur || atomic.CompareAndSwapInt64(&maxSeen, cur, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt64(&concurrent, -1)
		return nil
	}, Callbacks{})

	require.LessOrEqual(t, maxSeen, int64(3))
}

func TestWorkerCountSizing(t *testing.T) {
	require.Equal(t, 2, WorkerCount(0, 2, 5))
	require.Equal(t, 1, WorkerCount(0, 5, 1))
	require.Equal(t, 3, WorkerCount(3, 10, 10))
	require.Equal(t, 1, WorkerCount(0, 0, 0))
}

func TestOnProgressCallback(t *testing.T) {
	cases := []fzcase.Case{{Index: 0}, {Index: 1}}
	var calls int
	Run(context.Background(), cases, 2, func(ctx context.Context, c fzcase.Case) any {
		return nil
	}, Callbacks{OnProgress: func(completed, total int, eta float64) { calls++ }})
	require.Equal(t, 2, calls)
}
