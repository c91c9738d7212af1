package tx

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubid/pkg/testutil"
)

func TestMemory_NestedCallsJoinOuterUnit(t *testing.T) {
	runner := NewMemory()
	ctx := WithLockKey(context.Background(), "person-1")

	done := make(chan error, 1)
	go func() {
		done <- runner.RunInTx(ctx, func(ctx context.Context) error {
			return runner.RunInTx(ctx, func(context.Context) error { return nil })
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("nested RunInTx deadlocked")
	}
}

func TestMemory_SerializesSameKey(t *testing.T) {
	runner := NewMemory()
	ctx := WithLockKey(context.Background(), "person-1")
	var inside, maxInside atomic.Int32

	result := testutil.RunConcurrent(20, func(int) error {
		return runner.RunInTx(ctx, func(context.Context) error {
			n := inside.Add(1)
			if n > maxInside.Load() {
				maxInside.Store(n)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			return nil
		})
	})

	assert.Equal(t, int32(20), result.Successes)
	assert.Equal(t, int32(1), maxInside.Load())
}

func TestAfterCommit(t *testing.T) {
	runner := NewMemory()

	t.Run("runs once after the outermost unit commits", func(t *testing.T) {
		var order []string
		err := runner.RunInTx(context.Background(), func(ctx context.Context) error {
			AfterCommit(ctx, func(context.Context) { order = append(order, "outer") })
			return runner.RunInTx(ctx, func(ctx context.Context) error {
				AfterCommit(ctx, func(context.Context) { order = append(order, "inner") })
				order = append(order, "body")
				return nil
			})
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"body", "outer", "inner"}, order)
	})

	t.Run("dropped when the unit fails", func(t *testing.T) {
		ran := false
		err := runner.RunInTx(context.Background(), func(ctx context.Context) error {
			AfterCommit(ctx, func(context.Context) { ran = true })
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)
		assert.False(t, ran)
	})

	t.Run("runs immediately outside a unit", func(t *testing.T) {
		ran := false
		AfterCommit(context.Background(), func(context.Context) { ran = true })
		assert.True(t, ran)
	})
}
