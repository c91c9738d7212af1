package tx

import (
	"context"

	platformsync "clubid/pkg/platform/sync"
)

// Memory serializes units of work per lock key. It offers no rollback, so
// services validate before they mutate.
type Memory struct {
	mu *platformsync.ShardedMutex
}

func NewMemory() *Memory {
	return &Memory{mu: platformsync.NewShardedMutex(0)}
}

func (m *Memory) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memoryTxCtx{}) != nil {
		return fn(ctx)
	}
	key := lockKey(ctx)
	hookCtx, h := withHooks(ctx)
	if err := m.mu.Do(key, func() error {
		return fn(context.WithValue(hookCtx, memoryTxCtx{}, key))
	}); err != nil {
		return err
	}
	h.run(ctx)
	return nil
}
