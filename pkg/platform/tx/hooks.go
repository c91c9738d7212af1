package tx

import (
	"context"
	"sync"
)

type hooksKey struct{}

type hooks struct {
	mu  sync.Mutex
	fns []func(context.Context)
}

// AfterCommit defers fn until the outermost unit of work in ctx commits. It is
// dropped on rollback. Outside a unit of work fn runs immediately.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	h, ok := ctx.Value(hooksKey{}).(*hooks)
	if !ok {
		fn(ctx)
		return
	}
	h.mu.Lock()
	h.fns = append(h.fns, fn)
	h.mu.Unlock()
}

func withHooks(ctx context.Context) (context.Context, *hooks) {
	h := &hooks{}
	return context.WithValue(ctx, hooksKey{}, h), h
}

// run executes the hooks with a context detached from the unit of work's
// deadline, in registration order.
func (h *hooks) run(ctx context.Context) {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	for _, fn := range fns {
		fn(detached)
	}
}
