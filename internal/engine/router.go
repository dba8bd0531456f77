package engine

import (
	"context"

	"github.com/yahgos/payment-engine/internal/domain"
)

// Router fans transactions out to workers by client id. Every record
// for a client lands on the same worker, so per-client order is
// preserved end to end without locks.
type Router struct {
	workers []*Worker
}

// NewRouter returns a router over workers.
func NewRouter(workers []*Worker) *Router {
	return &Router{workers: workers}
}

// Route hands tx to the worker that owns its client, blocking while
// that worker's queue is full. Cancelling ctx unblocks the send.
func (r *Router) Route(ctx context.Context, tx domain.Transaction) error {
	w := r.workers[int(tx.Client)%len(r.workers)]
	select {
	case w.in <- tx:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close signals end of stream. Workers drain what is queued and exit.
// Must be called exactly once, after the last Route.
func (r *Router) Close() {
	for _, w := range r.workers {
		close(w.in)
	}
}
