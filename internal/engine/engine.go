package engine

import (
	"context"
	"errors"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/yahgos/payment-engine/internal/domain"
	"github.com/yahgos/payment-engine/internal/infrastructure/metrics"
)

// Source yields transactions one at a time. Next returns io.EOF when
// the stream is exhausted; any other error aborts the run.
type Source interface {
	Next() (domain.Transaction, error)
}

// Config sizes the engine.
type Config struct {
	// Workers is the number of processing goroutines. Zero or
	// negative means one per available CPU.
	Workers int
	// QueueSize is each worker's input buffer in transactions.
	QueueSize int
}

const defaultQueueSize = 1024

// Engine wires router, workers and aggregator into a run-to-completion
// pipeline. The final report is identical for any worker count:
// routing keys on client id and each worker preserves arrival order
// for the clients it owns.
type Engine struct {
	workers []*Worker
	router  *Router
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// New builds an engine from cfg.
func New(cfg Config, log zerolog.Logger, m *metrics.Metrics) *Engine {
	n := cfg.Workers
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	queue := cfg.QueueSize
	if queue <= 0 {
		queue = defaultQueueSize
	}

	workers := make([]*Worker, n)
	for i := range workers {
		workers[i] = NewWorker(i, queue, log, m)
	}

	return &Engine{
		workers: workers,
		router:  NewRouter(workers),
		log:     log,
		metrics: m,
	}
}

// Workers returns the number of processing goroutines the engine will
// start.
func (e *Engine) Workers() int {
	return len(e.workers)
}

// Run streams src to completion and returns the final account
// snapshots sorted by client id. On a source error or cancelled
// context the workers are drained and the error is returned with no
// report.
func (e *Engine) Run(ctx context.Context, src Source) ([]domain.Snapshot, error) {
	start := time.Now()

	var wg sync.WaitGroup
	for _, w := range e.workers {
		wg.Add(1)
		go func(w *Worker) {
			defer wg.Done()
			w.Run()
		}(w)
	}

	var routed int64
	var runErr error
	for {
		tx, err := src.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				runErr = err
			}
			break
		}
		if err := e.router.Route(ctx, tx); err != nil {
			runErr = err
			break
		}
		routed++
	}

	// Closing the queues is the only end-of-stream signal workers
	// get; the Wait doubles as the happens-before edge that makes
	// their state safe to read here.
	e.router.Close()
	wg.Wait()

	if runErr != nil {
		return nil, runErr
	}

	snapshots := Aggregate(e.workers)

	var applied, rejected int64
	for _, w := range e.workers {
		a, r := w.Stats()
		applied += a
		rejected += r
	}

	elapsed := time.Since(start)
	e.metrics.RunDuration.Observe(elapsed.Seconds())

	e.log.Info().
		Int("workers", len(e.workers)).
		Int64("routed", routed).
		Int64("applied", applied).
		Int64("rejected", rejected).
		Int("clients", len(snapshots)).
		Dur("elapsed", elapsed).
		Msg("run complete")

	return snapshots, nil
}
