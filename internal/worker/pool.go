package worker

import (
	"context"
	"log/slog"
	"sync"
)

// Pool runs a fixed number of workers, each pulling tasks off the queue and
// handing them to the orchestrator. Records are independent, so workers never
// coordinate beyond the queue's claim semantics.
type Pool struct {
	queue Queue
	orch  *Orchestrator
	count int
	wg    sync.WaitGroup
}

// NewPool creates a Pool with count workers.
func NewPool(queue Queue, orch *Orchestrator, count int) *Pool {
	if count < 1 {
		count = 1
	}
	return &Pool{queue: queue, orch: orch, count: count}
}

// Start launches the workers. They stop when ctx is canceled; call Wait to
// block until in-flight tasks finish.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
	slog.Info("worker pool started", "workers", p.count)
}

// Wait blocks until all workers have exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		task, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				slog.Debug("worker stopping", "worker", id)
				return
			}
			slog.Error("dequeue failed", "worker", id, "error", err)
			continue
		}

		if err := p.orch.ProcessTask(ctx, *task); err != nil {
			slog.Error("task processing failed",
				"worker", id, "kind", task.Kind,
				"record_id", task.RecordID, "attempt", task.Attempt, "error", err)
		}
	}
}
