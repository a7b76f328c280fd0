// Package worker drains the action queue and applies each action to the
// session store and the event log. The store serializes counter writes, so
// any number of workers can run without racing each other.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/coldcall/arena/internal/adapters/repository"
	"github.com/coldcall/arena/internal/domain/model"
	"github.com/coldcall/arena/pkg/logger"
	"github.com/coldcall/arena/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
)

// Action is what workers read off the queue.
type Action = model.Action

// Applier commits an action's counter delta to the live board.
type Applier interface {
	ApplyAction(ctx context.Context, a model.Action) (repository.Snapshot, error)
}

// Recorder appends an applied action to the historical event log.
type Recorder interface {
	Append(ctx context.Context, a model.Action, value float64) error
}

// Queue defines how workers receive actions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Action
}

// Worker applies actions until its context or queue is closed.
type Worker struct {
	queue    Queue
	applier  Applier
	recorder Recorder
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewWorker creates a worker with the given options.
func NewWorker(queue Queue, applier Applier, recorder Recorder, opts ...Option) *Worker {
	w := &Worker{
		queue:    queue,
		applier:  applier,
		recorder: recorder,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the worker loop.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	actions := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case a, ok := <-actions:
			if !ok {
				return
			}
			if err := w.process(ctx, a); err != nil {
				w.logger.Error(ctx, "failed to process action",
					logger.String("actionID", a.ActionID),
					logger.Error(err),
				)
			}
		}
	}
}

// process applies one action and records it in the event log.
func (w *Worker) process(ctx context.Context, a Action) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	snap, err := w.applier.ApplyAction(ctx, a)
	if err != nil {
		if errors.Is(err, repository.ErrFloor) {
			// Undo on an empty counter. Defined as a no-op: drop the action
			// without failing the worker.
			w.logger.Warn(ctx, "action rejected at counter floor",
				logger.String("actionID", a.ActionID),
				logger.String("kind", string(a.Kind)),
			)
			return nil
		}
		metrics.RecordWorkerError()
		return fmt.Errorf("apply action %s: %w", a.ActionID, err)
	}

	// Meetings carry the participant's unit value into the revenue history.
	var value float64
	if a.Kind == model.ActionMeeting {
		if p := participantIn(snap, a.ParticipantID); p != nil {
			value = p.UnitValue
		}
	}
	if err := w.recorder.Append(ctx, a, value); err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("record action %s: %w", a.ActionID, err)
	}

	metrics.RecordActionProcessed()
	return nil
}

func participantIn(snap repository.Snapshot, id int) *model.Participant {
	for i := range snap.Session.Roster {
		if snap.Session.Roster[i].ID == id {
			return &snap.Session.Roster[i]
		}
	}
	return nil
}

// Shutdown gracefully stops the worker.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker shutdown timed out: %w", ctx.Err())
	}
}

// Pool manages a set of workers over one queue.
type Pool struct {
	workers []*Worker

	logger logger.Logger
}

// NewPool creates and sizes a worker pool. A non-positive count defaults to
// twice the CPU count.
func NewPool(workerCount int, queue Queue, applier Applier, recorder Recorder) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}
	p := &Pool{
		workers: make([]*Worker, workerCount),
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		p.workers[i] = NewWorker(queue, applier, recorder,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop waits for all workers to drain, bounded per worker.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(context.Background(), "worker stop timed out", logger.String("worker", w.name))
		}
		cancel()
	}
}
