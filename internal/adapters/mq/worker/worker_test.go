package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/coldcall/arena/internal/adapters/mq/worker"
	"github.com/coldcall/arena/internal/adapters/repository"
	"github.com/coldcall/arena/internal/domain/model"
	logging "github.com/coldcall/arena/pkg/logger"
)

// Mock implementations for testing.
type mockQueue struct {
	actionChan chan worker.Action
}

func newMockQueue() *mockQueue {
	return &mockQueue{
		actionChan: make(chan worker.Action, 10),
	}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan worker.Action {
	return mq.actionChan
}

func (mq *mockQueue) addAction(a worker.Action) {
	mq.actionChan <- a
}

type mockApplier struct {
	mu      sync.Mutex
	applied []model.Action
	errs    map[string]error
	roster  []model.Participant
}

func newMockApplier() *mockApplier {
	return &mockApplier{
		errs: make(map[string]error),
		roster: []model.Participant{
			{ID: 1, UnitValue: 500, CallGoal: 20},
			{ID: 2, UnitValue: 750, CallGoal: 20},
		},
	}
}

func (ma *mockApplier) ApplyAction(ctx context.Context, a model.Action) (repository.Snapshot, error) {
	ma.mu.Lock()
	defer ma.mu.Unlock()

	if err, exists := ma.errs[a.ActionID]; exists {
		return repository.Snapshot{}, err
	}
	ma.applied = append(ma.applied, a)
	return repository.Snapshot{
		Session: model.Session{ID: a.SessionID, Roster: ma.roster},
	}, nil
}

func (ma *mockApplier) setError(actionID string, err error) {
	ma.mu.Lock()
	defer ma.mu.Unlock()
	ma.errs[actionID] = err
}

func (ma *mockApplier) appliedCount() int {
	ma.mu.Lock()
	defer ma.mu.Unlock()
	return len(ma.applied)
}

type mockRecorder struct {
	mu     sync.Mutex
	values map[string]float64
	err    error
}

func newMockRecorder() *mockRecorder {
	return &mockRecorder{values: make(map[string]float64)}
}

func (mr *mockRecorder) Append(ctx context.Context, a model.Action, value float64) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	if mr.err != nil {
		return mr.err
	}
	mr.values[a.ActionID] = value
	return nil
}

func (mr *mockRecorder) valueFor(actionID string) (float64, bool) {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	v, ok := mr.values[actionID]
	return v, ok
}

func action(id string, pid int, kind model.ActionKind) worker.Action {
	return worker.Action{
		ActionID:      id,
		SessionID:     "s1",
		ParticipantID: pid,
		Kind:          kind,
		TS:            time.Now(),
	}
}

func TestWorker(t *testing.T) {
	convey.Convey("Given a worker over mocked collaborators", t, func() {
		// Initialize logging for tests
		_ = logging.Init()

		queue := newMockQueue()
		applier := newMockApplier()
		recorder := newMockRecorder()

		convey.Convey("When creating a worker with a custom name", func() {
			w := worker.NewWorker(queue, applier, recorder, worker.WithName("test-worker"))

			convey.Convey("Then it should be created successfully", func() {
				convey.So(w, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When running a worker", func() {
			w := worker.NewWorker(queue, applier, recorder)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			go w.Run(ctx)
			time.Sleep(10 * time.Millisecond)

			convey.Convey("And a call action arrives", func() {
				queue.addAction(action("a1", 1, model.ActionCall))
				time.Sleep(50 * time.Millisecond)

				convey.Convey("Then it is applied and logged with zero value", func() {
					convey.So(applier.appliedCount(), convey.ShouldEqual, 1)
					v, ok := recorder.valueFor("a1")
					convey.So(ok, convey.ShouldBeTrue)
					convey.So(v, convey.ShouldEqual, 0.0)
				})
			})

			convey.Convey("And a meeting action arrives", func() {
				queue.addAction(action("a2", 2, model.ActionMeeting))
				time.Sleep(50 * time.Millisecond)

				convey.Convey("Then the participant's unit value rides along", func() {
					v, ok := recorder.valueFor("a2")
					convey.So(ok, convey.ShouldBeTrue)
					convey.So(v, convey.ShouldEqual, 750.0)
				})
			})

			convey.Convey("And an undo hits a counter floor", func() {
				applier.setError("a3", repository.ErrFloor)
				queue.addAction(action("a3", 1, model.ActionCall))
				time.Sleep(50 * time.Millisecond)

				convey.Convey("Then the action is dropped without logging", func() {
					_, ok := recorder.valueFor("a3")
					convey.So(ok, convey.ShouldBeFalse)
				})
			})

			convey.Convey("And the store fails", func() {
				applier.setError("a4", errors.New("boom"))
				queue.addAction(action("a4", 1, model.ActionCall))
				queue.addAction(action("a5", 1, model.ActionCall))
				time.Sleep(50 * time.Millisecond)

				convey.Convey("Then the worker keeps processing later actions", func() {
					v, ok := recorder.valueFor("a5")
					convey.So(ok, convey.ShouldBeTrue)
					convey.So(v, convey.ShouldEqual, 0.0)
				})
			})
		})

		convey.Convey("When shutting a worker down", func() {
			w := worker.NewWorker(queue, applier, recorder)
			go w.Run(context.Background())
			time.Sleep(10 * time.Millisecond)

			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			convey.Convey("Then Shutdown returns before the deadline", func() {
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of four workers", t, func() {
		_ = logging.Init()

		queue := newMockQueue()
		applier := newMockApplier()
		recorder := newMockRecorder()

		pool := worker.NewPool(4, queue, applier, recorder)

		convey.Convey("When the pool runs a batch", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)

			for i := 0; i < 10; i++ {
				queue.addAction(action("batch-"+string(rune('a'+i)), 1, model.ActionCall))
			}
			time.Sleep(100 * time.Millisecond)

			convey.Convey("Then every action is applied exactly once", func() {
				convey.So(applier.appliedCount(), convey.ShouldEqual, 10)
			})

			convey.Convey("And Stop drains without hanging", func() {
				pool.Stop()
			})
		})

		convey.Convey("When created with a non-positive count", func() {
			p := worker.NewPool(0, queue, applier, recorder)

			convey.Convey("Then it falls back to a CPU-based default", func() {
				convey.So(p, convey.ShouldNotBeNil)
			})
		})
	})
}
