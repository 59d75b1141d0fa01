package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const tailTaskTimeout = 60 * time.Second

// TailWorker runs the fire-and-forget persistence work that follows a
// delivered stream (message append, token accounting, cache update). Tasks
// get their own context detached from the request: the client response has
// already been sent when they run, so failures are logged, never surfaced.
// A supervised queue rather than a bare goroutine means shutdown can drain
// in-flight work instead of silently dropping it.
type TailWorker struct {
	tasks chan func(context.Context)
	wg    sync.WaitGroup

	closeOnce sync.Once
}

// NewTailWorker starts a tail worker with the given concurrency and queue
// depth.
func NewTailWorker(workers, queueSize int) *TailWorker {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 64
	}

	w := &TailWorker{tasks: make(chan func(context.Context), queueSize)}
	for i := 0; i < workers; i++ {
		w.wg.Add(1)
		go w.run()
	}
	return w
}

func (w *TailWorker) run() {
	defer w.wg.Done()
	for task := range w.tasks {
		w.execute(task)
	}
}

func (w *TailWorker) execute(task func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Any("panic", r).Msg("tail task panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), tailTaskTimeout)
	defer cancel()
	task(ctx)
}

// Submit enqueues a task. Blocks when the queue is full rather than dropping
// work.
func (w *TailWorker) Submit(task func(context.Context)) {
	w.tasks <- task
}

// Close stops accepting tasks and waits for queued work to finish
func (w *TailWorker) Close() {
	w.closeOnce.Do(func() {
		close(w.tasks)
	})
	w.wg.Wait()
}
