package common

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/dbroute/dbroute/log"
	goerrors "github.com/go-errors/errors"
)

var (
	MaxWorkersDefault int = MaxInt(2*runtime.NumCPU(), 10)

	ErrorStopped = errors.New("worker pool already stopped")
)

// WorkerPool runs submitted functions on a fixed number of goroutines.
// Submit blocks while the queue is full, Wait blocks until every submitted
// function has returned.
type WorkerPool struct {
	submitted uint64
	finished  uint64
	workers   int

	queue   chan func()
	drained *sync.Cond
	once    sync.Once
	stopped atomic.Bool
	sync.Mutex
}

func NewWorkerPool(workers int, queueSize int) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	w := &WorkerPool{
		workers: workers,
		queue:   make(chan func(), queueSize),
	}
	w.drained = sync.NewCond(w)
	for i := 0; i < workers; i++ {
		go w.work()
	}
	return w
}

func (w *WorkerPool) work() {
	for fn := range w.queue {
		safeRun(fn)
		w.Lock()
		w.finished++
		if w.submitted == w.finished {
			w.drained.Broadcast()
		}
		w.Unlock()
	}
}

// safeRun keeps a worker alive when fn panics.
func safeRun(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Logger.Errorf("worker recovered: %s", goerrors.Wrap(r, 2).ErrorStack())
		}
	}()
	fn()
}

func (w *WorkerPool) Workers() int {
	return w.workers
}

// Submit enqueues fn for a worker.
func (w *WorkerPool) Submit(fn func()) error {
	if w.stopped.Load() {
		return ErrorStopped
	}
	w.Lock()
	w.submitted++
	w.Unlock()

	w.queue <- fn
	return nil
}

func (w *WorkerPool) Wait() {
	w.Lock()
	defer w.Unlock()
	for w.submitted != w.finished {
		w.drained.Wait()
	}
}

func (w *WorkerPool) Pending() uint64 {
	w.Lock()
	defer w.Unlock()
	return w.submitted - w.finished
}

// Close refuses new work, waits for queued work and releases the workers.
func (w *WorkerPool) Close() {
	w.stopped.Store(true)
	w.Wait()
	w.once.Do(func() {
		close(w.queue)
	})
}
