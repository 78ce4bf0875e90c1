package scheduler

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/dbroute/dbroute/common"
	"github.com/dbroute/dbroute/database"
	"github.com/dbroute/dbroute/log"
	"github.com/dbroute/dbroute/model"
	"github.com/dbroute/dbroute/service/metrics"
)

const (
	DefaultBatchSize = 500
	MinTick          = time.Second
)

type JobStore interface {
	GetAllJobs() ([]model.IntegrationJob, error)
	GetJobByID(id int64) (model.IntegrationJob, error)
	GetConnectionBySlug(slug string) (model.Connection, error)
	UpdateJob(job model.IntegrationJob) error
}

// Scheduler runs integration jobs from a single loop over a min-heap of next
// fire times. A job never runs concurrently with itself.
type Scheduler struct {
	store      JobStore
	copier     *Copier
	tick       time.Duration
	runTimeout time.Duration
	pool       *common.WorkerPool

	lock    sync.Mutex
	queue   jobHeap
	entries map[int64]*entry
	running map[int64]bool

	wake    chan struct{}
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
	started bool
	now     func() time.Time
}

func NewScheduler(store JobStore, vault *common.Vault, opener database.Opener, tick time.Duration, workers int, runTimeout time.Duration) *Scheduler {
	if tick < MinTick {
		tick = MinTick
	}
	return &Scheduler{
		store:      store,
		copier:     NewCopier(vault, opener, store),
		tick:       tick,
		runTimeout: runTimeout,
		pool:       common.NewWorkerPool(workers, 64),
		entries:    make(map[int64]*entry),
		running:    make(map[int64]bool),
		wake:       make(chan struct{}, 1),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		now:        time.Now,
	}
}

// Reload syncs the heap with the stored jobs. New enabled jobs fire right
// away, known jobs keep their next fire time.
func (s *Scheduler) Reload() error {
	jobs, err := s.store.GetAllJobs()
	if err != nil {
		return err
	}
	s.lock.Lock()
	seen := make(map[int64]bool, len(jobs))
	for _, job := range jobs {
		seen[job.ID] = true
		s.upsertLocked(job)
	}
	for id := range s.entries {
		if !seen[id] {
			s.removeLocked(id)
		}
	}
	s.lock.Unlock()
	s.notify()
	log.Logger.Debugf("scheduler reloaded, %d jobs queued", s.Len())
	return nil
}

// Upsert schedules a new or changed job. Disabled jobs are removed.
func (s *Scheduler) Upsert(job model.IntegrationJob) {
	s.lock.Lock()
	s.upsertLocked(job)
	s.lock.Unlock()
	s.notify()
}

func (s *Scheduler) Remove(id int64) {
	s.lock.Lock()
	s.removeLocked(id)
	s.lock.Unlock()
}

func (s *Scheduler) Len() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.queue.Len()
}

func (s *Scheduler) upsertLocked(job model.IntegrationJob) {
	if !job.Enabled || job.IntervalSeconds <= 0 {
		s.removeLocked(job.ID)
		return
	}
	if e, ok := s.entries[job.ID]; ok {
		if e.job.IntervalSeconds != job.IntervalSeconds {
			e.next = s.now().Add(job.Interval())
		}
		e.job = job
		heap.Fix(&s.queue, e.index)
		return
	}
	e := &entry{job: job, next: s.now()}
	s.entries[job.ID] = e
	heap.Push(&s.queue, e)
}

func (s *Scheduler) removeLocked(id int64) {
	e, ok := s.entries[id]
	if !ok {
		return
	}
	heap.Remove(&s.queue, e.index)
	delete(s.entries, id)
}

func (s *Scheduler) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) Start() error {
	if err := s.Reload(); err != nil {
		return err
	}
	s.lock.Lock()
	s.started = true
	s.lock.Unlock()
	go s.loop()
	log.Logger.Infof("scheduler started, tick %v", s.tick)
	return nil
}

func (s *Scheduler) Stop() {
	s.once.Do(func() {
		close(s.stop)
		s.lock.Lock()
		started := s.started
		s.lock.Unlock()
		if started {
			<-s.done
		}
		s.pool.Close()
		log.Logger.Infof("scheduler stopped")
	})
}

func (s *Scheduler) loop() {
	defer close(s.done)
	for {
		timer := time.NewTimer(s.nextWait())
		select {
		case <-s.stop:
			timer.Stop()
			return
		case <-s.wake:
			timer.Stop()
		case <-timer.C:
		}
		s.dispatchDue()
	}
}

func (s *Scheduler) nextWait() time.Duration {
	s.lock.Lock()
	defer s.lock.Unlock()
	wait := s.tick
	if e := s.queue.peek(); e != nil {
		if until := e.next.Sub(s.now()); until < wait {
			wait = until
		}
	}
	if wait < 0 {
		wait = 0
	}
	return wait
}

// dispatchDue hands every due job to the pool and pushes it back with its
// next fire time.
func (s *Scheduler) dispatchDue() {
	now := s.now()
	var due []model.IntegrationJob
	s.lock.Lock()
	for {
		e := s.queue.peek()
		if e == nil || e.next.After(now) {
			break
		}
		e.next = now.Add(e.job.Interval())
		heap.Fix(&s.queue, e.index)
		if s.running[e.job.ID] {
			log.Logger.Warnf("job %s is still running, skip this round", e.job.Name)
			continue
		}
		s.running[e.job.ID] = true
		due = append(due, e.job)
	}
	s.lock.Unlock()

	for _, job := range due {
		job := job
		if err := s.pool.Submit(func() { s.run(job) }); err != nil {
			s.finish(job.ID)
		}
	}
}

func (s *Scheduler) finish(id int64) {
	s.lock.Lock()
	delete(s.running, id)
	s.lock.Unlock()
}

func (s *Scheduler) run(job model.IntegrationJob) {
	defer s.finish(job.ID)

	ctx := context.Background()
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	start := s.now()
	copied, err := s.copier.Copy(ctx, job)
	critical := err != nil && IsCritical(err)
	if err != nil {
		metrics.JobRuns.WithLabelValues(job.Name, model.StatusError).Inc()
		if critical {
			s.Remove(job.ID)
			log.Logger.Errorf("job %s deactivated: %v", job.Name, err)
		} else {
			log.Logger.Errorf("job %s failed: %v", job.Name, err)
		}
	} else {
		metrics.JobRuns.WithLabelValues(job.Name, model.StatusSuccess).Inc()
		metrics.JobRowsCopied.WithLabelValues(job.Name).Add(float64(copied))
		log.Logger.Infof("job %s copied %d rows in %v", job.Name, copied, s.now().Sub(start))
	}

	// the job may have been edited while it ran, only the run state is ours
	current, gerr := s.store.GetJobByID(job.ID)
	if gerr != nil {
		log.Logger.Warnf("reload job %s failed: %v", job.Name, gerr)
		return
	}
	current.LastRun = start
	current.LastError = ""
	if err != nil {
		current.LastError = err.Error()
	}
	if critical {
		current.Enabled = false
	}
	if err = s.store.UpdateJob(current); err != nil {
		log.Logger.Warnf("save state of job %s failed: %v", job.Name, err)
	}
}

// IsCritical reports errors that will not heal by retrying on the next tick.
func IsCritical(err error) bool {
	switch common.KindOf(err) {
	case common.KindCrypto, common.KindConfig, common.KindUnsupported, common.KindValidation, common.KindNotFound:
		return true
	}
	return false
}
