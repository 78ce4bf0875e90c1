package route

import (
	"sync"

	"github.com/dbroute/dbroute/log"
	"github.com/dbroute/dbroute/model"
	"github.com/dbroute/dbroute/service/metrics"
)

type HistoryStore interface {
	CreateExecutionLog(entry model.ExecutionLog) error
}

// HistoryWriter persists execution logs off the request path. Entries are
// dropped when the queue is full.
type HistoryWriter struct {
	store HistoryStore
	queue chan model.ExecutionLog
	wg    sync.WaitGroup

	lock   sync.RWMutex
	closed bool
}

func NewHistoryWriter(store HistoryStore, size int) *HistoryWriter {
	if size <= 0 {
		size = 1024
	}
	return &HistoryWriter{
		store: store,
		queue: make(chan model.ExecutionLog, size),
	}
}

func (h *HistoryWriter) Start() {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for entry := range h.queue {
			if err := h.store.CreateExecutionLog(entry); err != nil {
				log.Logger.Warnf("save execution log of route %s on %s failed: %v", entry.Route, entry.Connection, err)
			}
		}
	}()
}

func (h *HistoryWriter) Record(entry model.ExecutionLog) {
	h.lock.RLock()
	defer h.lock.RUnlock()
	if h.closed {
		return
	}
	select {
	case h.queue <- entry:
	default:
		metrics.HistoryDropped.Inc()
		log.Logger.Warnf("execution log queue full, dropped entry of route %s on %s", entry.Route, entry.Connection)
	}
}

// Stop drains the queue and waits for the writer to finish.
func (h *HistoryWriter) Stop() {
	h.lock.Lock()
	if !h.closed {
		h.closed = true
		close(h.queue)
	}
	h.lock.Unlock()
	h.wg.Wait()
}
