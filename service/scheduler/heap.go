package scheduler

import (
	"time"

	"github.com/dbroute/dbroute/model"
)

type entry struct {
	job   model.IntegrationJob
	next  time.Time
	index int
}

// jobHeap is a min-heap of jobs ordered by next fire time.
type jobHeap []*entry

func (h jobHeap) Len() int { return len(h) }

func (h jobHeap) Less(i, j int) bool {
	return h[i].next.Before(h[j].next)
}

func (h jobHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *jobHeap) Push(x interface{}) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *jobHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

func (h jobHeap) peek() *entry {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}
