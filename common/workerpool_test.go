package common

import (
	"sync/atomic"
	"testing"

	"github.com/dbroute/dbroute/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool(t *testing.T) {
	for i := 0; i < 200; i++ {
		wp := NewWorkerPool(3, 1)
		slugs := []string{"norte", "sul", "leste", "oeste", "centro"}
		seen := make(chan string, len(slugs))
		for _, s := range slugs {
			s := s
			require.NoError(t, wp.Submit(func() {
				seen <- s
			}))
		}
		wp.Close()

		close(seen)
		got := map[string]struct{}{}
		for s := range seen {
			got[s] = struct{}{}
		}
		require.Len(t, got, len(slugs))
	}
}

func TestWorkerPoolSurvivesPanic(t *testing.T) {
	log.InitLoggerConsole()
	wp := NewWorkerPool(2, 4)
	defer wp.Close()

	var done int32
	_ = wp.Submit(func() { panic("boom") })
	for i := 0; i < 5; i++ {
		_ = wp.Submit(func() { atomic.AddInt32(&done, 1) })
	}
	wp.Wait()
	assert.Equal(t, int32(5), atomic.LoadInt32(&done))
	assert.Equal(t, uint64(0), wp.Pending())
	assert.Equal(t, 2, wp.Workers())
}

func TestWorkerPoolStopped(t *testing.T) {
	wp := NewWorkerPool(0, 1)
	assert.Equal(t, 1, wp.Workers())
	wp.Close()
	assert.ErrorIs(t, wp.Submit(func() {}), ErrorStopped)
}
