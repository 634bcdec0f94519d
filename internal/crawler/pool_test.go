package crawler

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoolBoundsConcurrency(t *testing.T) {
	const workers = 2
	p := NewPool(workers, nil)
	defer p.Stop()

	var running, peak int64
	var mu sync.Mutex
	for i := 0; i < 10; i++ {
		p.Submit(func() {
			n := atomic.AddInt64(&running, 1)
			mu.Lock()
			if n > peak {
				peak = n
			}
			mu.Unlock()
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt64(&running, -1)
		})
	}
	p.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, int64(workers))
	assert.Greater(t, peak, int64(0))
}

func TestPoolDynamicSubmission(t *testing.T) {
	p := NewPool(3, nil)
	defer p.Stop()

	var count int64
	p.Submit(func() {
		atomic.AddInt64(&count, 1)
		// Children enqueued from inside a running task join the same pool.
		for i := 0; i < 5; i++ {
			p.Submit(func() { atomic.AddInt64(&count, 1) })
		}
	})
	p.Wait()
	assert.Equal(t, int64(6), atomic.LoadInt64(&count))
}

func TestPoolSurvivesPanickingTask(t *testing.T) {
	p := NewPool(2, nil)
	defer p.Stop()

	var done int64
	p.Submit(func() { panic("boom") })
	p.Submit(func() { atomic.AddInt64(&done, 1) })
	p.Wait()

	// Pool is still usable afterwards.
	p.Submit(func() { atomic.AddInt64(&done, 1) })
	p.Wait()
	assert.Equal(t, int64(2), atomic.LoadInt64(&done))
}

func TestPoolStopRejectsSubmissions(t *testing.T) {
	p := NewPool(1, nil)
	assert.True(t, p.Submit(func() {}))
	p.Wait()
	p.Stop()
	assert.False(t, p.Submit(func() {}))
	p.Wait()
}

func TestPoolWaitOnIdlePoolReturns(t *testing.T) {
	p := NewPool(4, nil)
	defer p.Stop()

	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait blocked on an idle pool")
	}
}
