package crawler

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Pool is a bounded-concurrency task executor with dynamic submission.
// At most `workers` tasks run at once; everything else queues. Tasks may
// be submitted while the pool is running, which the crawler relies on as
// each BFS layer produces the next. A panicking task is logged and counted
// as finished; it never takes the pool down with it.
type Pool struct {
	workers int
	logger  *logrus.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	pending int
	stopped bool
}

func NewPool(workers int, logger *logrus.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = logrus.New()
	}
	p := &Pool{workers: workers, logger: logger}
	p.cond = sync.NewCond(&p.mu)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

// Submit enqueues a task and reports whether the pool accepted it.
// Submissions after Stop are rejected.
func (p *Pool) Submit(task func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return false
	}
	p.queue = append(p.queue, task)
	p.pending++
	p.cond.Broadcast()
	return true
}

// Wait blocks until every accepted task has finished.
func (p *Pool) Wait() {
	p.mu.Lock()
	for p.pending > 0 {
		p.cond.Wait()
	}
	p.mu.Unlock()
}

// Stop rejects further submissions and discards tasks that have not yet
// started. In-flight tasks drain normally; workers exit afterwards.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		p.pending -= len(p.queue)
		p.queue = nil
	}
	p.cond.Broadcast()
	p.mu.Unlock()
}

func (p *Pool) worker() {
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.stopped {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		task := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.run(task)

		p.mu.Lock()
		p.pending--
		if p.pending == 0 {
			p.cond.Broadcast()
		}
		p.mu.Unlock()
	}
}

func (p *Pool) run(task func()) {
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Errorf("recovered panic in pool task: %v", rec)
		}
	}()
	task()
}
