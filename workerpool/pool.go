package workerpool

import (
	"sync"

	"github.com/feateval/feateval/errors"
)

// Job is a unit of work submitted to a Pool.
type Job func() error

// Pool runs submitted jobs on a bounded number of worker goroutines.
// Jobs are submitted in batches with Add; Wait blocks until all submitted
// jobs have finished and returns their combined errors, if any.
type Pool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []Job
	active  int
	errs    errors.Errors
	workers int
	stopped bool
}

// New creates a pool with n workers.
func New(n int) *Pool {
	if n < 1 {
		n = 1
	}
	p := &Pool{workers: n}
	p.cond = sync.NewCond(&p.mu)
	for i := 0; i < n; i++ {
		go p.run()
	}
	return p
}

// Add submits a batch of jobs to the pool.
func (p *Pool) Add(jobs []Job) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, jobs...)
	p.cond.Broadcast()
}

// Stop discards all pending jobs and shuts the workers down.
// Jobs already running are allowed to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = nil
	p.stopped = true
	p.cond.Broadcast()
}

// Wait blocks until all submitted jobs have completed (or the pool is
// stopped) and returns the combined error of all failed jobs.
func (p *Pool) Wait() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for (len(p.pending) > 0 || p.active > 0) && !p.stopped {
		p.cond.Wait()
	}
	for p.active > 0 {
		p.cond.Wait()
	}
	if p.errs == nil {
		return nil
	}
	return p.errs
}

func (p *Pool) run() {
	for {
		p.mu.Lock()
		for len(p.pending) == 0 && !p.stopped {
			p.cond.Wait()
		}
		if p.stopped && len(p.pending) == 0 {
			p.mu.Unlock()
			return
		}
		job := p.pending[0]
		p.pending = p.pending[1:]
		p.active++
		p.mu.Unlock()

		err := job()

		p.mu.Lock()
		p.active--
		p.errs = errors.Append(p.errs, err)
		p.cond.Broadcast()
		p.mu.Unlock()
	}
}
