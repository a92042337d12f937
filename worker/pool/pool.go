package pool

import (
	"sync"
)

// Pool bounds the number of concurrent fetches. Slots are acquired before
// claiming so a worker never takes a task it has no capacity to run.
type Pool struct {
	sem chan struct{}
	wg  sync.WaitGroup
}

func New(maxWorkers int) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &Pool{
		sem: make(chan struct{}, maxWorkers),
	}
}

// TryAcquire reserves a slot without blocking.
func (p *Pool) TryAcquire() bool {
	select {
	case p.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release returns an unused slot, for when an acquired slot found no task.
func (p *Pool) Release() {
	<-p.sem
}

// Go runs fn on a goroutine using a slot previously acquired by the caller;
// the slot is released when fn returns.
func (p *Pool) Go(fn func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.Release()
		fn()
	}()
}

// Wait blocks until all running tasks finish.
func (p *Pool) Wait() {
	p.wg.Wait()
}
