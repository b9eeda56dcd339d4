package worker

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Pool is a bounded set of execution slots for parallel sub-work inside
// a task body (e.g. a data-parallel preprocessing step). The execution
// manager owns the handle; task bodies only submit to it.
type Pool struct {
	size  int
	tasks chan func()

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	log    *logrus.Entry
}

func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		size:   size,
		tasks:  make(chan func(), 4*size),
		ctx:    ctx,
		cancel: cancel,
		log:    logrus.WithField("component", "worker-pool"),
	}

	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.log.Debugf("started %d workers", size)

	return p
}

func (p *Pool) Size() int {
	return p.size
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			p.log.Debugf("worker %d shutting down", id)
			return
		case fn, ok := <-p.tasks:
			if !ok {
				return
			}
			func() {
				defer func() {
					if r := recover(); r != nil {
						p.log.Errorf("worker %d recovered panic: %v\n%s", id, r, debug.Stack())
					}
				}()
				fn()
			}()
		}
	}
}

// Submit queues fn without waiting for it. Returns an error when the
// pool is stopped or its queue is full.
func (p *Pool) Submit(fn func() error) error {
	if fn == nil {
		return nil
	}
	if p.ctx.Err() != nil {
		return errors.New("worker pool is stopped")
	}

	wrapped := func() {
		if err := fn(); err != nil {
			p.log.WithError(err).Warn("pooled task failed")
		}
	}

	select {
	case p.tasks <- wrapped:
		return nil
	default:
		return errors.New("worker pool queue is full")
	}
}

// SubmitWait queues fn and blocks until it finishes, returning its
// error. A panic inside fn is converted to an error.
func (p *Pool) SubmitWait(fn func() error) error {
	if fn == nil {
		return nil
	}
	if p.ctx.Err() != nil {
		return errors.New("worker pool is stopped")
	}

	done := make(chan error, 1)
	p.tasks <- func() {
		defer func() {
			if r := recover(); r != nil {
				done <- errors.Errorf("pooled task panicked: %v", r)
			}
		}()
		done <- fn()
	}
	return <-done
}

// Stop discards queued work, cancels the workers, and waits for the
// in-flight ones to return. Safe to call more than once.
func (p *Pool) Stop() {
drain:
	for {
		select {
		case <-p.tasks:
		default:
			break drain
		}
	}

	p.cancel()
	p.wg.Wait()
	p.log.Debug("all workers stopped")
}
