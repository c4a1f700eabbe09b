// Package workerpool bounds how many bridge requests run at once.
// Every capture spawns a full powershell.exe process on the Windows
// side; an unbounded fan-out from a chatty client stacks interop
// processes faster than they finish. The pool keeps a fixed worker
// count and a small queue, rejecting work beyond that.
package workerpool

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/peterparker57/WSLSnapit-MCP/internal/logging"
)

var log = logging.L("workerpool")

// Task is one queued unit of work.
type Task func()

// Pool runs tasks on a fixed set of goroutines with a bounded queue.
type Pool struct {
	workers   int
	tasks     chan Task
	wg        sync.WaitGroup
	open      atomic.Bool
	draining  chan struct{}
	drainOnce sync.Once
	closeOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc
}

// New starts a pool with the given worker count and queue capacity,
// each clamped to at least 1.
func New(workers, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		workers:  workers,
		tasks:    make(chan Task, queueSize),
		draining: make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
	p.open.Store(true)

	for i := 0; i < workers; i++ {
		go p.worker()
	}

	log.Info("worker pool started", "workers", workers, "queueSize", queueSize)
	return p
}

// Context is cancelled once the pool has drained. Long-running tasks
// can select on it instead of holding up a shutdown.
func (p *Pool) Context() context.Context { return p.ctx }

// Submit enqueues a task. Returns false when the pool has stopped
// accepting or the queue is full. The WaitGroup add happens before the
// enqueue so a concurrent Drain cannot miss the task.
func (p *Pool) Submit(task Task) bool {
	if !p.open.Load() {
		return false
	}

	p.wg.Add(1)
	select {
	case p.tasks <- task:
		return true
	default:
		p.wg.Done() // task was never enqueued
		log.Warn("worker pool queue full, task rejected")
		return false
	}
}

// StopAccepting rejects all future submissions. Queued and in-flight
// tasks are unaffected.
func (p *Pool) StopAccepting() {
	p.open.Store(false)
}

// Shutdown stops accepting work and drains whatever is already queued,
// bounded by ctx.
func (p *Pool) Shutdown(ctx context.Context) {
	p.StopAccepting()
	p.Drain(ctx)
}

// Drain waits for queued and in-flight tasks to finish, up to the ctx
// deadline. Submissions are cut off first, so Drain alone is a full
// shutdown. The pool is unusable afterwards.
func (p *Pool) Drain(ctx context.Context) {
	p.StopAccepting()
	p.drainOnce.Do(func() {
		close(p.draining)
	})

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("worker pool drained")
	case <-ctx.Done():
		log.Warn("worker pool drain timed out")
	}

	p.closeOnce.Do(func() {
		close(p.tasks)
		p.cancel()
	})
}

func (p *Pool) worker() {
	for {
		select {
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			p.run(task)
		case <-p.draining:
			// Finish what is already queued, then exit.
			for {
				select {
				case task, ok := <-p.tasks:
					if !ok {
						return
					}
					p.run(task)
				default:
					return
				}
			}
		}
	}
}

// run executes one task with panic recovery. The wg.Done matching
// Submit's wg.Add lives here.
func (p *Pool) run(task Task) {
	defer p.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Error("task panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	task()
}
