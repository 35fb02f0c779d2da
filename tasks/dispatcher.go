// Package tasks runs off-path work: persisting freshly rendered images,
// refreshing stale cache entries, syncing the mailing list. Contract:
// enqueue, fire-and-forget, no ordering guarantee relative to the HTTP
// response. Failures are logged and never surfaced to the request.
package tasks

import (
	"sync"

	zlog "github.com/rs/zerolog/log"
)

type job struct {
	name string
	fn   func() error
}

// Dispatcher fans jobs out to a fixed worker pool over a bounded queue.
// When the queue is full the job is dropped with a log line rather than
// blocking the HTTP response.
type Dispatcher struct {
	jobs chan job
	wg   sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// Default is the process-wide dispatcher, set by Init.
var Default *Dispatcher

func Init(workers, queueSize int) *Dispatcher {
	Default = NewDispatcher(workers, queueSize)
	return Default
}

func NewDispatcher(workers, queueSize int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	d := &Dispatcher{jobs: make(chan job, queueSize)}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.jobs {
		d.run(j)
	}
}

func (d *Dispatcher) run(j job) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Str("task", j.name).Interface("panic", r).Msg("background task panicked")
		}
	}()
	if err := j.fn(); err != nil {
		zlog.Error().Str("task", j.name).Err(err).Msg("background task failed")
	}
}

// Enqueue submits a job without blocking. Returns false if the job was
// dropped because the queue is full or the dispatcher is stopped.
func (d *Dispatcher) Enqueue(name string, fn func() error) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		zlog.Warn().Str("task", name).Msg("dispatcher stopped, dropping task")
		return false
	}
	select {
	case d.jobs <- job{name: name, fn: fn}:
		return true
	default:
		zlog.Warn().Str("task", name).Msg("task queue full, dropping task")
		return false
	}
}

// Stop drains the queue and waits for in-flight jobs to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()

	d.wg.Wait()
}
