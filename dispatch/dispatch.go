// Package dispatch moves work raised on arbitrary goroutines onto the single
// goroutine that owns UI state.
package dispatch

import (
	"context"
	"sync"

	"github.com/nulifyer/gugetctl/logger"
)

// Task runs on the owner goroutine. ctx is marked as owned by the
// dispatcher that ran it.
type Task func(ctx context.Context)

// Dispatcher queues a task for its owner goroutine. Post never runs the task
// inline.
type Dispatcher interface {
	Post(task Task)
}

type ownerKey struct{}

// WithOwner marks ctx as belonging to d's owner goroutine. Only the owner
// should hand such a context out.
func WithOwner(ctx context.Context, d Dispatcher) context.Context {
	return context.WithValue(ctx, ownerKey{}, d)
}

// OnOwner reports whether ctx was produced by d's owner.
func OnOwner(ctx context.Context, d Dispatcher) bool {
	owner, ok := ctx.Value(ownerKey{}).(Dispatcher)
	return ok && owner == d
}

// Marshal runs task right away when the caller is already the owner, and
// posts it otherwise. Running inline keeps the owner from queueing work
// behind itself.
func Marshal(ctx context.Context, d Dispatcher, task Task) {
	if OnOwner(ctx, d) {
		task(ctx)
		return
	}
	d.Post(task)
}

// ─────────────────────────────────────────────
// Loop
// ─────────────────────────────────────────────

// Loop is a channel-backed owner for headless use.
type Loop struct {
	tasks chan Task
	done  chan struct{}
	once  sync.Once
}

func NewLoop(buffer int) *Loop {
	return &Loop{tasks: make(chan Task, buffer), done: make(chan struct{})}
}

// Post queues task. Tasks posted after Run returned are dropped.
func (l *Loop) Post(task Task) {
	select {
	case l.tasks <- task:
	case <-l.done:
		logger.Debug("dispatch: loop stopped, task dropped")
	}
}

// Run executes tasks in order on the calling goroutine until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	defer l.once.Do(func() { close(l.done) })
	owned := WithOwner(ctx, l)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task := <-l.tasks:
			task(owned)
		}
	}
}

// Drain runs whatever is queued right now and returns how many tasks ran.
// It must be called from the owner goroutine.
func (l *Loop) Drain(ctx context.Context) int {
	owned := WithOwner(ctx, l)
	n := 0
	for {
		select {
		case task := <-l.tasks:
			task(owned)
			n++
		default:
			return n
		}
	}
}
