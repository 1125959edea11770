package clipboard

import (
	"sync"

	"github.com/juju/errors"
)

// ErrClosed is returned when work is handed to a closed Loop or Writer.
var ErrClosed = errors.New("clipboard writer closed")

// Loop is a single-goroutine event loop. Tasks run one at a time, in the
// order they were posted, and never on the goroutine that posted them.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	closed bool

	wake chan struct{}
	done chan struct{}
}

func NewLoop() *Loop {
	l := &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

// Post enqueues task with zero delay. It never blocks and never runs task
// inline.
func (l *Loop) Post(task func()) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.queue = append(l.queue, task)
	l.mu.Unlock()

	l.signal()
	return nil
}

// Close stops accepting tasks, waits for the queued ones to run and then
// stops the loop goroutine. It must not be called from inside a task.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	l.signal()
	<-l.done
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) run() {
	defer close(l.done)

	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			closed := l.closed
			l.mu.Unlock()
			if closed {
				return
			}
			<-l.wake
			continue
		}

		task := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		runTask(task)
	}
}

func runTask(task func()) {
	// A panicking task must not take the loop down with it.
	defer func() {
		_ = recover()
	}()
	task()
}
