package async

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// PanicHandler is called with a value recovered from a posted function.
type PanicHandler func(r any, stack []byte)

// Loop runs posted functions sequentially on one goroutine.
type Loop struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}

	done     chan struct{}
	quitOnce sync.Once
	running  atomic.Bool

	inflight atomic.Int64
	executed atomic.Uint64

	panicHandler PanicHandler
}

// Option configures a Loop.
type Option func(*Loop)

// WithPanicHandler sets the handler for panics in posted functions. Without
// one, the panic propagates out of Run.
func WithPanicHandler(h PanicHandler) Option {
	return func(l *Loop) {
		l.panicHandler = h
	}
}

// NewLoop creates a loop. It does nothing until Run is called.
func NewLoop(opts ...Option) *Loop {
	l := &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post queues fn to run on the loop. It is safe to call from any goroutine,
// including from a function running on the loop. Functions run in the order
// they were posted.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run executes posted functions until Quit is called. It returns
// ErrAlreadyRunning if another goroutine is running the loop and ErrStopped
// if the loop has already been stopped.
func (l *Loop) Run() error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	select {
	case <-l.done:
		return ErrStopped
	default:
	}

	for {
		for _, fn := range l.drain() {
			select {
			case <-l.done:
				return nil
			default:
			}
			l.execute(fn)
		}

		select {
		case <-l.done:
			return nil
		case <-l.wake:
		}
	}
}

// Quit stops the loop after the function currently executing returns.
// Functions still queued are dropped. Quit may be called more than once.
func (l *Loop) Quit() {
	l.quitOnce.Do(func() {
		close(l.done)
	})
}

// Done returns a channel that is closed when the loop is stopped.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Running reports whether Run is executing.
func (l *Loop) Running() bool {
	return l.running.Load()
}

// InFlight returns the number of Go calls whose completion has not yet run.
func (l *Loop) InFlight() int64 {
	return l.inflight.Load()
}

// Executed returns the number of posted functions that have run.
func (l *Loop) Executed() uint64 {
	return l.executed.Load()
}

func (l *Loop) drain() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	q := l.queue
	l.queue = nil
	return q
}

func (l *Loop) execute(fn func()) {
	if l.panicHandler != nil {
		defer func() {
			if r := recover(); r != nil {
				l.panicHandler(r, debug.Stack())
			}
		}()
	}
	l.executed.Add(1)
	fn()
}

// Go runs fn on a new goroutine and posts done, called with fn's results, to
// the loop. A panic in fn is recovered and reported to done as ErrPanic.
func Go[T any](l *Loop, fn func() (T, error), done func(T, error)) {
	l.inflight.Add(1)
	go func() {
		v, err := call(fn)
		l.Post(func() {
			l.inflight.Add(-1)
			done(v, err)
		})
	}()
}

func call[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn()
}
