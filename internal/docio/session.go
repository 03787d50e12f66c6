package docio

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/docio/internal/async"
	"github.com/dshills/docio/internal/vfs"
)

// session is the plumbing shared by Loader and Saver. Apart from started
// and cancelled, its fields are only touched from the loop.
type session struct {
	op   string
	id   uuid.UUID
	loc  vfs.Location
	opts settings
	log  *slog.Logger

	ctx         context.Context
	cancelCtx   context.CancelFunc
	loop        *async.Loop
	backend     vfs.Backend
	state       State
	cancellable bool
	mountTried  bool
	finished    bool
	done        func(error)
	cleanup     func()

	started   atomic.Bool
	cancelled atomic.Bool
}

func (s *session) init(op string, loc vfs.Location, opts []Option) {
	s.op = op
	s.id = uuid.New()
	s.loc = loc
	s.opts = defaultSettings()
	for _, opt := range opts {
		opt(&s.opts)
	}
	s.log = s.opts.logger.With(
		slog.String("op", op),
		slog.String("session", s.id.String()),
		slog.String("location", loc.String()),
	)
}

// ID returns the session id used in log records.
func (s *session) ID() uuid.UUID {
	return s.id
}

// begin prepares the session to run on loop.
func (s *session) begin(ctx context.Context, loop *async.Loop, done func(error)) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyUsed
	}
	s.ctx, s.cancelCtx = context.WithCancel(ctx)
	s.loop = loop
	s.done = done
	return nil
}

// run starts a session on a private loop and blocks until it ends.
func (s *session) run(start func(loop *async.Loop, done func(error)) error) error {
	loop := async.NewLoop()
	var result error
	if err := start(loop, func(err error) {
		result = err
		loop.Quit()
	}); err != nil {
		return err
	}
	if err := loop.Run(); err != nil {
		return err
	}
	return result
}

// interrupted reports whether the session must stop before the next
// transition. A cancelled session fires its terminal event here.
func (s *session) interrupted() bool {
	if s.finished {
		return true
	}
	if s.cancellable && (s.cancelled.Load() || s.ctx.Err() != nil) {
		s.finish(ErrCancelled)
		return true
	}
	return false
}

func (s *session) setState(st State) {
	s.state = st
	s.log.Debug("state", slog.String("state", st.String()))
}

// fail ends the session with err.
func (s *session) fail(err error) {
	s.finish(err)
}

// finish fires the terminal event. Later calls are ignored.
func (s *session) finish(err error) {
	if s.finished {
		return
	}
	s.finished = true
	if s.cleanup != nil {
		s.cleanup()
	}
	defer s.cancelCtx()

	if err != nil {
		err = &OpError{Op: s.op, Location: s.loc, State: s.state, Err: err}
	}

	switch {
	case err == nil, IsSoft(err):
		s.setState(StateCompleted)
		if err != nil {
			s.log.Info("completed with warning", slog.Any("error", err))
		}
	case errors.Is(err, ErrCancelled):
		s.setState(StateCancelled)
	default:
		s.log.Warn("failed", slog.String("state", s.state.String()), slog.Any("error", err))
		s.setState(StateFailed)
	}
	s.done(err)
}

func (s *session) progress(done, total int64) {
	s.log.Debug("progress", slog.Int64("bytes", done), slog.Int64("total", total))
	if s.opts.progress != nil {
		s.opts.progress(done, total)
	}
}

// resolve looks up the backend for the session's location.
func (s *session) resolve() bool {
	if s.backend != nil {
		return true
	}
	b, err := s.opts.registry.For(s.loc)
	if err != nil {
		s.fail(err)
		return false
	}
	s.backend = b
	return true
}

// shouldMount reports whether err allows the one mount attempt.
func (s *session) shouldMount(err error) bool {
	return vfs.IsNotMounted(err) && !s.mountTried
}

// mount asks the backend to mount the location and calls retry on success.
func (s *session) mount(retry func()) {
	s.mountTried = true
	s.setState(StateMounting)

	var op vfs.MountOperation
	if s.opts.mountOp != nil {
		op = s.opts.mountOp()
	}
	step(s, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.backend.Mount(ctx, s.loc, op)
	}, func(_ struct{}, err error) {
		if err != nil {
			s.fail(err)
			return
		}
		retry()
	})
}

// step runs fn off the loop and resumes with next on the loop. When the
// session ended or was cancelled in the meantime, next is skipped and a
// returned io.Closer is closed.
func step[T any](s *session, fn func(ctx context.Context) (T, error), next func(T, error)) {
	ctx := s.ctx
	async.Go(s.loop, func() (T, error) {
		return fn(ctx)
	}, func(v T, err error) {
		if s.interrupted() {
			if c, ok := any(v).(io.Closer); ok {
				c.Close()
			}
			return
		}
		next(v, err)
	})
}
