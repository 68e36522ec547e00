// Package session keeps the answer state of one question while the
// user is writing.
//
// Every ink change submits a new prediction pass. Passes run off the
// caller's goroutine and may finish in any order; each one carries the
// generation it was issued with and its result is applied only if no
// newer pass has been issued since, so a slow stale pass can never
// overwrite a fresher answer.
package session

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/juruen/inkmath/ink"
	"github.com/juruen/inkmath/log"
	"github.com/juruen/inkmath/recognizer"
)

// Predictor runs one prediction pass
type Predictor interface {
	Predict(ctx context.Context, strokes []ink.Stroke) (recognizer.Answer, error)
}

// State is the answer state visible to the question
type State struct {
	// Generation of the pass that produced this state, 0 before any
	Generation uint64
	Answer     recognizer.Answer
	// Err is set when recognition could not run at all
	Err error
	// Pending reports whether a newer pass is still running
	Pending bool
}

// Value returns the recognized number, if any
func (s State) Value() (int, bool) {
	return s.Answer.Value, s.Answer.OK
}

// Session is safe for concurrent use
type Session struct {
	predictor Predictor
	onUpdate  func(State)

	ctx    context.Context
	cancel context.CancelFunc
	// passes only backs Close, which stops new passes before waiting
	passes sync.WaitGroup

	mu         sync.Mutex
	closed     bool
	issued     uint64
	running    int
	idle       chan struct{}
	passCancel context.CancelFunc
	state      State
}

type Option func(*Session)

// OnUpdate registers a callback for every applied state. It runs with
// the session lock held, in generation order, and must not call back
// into the session.
func OnUpdate(f func(State)) Option {
	return func(s *Session) {
		s.onUpdate = f
	}
}

func New(p Predictor, opts ...Option) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{predictor: p, ctx: ctx, cancel: cancel}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit starts a pass over a snapshot of strokes and returns its
// generation. The previous pass, if still running, is cancelled and its
// result will be discarded. After Close no pass is started and the last
// issued generation is returned.
func (s *Session) Submit(strokes []ink.Stroke) uint64 {
	snapshot := ink.Snapshot(strokes)

	s.mu.Lock()
	if s.closed {
		gen := s.issued
		s.mu.Unlock()
		log.Trace.Printf("session: closed, ignoring %d strokes", len(snapshot))
		return gen
	}
	s.issued++
	gen := s.issued
	if s.passCancel != nil {
		s.passCancel()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.passCancel = cancel
	s.state.Pending = true
	if s.running == 0 {
		s.idle = make(chan struct{})
	}
	s.running++
	s.passes.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.passes.Done()
		defer cancel()
		answer, err := s.predictor.Predict(ctx, snapshot)
		s.finish(gen, answer, err)
	}()

	log.Trace.Printf("session: submitted pass %d with %d strokes", gen, len(snapshot))
	return gen
}

// finish records the result of pass gen and wakes up waiters once no
// pass is running
func (s *Session) finish(gen uint64, answer recognizer.Answer, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.apply(gen, answer, err)
	s.running--
	if s.running == 0 {
		close(s.idle)
	}
}

// apply records the result of pass gen unless it has been superseded.
// s.mu must be held.
func (s *Session) apply(gen uint64, answer recognizer.Answer, err error) bool {
	if gen != s.issued {
		log.Trace.Printf("session: discarding stale pass %d (latest %d)", gen, s.issued)
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		// nothing newer is coming for this generation
		s.state.Pending = false
		log.Trace.Printf("session: pass %d abandoned: %v", gen, err)
		return false
	}

	s.state = State{Generation: gen, Answer: answer, Err: err}
	if s.passCancel != nil {
		s.passCancel()
		s.passCancel = nil
	}
	if s.onUpdate != nil {
		s.onUpdate(s.state)
	}
	return true
}

// Clear forgets the ink: running passes are superseded and the answer
// is reset
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.issued++
	if s.passCancel != nil {
		s.passCancel()
		s.passCancel = nil
	}
	s.state = State{Generation: s.issued}
	if s.onUpdate != nil {
		s.onUpdate(s.state)
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Generation returns the last issued generation
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issued
}

// Wait blocks until no pass is running
func (s *Session) Wait() {
	_ = s.WaitContext(context.Background())
}

// WaitContext blocks until no pass is running or ctx is done. Passes
// submitted while waiting extend the wait.
func (s *Session) WaitContext(ctx context.Context) error {
	for {
		s.mu.Lock()
		if s.running == 0 {
			s.mu.Unlock()
			return nil
		}
		idle := s.idle
		s.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close cancels all passes and waits for them. Later submissions are
// ignored.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.passes.Wait()
}
