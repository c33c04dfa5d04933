// Package supervisor implements the Supervisor (request port), the tick
// loop, and the submission API: the single serialized owner of the process
// table and interlock state.
package supervisor

import (
	"time"

	"github.com/farmbot-labs/csvm/interlock"
	"github.com/farmbot-labs/csvm/proc"
	"github.com/farmbot-labs/csvm/proctable"
	"github.com/farmbot-labs/csvm/stepexec"
	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
)

// call is one request handed to the Supervisor's single owning goroutine.
// fn runs on that goroutine with exclusive access to table and il; reply
// carries its result back to the submitter.
type call struct {
	fn    func() (any, error)
	reply chan result
}

type result struct {
	val any
	err error
}

// Supervisor is the scheduler core: a process table, interlock state, and a
// tick loop, all owned exclusively by one goroutine started by New. Every
// exported method is safe for concurrent use; none of them touch mutable
// state directly, they only dispatch onto that goroutine via do.
type Supervisor struct {
	table    *proctable.Table[proc.Process]
	il       interlock.State
	executor *stepexec.Executor
	factory  proc.Factory
	decoder  proc.Decoder
	slicer   proc.Slicer
	hyperIO  proc.HyperIOCallback

	logger      *logiface.Logger[logiface.Event]
	tickPeriod  time.Duration
	awaitPoll   time.Duration
	busyLimiter *catrate.Limiter
	completion  *completionFeed

	reqCh  chan call
	stopCh chan struct{}
	doneCh chan struct{}
}

// New constructs and starts a Supervisor. decoder, slicer, factory, stepper,
// and hyperIO are the external collaborators described in SPEC_FULL.md §6;
// all five must be non-nil.
func New(decoder proc.Decoder, slicer proc.Slicer, factory proc.Factory, stepper proc.Stepper, hyperIO proc.HyperIOCallback, opts ...Option) (*Supervisor, error) {
	switch {
	case decoder == nil:
		return nil, &ArgumentError{Op: "New", Reason: "decoder must not be nil"}
	case slicer == nil:
		return nil, &ArgumentError{Op: "New", Reason: "slicer must not be nil"}
	case factory == nil:
		return nil, &ArgumentError{Op: "New", Reason: "factory must not be nil"}
	case stepper == nil:
		return nil, &ArgumentError{Op: "New", Reason: "stepper must not be nil"}
	case hyperIO == nil:
		return nil, &ArgumentError{Op: "New", Reason: "hyperIO must not be nil"}
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Supervisor{
		table:       proctable.New[proc.Process](),
		executor:    &stepexec.Executor{Stepper: stepper},
		factory:     factory,
		decoder:     decoder,
		slicer:      slicer,
		hyperIO:     hyperIO,
		logger:      cfg.logger,
		tickPeriod:  cfg.tickPeriod,
		awaitPoll:   cfg.awaitPoll,
		busyLimiter: newBusyLimiter(cfg.busyRates),
		reqCh:       make(chan call),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
	if cfg.completionCfg != nil {
		s.completion = newCompletionFeed(cfg.completionCfg)
	}

	go s.run()
	return s, nil
}

// Stop halts the tick loop and request handler. Outstanding sequences are
// abandoned in place; Stop does not wait for them to terminate.
func (s *Supervisor) Stop() {
	close(s.stopCh)
	<-s.doneCh
	if s.completion != nil {
		s.completion.close()
	}
}

// do dispatches fn onto the Supervisor's owning goroutine and blocks for its
// result, unless the goroutine is not waiting in its select right now
// (it is inside a tick, or still handling another request): in that case
// the non-blocking send below has no ready receiver and fn is rejected
// immediately with ErrBusy.
func (s *Supervisor) do(op string, fn func() (any, error)) (any, error) {
	c := call{fn: fn, reply: make(chan result, 1)}
	select {
	case s.reqCh <- c:
	default:
		s.logBusyNotice(op)
		return nil, ErrBusy
	}
	r := <-c.reply
	return r.val, r.err
}

// run is the Supervisor's single owning goroutine: every read and write of
// table and il happens here, and only here.
func (s *Supervisor) run() {
	defer close(s.doneCh)
	ticker := time.NewTicker(s.tickPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case c := <-s.reqCh:
			val, err := c.fn()
			c.reply <- result{val: val, err: err}
		case <-ticker.C:
			s.runTick()
		}
	}
}
