package supervisor

import (
	"context"
	"errors"
	"time"

	"github.com/farmbot-labs/csvm/proc"
)

const labelArg = "label"

// RPCRequest decodes program, extracts its required label, and either takes
// the hyper path (for a program that is a single emergency_lock or
// emergency_unlock wrapped in an rpc_request) or queues and awaits it
// synchronously, invoking onComplete once with the outcome. When it returns
// an error before an outcome exists (decode, label, slice, queue or await
// failure), onComplete is not invoked.
func (s *Supervisor) RPCRequest(ctx context.Context, program map[string]any, io proc.IOCallback, onComplete func(label string, err error)) error {
	ast, err := s.decoder.Decode(program)
	if err != nil {
		return &ArgumentError{Op: "rpc_request", Reason: "decode failed", Cause: err}
	}
	label, ok := ast.Args[labelArg].(string)
	if !ok || label == "" {
		return &ArgumentError{Op: "rpc_request", Reason: "missing label"}
	}

	if hyper, ok := hyperRPC(ast); ok {
		var hyperErr error
		for {
			switch hyper {
			case proc.EmergencyLock:
				hyperErr = s.EmergencyLock()
			case proc.EmergencyUnlock:
				hyperErr = s.EmergencyUnlock()
			}
			if hyperErr != ErrBusy {
				break
			}
		}
		s.guardCallback("rpc_request.on_complete", func() { onComplete(label, hyperErr) })
		return hyperErr
	}

	heap, err := s.slicer.Slice(ast)
	if err != nil {
		return &ArgumentError{Op: "rpc_request", Reason: "slice failed", Cause: err}
	}

	id, err := s.retryQueue(heap, DefaultPageID, io)
	if err != nil {
		return err
	}

	p, err := s.Await(ctx, id)
	if err != nil {
		return err
	}

	var cbErr error
	if p.Status() == proc.StatusCrashed {
		cbErr = &CrashError{Reason: p.CrashReason(), Cause: errors.New(p.CrashReason())}
	}
	s.guardCallback("rpc_request.on_complete", func() { onComplete(label, cbErr) })
	return nil
}

// hyperRPC reports whether ast is an rpc_request wrapping a single
// emergency_lock or emergency_unlock body, per the AST contract in
// SPEC_FULL.md §6.
func hyperRPC(ast proc.AST) (proc.HyperSignal, bool) {
	if ast.Kind != proc.KindRPCRequest || len(ast.Body) != 1 {
		return 0, false
	}
	switch ast.Body[0].Kind {
	case proc.KindEmergencyLock:
		return proc.EmergencyLock, true
	case proc.KindEmergencyUnlock:
		return proc.EmergencyUnlock, true
	default:
		return 0, false
	}
}

// Sequence decodes and slices program, queues it under pageID, and spawns a
// background waiter that invokes onComplete once the process reaches a
// terminal state.
func (s *Supervisor) Sequence(ctx context.Context, program map[string]any, pageID int, io proc.IOCallback, onComplete func(error)) error {
	ast, err := s.decoder.Decode(program)
	if err != nil {
		return &ArgumentError{Op: "sequence", Reason: "decode failed", Cause: err}
	}
	heap, err := s.slicer.Slice(ast)
	if err != nil {
		return &ArgumentError{Op: "sequence", Reason: "slice failed", Cause: err}
	}
	id, err := s.retryQueue(heap, pageID, io)
	if err != nil {
		return err
	}
	go func() {
		p, err := s.Await(ctx, id)
		if err != nil {
			s.guardCallback("sequence.on_complete", func() { onComplete(err) })
			return
		}
		var cbErr error
		if p.Status() == proc.StatusCrashed {
			cbErr = &CrashError{Reason: p.CrashReason(), Cause: errors.New(p.CrashReason())}
		}
		s.guardCallback("sequence.on_complete", func() { onComplete(cbErr) })
	}()
	return nil
}

// Await polls Lookup for id until it reaches a terminal status, sleeping
// awaitPoll between observations of a live process. A busy rejection is
// retried immediately, without sleep: it signals tick contention, not a
// live-process wait. It returns an ArgumentError if id was never queued.
func (s *Supervisor) Await(ctx context.Context, id int64) (proc.Process, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		p, ok, err := s.Lookup(id)
		if err == ErrBusy {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &ArgumentError{Op: "await", Reason: "unknown job id"}
		}
		if p.Status().IsTerminal() {
			return p, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.awaitPoll):
		}
	}
}

// retryQueue is Queue with busy retried transparently, since queue callers
// per SPEC_FULL.md §4.4 must retry busy without backoff.
func (s *Supervisor) retryQueue(heap proc.Heap, page int, io proc.IOCallback) (int64, error) {
	for {
		id, err := s.Queue(heap, page, io)
		if err == ErrBusy {
			continue
		}
		return id, err
	}
}
