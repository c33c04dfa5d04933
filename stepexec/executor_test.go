package stepexec

import (
	"errors"
	"testing"

	"github.com/farmbot-labs/csvm/proc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcess struct {
	ref    proc.Ref
	status proc.Status
	reason string
}

func (p *fakeProcess) Ref() proc.Ref                { return p.ref }
func (p *fakeProcess) Status() proc.Status          { return p.status }
func (p *fakeProcess) CrashReason() string          { return p.reason }
func (p *fakeProcess) PCKind() proc.InstructionKind { return "noop" }
func (p *fakeProcess) SetStatus(s proc.Status)      { p.status = s }
func (p *fakeProcess) SetCrashReason(r string)       { p.reason = r }

type stubStepper struct {
	next proc.Process
	err  error
	panicWith any
}

func (s stubStepper) Step(p proc.Process) (proc.Process, error) {
	if s.panicWith != nil {
		panic(s.panicWith)
	}
	return s.next, s.err
}

func TestExecuteSuccess(t *testing.T) {
	p := &fakeProcess{ref: proc.NewRef(1), status: proc.StatusOK}
	next := &fakeProcess{ref: p.ref, status: proc.StatusDone}
	e := &Executor{Stepper: stubStepper{next: next}}

	got := e.Execute(p)
	assert.Equal(t, proc.StatusDone, got.Status())
}

func TestExecuteConvertsFailureToCrashed(t *testing.T) {
	p := &fakeProcess{ref: proc.NewRef(1), status: proc.StatusOK}
	e := &Executor{Stepper: stubStepper{err: errors.New("boom")}}

	got := e.Execute(p)
	require.Equal(t, proc.StatusCrashed, got.Status())
	assert.Equal(t, "boom", got.CrashReason())
}

func TestExecuteConvertsPanicToCrashed(t *testing.T) {
	p := &fakeProcess{ref: proc.NewRef(1), status: proc.StatusOK}
	e := &Executor{Stepper: stubStepper{panicWith: "kaboom"}}

	got := e.Execute(p)
	require.Equal(t, proc.StatusCrashed, got.Status())
	assert.Contains(t, got.CrashReason(), "kaboom")
}

func TestExecutePartialProgressReturnsCarriedProcess(t *testing.T) {
	p := &fakeProcess{ref: proc.NewRef(1), status: proc.StatusOK}
	carried := &fakeProcess{ref: p.ref, status: proc.StatusWaiting}
	e := &Executor{Stepper: stubStepper{err: &proc.PartialProgressError{Process: carried, Cause: errors.New("blocked")}}}

	got := e.Execute(p)
	assert.Same(t, carried, got)
	assert.Equal(t, proc.StatusWaiting, got.Status())
}
