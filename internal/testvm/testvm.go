// Package testvm is a minimal stand-in for the AST decoder, slicer, and
// interpreter collaborators described in SPEC_FULL.md §6, used by this
// module's own tests. It is not part of the scheduler core.
package testvm

import (
	"fmt"
	"sync/atomic"

	"github.com/farmbot-labs/csvm/proc"
)

// Process is a test-double farm process: a flat list of instruction kinds
// stepped one at a time, with an optional forced failure at a given index.
type Process struct {
	ref         proc.Ref
	status      proc.Status
	crashReason string

	program  []proc.InstructionKind
	pc       int
	io       proc.IOCallback
	failAt   int
	failWith error
}

func (p *Process) Ref() proc.Ref                { return p.ref }
func (p *Process) Status() proc.Status          { return p.status }
func (p *Process) CrashReason() string          { return p.crashReason }
func (p *Process) SetStatus(s proc.Status)      { p.status = s }
func (p *Process) SetCrashReason(reason string) { p.crashReason = reason }

// PCKind returns the current instruction's kind, or an empty kind once the
// program is exhausted (status transitions to done before this matters).
func (p *Process) PCKind() proc.InstructionKind {
	if p.pc >= len(p.program) {
		return ""
	}
	return p.program[p.pc]
}

var _ proc.Process = (*Process)(nil)

var refCounter int64

// NewRef issues a fresh, unique process ref, mimicking the interpreter's
// process-construction identity assignment.
func NewRef() proc.Ref {
	return proc.NewRef(atomic.AddInt64(&refCounter, 1))
}

// Factory constructs Process values. The program stepped is the queued
// heap, if it is a []proc.InstructionKind (as produced by Slicer.Slice);
// otherwise it falls back to Program, for callers that queue directly
// without going through Decoder/Slicer.
type Factory struct {
	Program  []proc.InstructionKind
	FailAt   int // -1 disables forced failure
	FailWith error
}

func (f *Factory) New(io proc.IOCallback, _ int, heap proc.Heap) (proc.Process, error) {
	program := f.Program
	if hp, ok := heap.([]proc.InstructionKind); ok {
		program = hp
	}
	return &Process{
		ref:      NewRef(),
		status:   proc.StatusOK,
		program:  program,
		io:       io,
		failAt:   f.FailAt,
		failWith: f.FailWith,
	}, nil
}

var _ proc.Factory = (*Factory)(nil)

// Stepper advances a testvm.Process by one instruction. At the forced-failure
// index it returns an error without stepping; otherwise it invokes the I/O
// callback (if any) with a synthetic AST, returning the callback's error if
// it fails, then advances pc and marks the process done (program exhausted)
// or StatusOK. Turning a returned error into a crash is the step executor's
// job.
type Stepper struct{}

func (Stepper) Step(p proc.Process) (proc.Process, error) {
	tp, ok := p.(*Process)
	if !ok {
		return nil, fmt.Errorf("testvm: unexpected process type %T", p)
	}

	if tp.pc == tp.failAt {
		return nil, fmt.Errorf("testvm: forced failure at pc %d: %w", tp.pc, tp.failWith)
	}

	kind := tp.PCKind()
	if tp.io != nil {
		if _, err := tp.io(proc.AST{Kind: kind}); err != nil {
			return nil, err
		}
	}

	tp.pc++
	if tp.pc >= len(tp.program) {
		tp.status = proc.StatusDone
	} else {
		tp.status = proc.StatusOK
	}
	return tp, nil
}

var _ proc.Stepper = (*Stepper)(nil)

// Decoder turns {"kind": ..., "label": ..., "body": [...]} maps into an AST,
// recursively decoding body entries.
type Decoder struct{}

func (Decoder) Decode(m map[string]any) (proc.AST, error) {
	kindVal, _ := m["kind"].(string)
	ast := proc.AST{Kind: proc.InstructionKind(kindVal), Args: map[string]any{}}
	for k, v := range m {
		if k == "kind" || k == "body" {
			continue
		}
		ast.Args[k] = v
	}
	if body, ok := m["body"].([]map[string]any); ok {
		for _, child := range body {
			c, err := (Decoder{}).Decode(child)
			if err != nil {
				return proc.AST{}, err
			}
			ast.Body = append(ast.Body, c)
		}
	}
	return ast, nil
}

var _ proc.Decoder = (*Decoder)(nil)

// Slicer turns an AST's body into a flat instruction-kind program, the Heap
// representation this test VM's Factory/Stepper pair understands.
type Slicer struct{}

func (Slicer) Slice(ast proc.AST) (proc.Heap, error) {
	kinds := make([]proc.InstructionKind, 0, len(ast.Body))
	for _, child := range ast.Body {
		kinds = append(kinds, child.Kind)
	}
	return kinds, nil
}

var _ proc.Slicer = (*Slicer)(nil)

// HyperIO records invocations of the hyper I/O callback; tests assert
// against Calls.
type HyperIO struct {
	Calls []proc.HyperSignal
}

func (h *HyperIO) Callback(signal proc.HyperSignal) (any, error) {
	h.Calls = append(h.Calls, signal)
	return nil, nil
}
