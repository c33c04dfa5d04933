// Package stepexec implements the step executor: the single point where the
// scheduler invokes the external interpreter, isolating the rest of the core
// from a misbehaving or panicking instruction.
package stepexec

import (
	"errors"
	"fmt"

	"github.com/farmbot-labs/csvm/proc"
)

// Executor invokes a proc.Stepper and converts any non-recoverable failure
// into a crashed process, so a single bad sequence can never collapse the
// scheduler.
type Executor struct {
	Stepper proc.Stepper
}

// Execute runs one step of p. It never panics and never returns an error:
// failures are folded into the returned process's status.
func (e *Executor) Execute(p proc.Process) proc.Process {
	next, err := e.callStep(p)
	if err == nil {
		return next
	}

	var partial *proc.PartialProgressError
	if errors.As(err, &partial) {
		// Recoverable: the interpreter carried forward whatever progress
		// was made before the error. Return it unchanged.
		return partial.Process
	}

	// Any other failure: convert to a terminal crash, without propagating.
	p.SetStatus(proc.StatusCrashed)
	p.SetCrashReason(err.Error())
	return p
}

// callStep isolates a panicking Stepper, converting it into an error so
// Execute has a single failure path to handle.
func (e *Executor) callStep(p proc.Process) (next proc.Process, err error) {
	defer func() {
		if r := recover(); r != nil {
			next = nil
			err = fmt.Errorf("stepexec: step panicked: %v", r)
		}
	}()
	return e.Stepper.Step(p)
}
