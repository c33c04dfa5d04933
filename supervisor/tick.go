package supervisor

import (
	"github.com/farmbot-labs/csvm/interlock"
	"github.com/farmbot-labs/csvm/proc"
)

// runTick runs one tick: select the cursor entry, apply the interlock
// predicate, step at most one process, then rotate. It always runs on the
// Supervisor's owning goroutine, invoked directly from run's select loop
// (never through do), so it is never itself subject to the busy protocol.
func (s *Supervisor) runTick() {
	p, ok := s.table.Current()
	if !ok {
		s.table.Rotate()
		return
	}

	if p.Status().IsTerminal() {
		// Cleanup is deferred to lookup; leave the entry in place.
		s.logTickStep("terminal", s.table.CursorID(), p.PCKind(), interlock.Bits{})
		s.table.Rotate()
		return
	}

	kind := p.PCKind()
	ref := p.Ref()
	bits := interlock.Bits{
		AllowedWhenLocked: proc.AllowedWhenLocked(kind),
		NeedsFirmware:     proc.NeedsFirmware(kind),
		OwnsOrUnowned:     s.il.OwnsOrUnowned(ref),
		Locked:            s.il.Locked(),
	}

	if !interlock.Permit(bits) {
		s.logTickStep("denied", s.table.CursorID(), kind, bits)
		s.table.Rotate()
		return
	}

	if bits.NeedsFirmware && !s.il.HasOwner() {
		s.il.AcquireFirmware(ref)
	}

	next := s.executor.Execute(p)
	if next.Status() == proc.StatusCrashed {
		s.logCrash(s.table.CursorID(), next.CrashReason())
	}
	s.logTickStep("stepped", s.table.CursorID(), kind, bits)
	s.table.UpdateCurrent(func(proc.Process) proc.Process { return next })
	s.table.Rotate()
}
