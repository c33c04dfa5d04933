package interlock

import "github.com/farmbot-labs/csvm/proc"

// State holds the interlock's two pieces of mutable state: which process (if
// any) owns the firmware, and whether the system is emergency-locked. It is
// not safe for concurrent use; the Supervisor serializes all access through
// its single request-handling goroutine.
type State struct {
	fwProc *proc.Ref
	locked bool
}

// HasOwner reports whether any process currently holds the firmware.
func (s *State) HasOwner() bool { return s.fwProc != nil }

// Owner returns the firmware owner's ref, if any.
func (s *State) Owner() (ref proc.Ref, ok bool) {
	if s.fwProc == nil {
		return proc.Ref{}, false
	}
	return *s.fwProc, true
}

// OwnsOrUnowned reports Bits.OwnsOrUnowned for the given process ref: true
// if ref owns the firmware, or if no process does.
func (s *State) OwnsOrUnowned(ref proc.Ref) bool {
	return s.fwProc == nil || s.fwProc.Equal(ref)
}

// AcquireFirmware grants firmware ownership to ref. Callers must only do
// this when HasOwner reports false (acquiring over an existing owner would
// violate single-owner firmware exclusivity).
func (s *State) AcquireFirmware(ref proc.Ref) {
	r := ref
	s.fwProc = &r
}

// ReleaseFirmware clears firmware ownership if and only if ref currently
// holds it. It must only be called on terminal-state cleanup (lookup),
// never on a merely-waiting process: releasing early would let another
// process interleave firmware-touching instructions mid-sequence.
func (s *State) ReleaseFirmware(ref proc.Ref) {
	if s.fwProc != nil && s.fwProc.Equal(ref) {
		s.fwProc = nil
	}
}

// Locked reports whether the system is in emergency-lock.
func (s *State) Locked() bool { return s.locked }

// Lock transitions to emergency-lock. Idempotent.
func (s *State) Lock() { s.locked = true }

// Unlock clears emergency-lock. It does not alter firmware ownership.
func (s *State) Unlock() { s.locked = false }
