package supervisor

import (
	"github.com/farmbot-labs/csvm/proc"
)

// Queue constructs a new farm process bound to io, inserts it into the
// process table, and returns its job id. It returns ErrBusy while a tick is
// in progress.
func (s *Supervisor) Queue(heap proc.Heap, page int, io proc.IOCallback) (int64, error) {
	val, err := s.do("queue", func() (any, error) {
		p, err := s.factory.New(io, page, heap)
		if err != nil {
			return nil, &ArgumentError{Op: "queue", Reason: "construction failed", Cause: err}
		}
		id := s.table.Push(p)
		s.logQueue(id, page)
		return id, nil
	})
	if err != nil {
		return 0, err
	}
	return val.(int64), nil
}

// Lookup reads the entry named by id. If its status is terminal, the entry
// is removed from the table, and if it held the firmware, that ownership is
// released. It returns (process, true, nil) whether or not the entry was
// terminal, (nil, false, nil) if no such id exists, and (nil, false,
// ErrBusy) while a tick is in progress.
func (s *Supervisor) Lookup(id int64) (proc.Process, bool, error) {
	type lookupResult struct {
		p  proc.Process
		ok bool
	}
	val, err := s.do("lookup", func() (any, error) {
		p, ok := s.table.At(id)
		if !ok {
			return lookupResult{}, nil
		}
		if p.Status().IsTerminal() {
			s.table.Remove(id)
			s.il.ReleaseFirmware(p.Ref())
			s.logLookupEvict(id, p.Status())
			if s.completion != nil {
				s.completion.push(CompletedProcess{JobID: id, Process: p})
			}
		}
		return lookupResult{p: p, ok: true}, nil
	})
	if err != nil {
		return nil, false, err
	}
	r := val.(lookupResult)
	return r.p, r.ok, nil
}

// EmergencyLock invokes the hyper I/O callback with EmergencyLock and sets
// the interlock's emergency-lock flag. It enqueues no process.
func (s *Supervisor) EmergencyLock() error {
	_, err := s.do("emergency_lock", func() (any, error) {
		if _, err := s.hyperIO(proc.EmergencyLock); err != nil {
			return nil, err
		}
		s.il.Lock()
		s.logHyper(proc.EmergencyLock)
		return nil, nil
	})
	return err
}

// EmergencyUnlock invokes the hyper I/O callback with EmergencyUnlock and
// clears the interlock's emergency-lock flag. Firmware ownership is left
// unaffected.
func (s *Supervisor) EmergencyUnlock() error {
	_, err := s.do("emergency_unlock", func() (any, error) {
		if _, err := s.hyperIO(proc.EmergencyUnlock); err != nil {
			return nil, err
		}
		s.il.Unlock()
		s.logHyper(proc.EmergencyUnlock)
		return nil, nil
	})
	return err
}
