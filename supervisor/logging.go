package supervisor

import (
	"io"

	"github.com/farmbot-labs/csvm/interlock"
	"github.com/farmbot-labs/csvm/proc"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// NewStumpyLogger builds the production logging backend: a zero-allocation
// JSON event writer at the given level, suitable for WithLogger. Tests and
// other non-production callers are expected to pass their own logger, or
// rely on the default no-op logger.
func NewStumpyLogger(w io.Writer, level logiface.Level) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(level),
	).Logger()
}

// logTickStep records a tick's outcome at Debug level: the job id handled,
// its instruction kind, the four predicate bits, and what happened.
func (s *Supervisor) logTickStep(outcome string, id int64, kind proc.InstructionKind, b interlock.Bits) {
	s.logger.Debug().
		Str("outcome", outcome).
		Int64("job_id", id).
		Str("kind", string(kind)).
		Interface("bits", b).
		Log("tick")
}

// logQueue records process admission at Info level.
func (s *Supervisor) logQueue(id int64, page int) {
	s.logger.Info().
		Int64("job_id", id).
		Int("page", page).
		Log("queue")
}

// logLookupEvict records terminal cleanup at Info level.
func (s *Supervisor) logLookupEvict(id int64, status proc.Status) {
	s.logger.Info().
		Int64("job_id", id).
		Str("status", status.String()).
		Log("lookup evicted terminal process")
}

// logCrash records a step crash at Error level.
func (s *Supervisor) logCrash(id int64, reason string) {
	s.logger.Err().
		Int64("job_id", id).
		Str("reason", reason).
		Log("step crashed")
}

// logHyper records a hyper-call acknowledgement at Info level.
func (s *Supervisor) logHyper(signal proc.HyperSignal) {
	s.logger.Info().
		Str("signal", signal.String()).
		Log("hyper call acknowledged")
}

// logBusyNotice records a busy-rejection at Warning level, subject to the
// busy-notice rate limiter.
func (s *Supervisor) logBusyNotice(op string) {
	if !s.noticeAllowed(op) {
		return
	}
	s.logger.Warning().
		Str("op", op).
		Log("rejected: busy")
}
