package supervisor

import (
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
)

const (
	// TickPeriod is the default interval between scheduler ticks.
	TickPeriod = 20 * time.Millisecond
	// AwaitPoll is the default sleep between await's observations of a
	// live (non-terminal) process.
	AwaitPoll = 2 * TickPeriod
	// DefaultPageID is the page id used for RPC submissions.
	DefaultPageID = -1
)

// config holds Supervisor construction options, in the functional-options
// style used throughout this codebase's configuration surfaces.
type config struct {
	tickPeriod    time.Duration
	awaitPoll     time.Duration
	logger        *logiface.Logger[logiface.Event]
	busyRates     map[time.Duration]int
	completionCfg *completionFeedConfig
}

// Option configures a Supervisor at construction time.
type Option func(*config)

func defaultConfig() config {
	return config{
		tickPeriod: TickPeriod,
		awaitPoll:  AwaitPoll,
		logger:     logiface.L.New(),
		busyRates: map[time.Duration]int{
			time.Second: 5,
		},
	}
}

// WithTickPeriod overrides the default 20ms tick interval.
func WithTickPeriod(d time.Duration) Option {
	return func(c *config) { c.tickPeriod = d }
}

// WithAwaitPoll overrides the default 2xTickPeriod await poll interval.
func WithAwaitPoll(d time.Duration) Option {
	return func(c *config) { c.awaitPoll = d }
}

// WithLogger configures the structured logger used for scheduler events. A
// nil logger is treated as the default no-op logger.
func WithLogger(l *logiface.Logger[logiface.Event]) Option {
	return func(c *config) {
		if l == nil {
			l = logiface.L.New()
		}
		c.logger = l
	}
}

// WithBusyNoticeRates configures the sliding-window limits applied to the
// advisory busy-rejection log line, keyed by request kind. See catrate.NewLimiter
// for the semantics of the rates map. A caller hammering queue/await during
// contention produces at most the configured number of Warning lines per
// window; the ErrBusy control flow itself is never throttled.
func WithBusyNoticeRates(rates map[time.Duration]int) Option {
	return func(c *config) { c.busyRates = rates }
}

// WithCompletionFeed configures the optional batched completion-notice feed
// described in SPEC_FULL.md §10.4. Subscriber is invoked with every batch of
// processes cleaned up by lookup since the last flush.
func WithCompletionFeed(subscriber func([]CompletedProcess), maxSize int, flushInterval time.Duration) Option {
	return func(c *config) {
		c.completionCfg = &completionFeedConfig{
			subscriber:    subscriber,
			maxSize:       maxSize,
			flushInterval: flushInterval,
		}
	}
}

// newBusyLimiter builds the rate limiter backing WithBusyNoticeRates, or nil
// if rates is empty (in which case busy notices are unthrottled).
func newBusyLimiter(rates map[time.Duration]int) *catrate.Limiter {
	if len(rates) == 0 {
		return nil
	}
	return catrate.NewLimiter(rates)
}
