package supervisor

import (
	"context"
	"time"

	"github.com/farmbot-labs/csvm/proc"
	"github.com/joeycumines/go-longpoll"
)

// AwaitManyConfig bounds AwaitMany's wait, mirroring this codebase's
// long-poll-with-partial-timeout idiom: wait for at least MinCount results
// (or ctx's deadline), then drain whatever else has arrived up to MaxCount,
// allowing PartialTimeout once the first result lands.
type AwaitManyConfig struct {
	MinCount       int
	MaxCount       int
	PartialTimeout time.Duration
}

func (c *AwaitManyConfig) withDefaults() *longpoll.ChannelConfig {
	cfg := &longpoll.ChannelConfig{}
	if c != nil {
		cfg.MinSize = c.MinCount
		cfg.MaxSize = c.MaxCount
		cfg.PartialTimeout = c.PartialTimeout
	}
	return cfg
}

// AwaitMany watches ids and returns as many terminal processes as it can
// gather before ctx is done or the configured maximum is reached. It
// composes the single-id Await's polling strategy over one goroutine per
// id, funneling results through longpoll.Channel for the partial-timeout
// behavior; it is a convenience, not a scheduling change, since every
// underlying id is still drained strictly by the existing tick loop.
func (s *Supervisor) AwaitMany(ctx context.Context, ids []int64, cfg *AwaitManyConfig) ([]proc.Process, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resultCh := make(chan proc.Process, len(ids))
	for _, id := range ids {
		id := id
		go func() {
			p, err := s.Await(ctx, id)
			if err != nil {
				return
			}
			select {
			case resultCh <- p:
			case <-ctx.Done():
			}
		}()
	}

	var out []proc.Process
	err := longpoll.Channel(ctx, cfg.withDefaults(), resultCh, func(p proc.Process) error {
		out = append(out, p)
		return nil
	})
	if err != nil && len(out) == 0 {
		return nil, err
	}
	return out, nil
}
