package supervisor

import (
	"context"
	"time"

	"github.com/farmbot-labs/csvm/proc"
	"github.com/joeycumines/go-microbatch"
)

// CompletedProcess is one notification pushed through the completion feed:
// a terminal process as observed at cleanup time, alongside the job id it
// was queued under (the process's own Ref need not equal the table's job
// id, since the former is interpreter-issued and the latter is table-local).
type CompletedProcess struct {
	JobID   int64
	Process proc.Process
}

type completionFeedConfig struct {
	subscriber    func([]CompletedProcess)
	maxSize       int
	flushInterval time.Duration
}

// completionFeed batches terminal-process notifications before delivering
// them to a subscriber, grounded on this codebase's batch-processor idiom:
// a bounded batch size and flush interval, single-concurrency by default
// since the subscriber callback is user code run under no particular
// ordering guarantee beyond "per batch".
type completionFeed struct {
	sub     func([]CompletedProcess)
	batcher *microbatch.Batcher[CompletedProcess]
}

func newCompletionFeed(cfg *completionFeedConfig) *completionFeed {
	f := &completionFeed{sub: cfg.subscriber}
	f.batcher = microbatch.NewBatcher(&microbatch.BatcherConfig{
		MaxSize:        cfg.maxSize,
		FlushInterval:  cfg.flushInterval,
		MaxConcurrency: 1,
	}, f.process)
	return f
}

func (f *completionFeed) process(_ context.Context, jobs []CompletedProcess) error {
	f.sub(jobs)
	return nil
}

// push enqueues a completed process for batched delivery. It never blocks
// the tick/request goroutine for longer than handing the job to the
// batcher's own channel; submission failures (e.g. post-shutdown) are
// dropped, since the feed is a best-effort convenience, not a guarantee.
func (f *completionFeed) push(p CompletedProcess) {
	_, _ = f.batcher.Submit(context.Background(), p)
}

func (f *completionFeed) close() {
	_ = f.batcher.Close()
}
