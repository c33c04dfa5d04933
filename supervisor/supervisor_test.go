package supervisor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/farmbot-labs/csvm/internal/testvm"
	"github.com/farmbot-labs/csvm/proc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTick = 5 * time.Millisecond

func newTestSupervisor(t *testing.T, hyper *testvm.HyperIO) *Supervisor {
	t.Helper()
	sup, err := New(
		testvm.Decoder{},
		testvm.Slicer{},
		&testvm.Factory{FailAt: -1},
		testvm.Stepper{},
		hyper.Callback,
		WithTickPeriod(testTick),
		WithAwaitPoll(2*testTick),
	)
	require.NoError(t, err)
	t.Cleanup(sup.Stop)
	return sup
}

func queueRetry(t *testing.T, sup *Supervisor, heap proc.Heap, page int) int64 {
	t.Helper()
	for {
		id, err := sup.Queue(heap, page, nil)
		if err == ErrBusy {
			continue
		}
		require.NoError(t, err)
		return id
	}
}

func awaitWithTimeout(t *testing.T, sup *Supervisor, id int64, timeout time.Duration) proc.Process {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	p, err := sup.Await(ctx, id)
	require.NoError(t, err)
	return p
}

// Scenario 6 (spec §8): three sequences with no firmware contention all run
// to done. The strict per-tick rotation itself is checked at the table level
// by proctable's TestFairRotationOverNTicks.
func TestRoundRobinFairness(t *testing.T) {
	hyper := &testvm.HyperIO{}
	sup := newTestSupervisor(t, hyper)

	kinds := []proc.InstructionKind{"noop", "noop", "noop"}
	ids := make([]int64, 3)
	for i := range ids {
		ids[i] = queueRetry(t, sup, kinds, 0)
	}

	for _, id := range ids {
		p := awaitWithTimeout(t, sup, id, 2*time.Second)
		assert.Equal(t, proc.StatusDone, p.Status())
	}
}

// Scenario 4 (spec §8): a crashing sequence transitions to crashed without
// affecting a sibling process (invariant 6).
func TestCrashIsolation(t *testing.T) {
	hyper := &testvm.HyperIO{}
	sup := newTestSupervisor(t, hyper)

	// A process whose I/O callback always fails crashes on its first step,
	// since testvm.Stepper treats a failing io call as a step failure.
	failingIO := func(proc.AST) (any, error) { return nil, errForcedIOFailure }
	crashHeap := []proc.InstructionKind{"noop"}
	crashID := queueRetryIO(t, sup, crashHeap, failingIO)

	liveHeap := []proc.InstructionKind{"noop", "noop"}
	liveID := queueRetry(t, sup, liveHeap, 0)

	crashed := awaitWithTimeout(t, sup, crashID, 2*time.Second)
	assert.Equal(t, proc.StatusCrashed, crashed.Status())
	assert.NotEmpty(t, crashed.CrashReason())

	live := awaitWithTimeout(t, sup, liveID, 2*time.Second)
	assert.Equal(t, proc.StatusDone, live.Status())
}

var errForcedIOFailure = &ArgumentError{Op: "test", Reason: "forced io failure"}

func queueRetryIO(t *testing.T, sup *Supervisor, heap proc.Heap, io proc.IOCallback) int64 {
	t.Helper()
	for {
		id, err := sup.Queue(heap, 0, io)
		if err == ErrBusy {
			continue
		}
		require.NoError(t, err)
		return id
	}
}

// Scenario 1 (spec §8): an RPC wrapping emergency_lock takes the hyper path:
// on_complete fires with the label and no error, and the hyper callback is
// invoked exactly once, with EmergencyLock.
func TestRPCEmergencyLockHyperPath(t *testing.T) {
	hyper := &testvm.HyperIO{}
	sup := newTestSupervisor(t, hyper)

	program := map[string]any{
		"kind":  string(proc.KindRPCRequest),
		"label": "lock-1",
		"body": []map[string]any{
			{"kind": "emergency_lock"},
		},
	}

	var wg sync.WaitGroup
	wg.Add(1)
	var gotLabel string
	var gotErr error
	err := sup.RPCRequest(context.Background(), program, nil, func(label string, cbErr error) {
		gotLabel = label
		gotErr = cbErr
		wg.Done()
	})
	require.NoError(t, err)
	wg.Wait()

	assert.Equal(t, "lock-1", gotLabel)
	assert.NoError(t, gotErr)
	assert.Equal(t, []proc.HyperSignal{proc.EmergencyLock}, hyper.Calls)
}

// Scenario 3 (spec §8): emergency_lock pauses a live process whose current
// kind is not allowed while locked; emergency_unlock lets it resume.
func TestEmergencyLockPausesAndUnlockResumes(t *testing.T) {
	hyper := &testvm.HyperIO{}
	sup := newTestSupervisor(t, hyper)

	heap := []proc.InstructionKind{"move_absolute", "move_absolute"}
	id := queueRetry(t, sup, heap, 0)

	require.NoError(t, sup.EmergencyLock())
	time.Sleep(20 * testTick)

	p, ok, err := sup.Lookup(id)
	for err == ErrBusy {
		p, ok, err = sup.Lookup(id)
	}
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, proc.StatusOK, p.Status())

	require.NoError(t, sup.EmergencyUnlock())
	done := awaitWithTimeout(t, sup, id, 2*time.Second)
	assert.Equal(t, proc.StatusDone, done.Status())
}

// Scenario 5 (spec §8): await on an id that was never queued raises an
// argument error.
func TestAwaitUnknownIDIsArgumentError(t *testing.T) {
	hyper := &testvm.HyperIO{}
	sup := newTestSupervisor(t, hyper)

	_, err := sup.Await(context.Background(), 999)
	require.Error(t, err)
	var argErr *ArgumentError
	assert.ErrorAs(t, err, &argErr)
}

// Invariant 1 (spec §8): once lookup observes a terminal status, a
// subsequent lookup reports not_found.
func TestLookupRemovesTerminalProcessesOnce(t *testing.T) {
	hyper := &testvm.HyperIO{}
	sup := newTestSupervisor(t, hyper)

	heap := []proc.InstructionKind{"noop"}
	id := queueRetry(t, sup, heap, 0)
	_ = awaitWithTimeout(t, sup, id, 2*time.Second)

	_, ok, err := sup.Lookup(id)
	for err == ErrBusy {
		_, ok, err = sup.Lookup(id)
	}
	require.NoError(t, err)
	assert.False(t, ok)
}

// Scenario 2 (spec §8): two firmware-needing sequences contend; the first
// queued acquires the firmware and holds it until terminal, denying the
// second until then.
func TestFirmwareContentionSerializesAcquisition(t *testing.T) {
	hyper := &testvm.HyperIO{}
	sup := newTestSupervisor(t, hyper)

	aHeap := []proc.InstructionKind{"move_absolute", "move_absolute", "move_absolute"}
	bHeap := []proc.InstructionKind{"write_pin"}

	aID := queueRetry(t, sup, aHeap, 0)
	bID := queueRetry(t, sup, bHeap, 0)

	aDone := awaitWithTimeout(t, sup, aID, 2*time.Second)
	assert.Equal(t, proc.StatusDone, aDone.Status())

	bDone := awaitWithTimeout(t, sup, bID, 2*time.Second)
	assert.Equal(t, proc.StatusDone, bDone.Status())
}

func TestAwaitManyGathersMultiple(t *testing.T) {
	hyper := &testvm.HyperIO{}
	sup := newTestSupervisor(t, hyper)

	var ids []int64
	for i := 0; i < 3; i++ {
		ids = append(ids, queueRetry(t, sup, []proc.InstructionKind{"noop"}, 0))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	got, err := sup.AwaitMany(ctx, ids, &AwaitManyConfig{MinCount: 3, MaxCount: 3, PartialTimeout: 200 * time.Millisecond})
	require.NoError(t, err)
	assert.Len(t, got, 3)
	for _, p := range got {
		assert.Equal(t, proc.StatusDone, p.Status())
	}
}
