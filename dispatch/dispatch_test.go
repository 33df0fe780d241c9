package dispatch

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortcut-panel/clock"
)

type recordingTerminal struct {
	mu      sync.Mutex
	clock   clock.Clock
	start   time.Time
	events  []string
	sentAt  []time.Duration
	failAt  int
	failErr error
}

func (r *recordingTerminal) Show() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "show")
}

func (r *recordingTerminal) SendLine(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil && len(r.sentAt) == r.failAt {
		return r.failErr
	}
	r.events = append(r.events, text)
	r.sentAt = append(r.sentAt, r.clock.Now().Sub(r.start))
	return nil
}

func (r *recordingTerminal) sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e != "show" {
			out = append(out, e)
		}
	}
	return out
}

func newHarness() (*clock.Manual, *recordingTerminal, *Dispatcher) {
	c := clock.NewManual(time.Unix(1700000000, 0))
	term := &recordingTerminal{clock: c, start: c.Now()}
	return c, term, New(WithClock(c))
}

func TestStartSendsFirstCommandSynchronously(t *testing.T) {
	c, term, d := newHarness()

	run := d.Start(term, []string{"echo a", "echo b", "echo c"})

	assert.Equal(t, []string{"echo a"}, term.sent())
	assert.Equal(t, 1, run.Sent())
	assert.Equal(t, 1, c.Pending(), "exactly one continuation should be queued")
	select {
	case <-run.Done():
		t.Fatal("run finished before remaining commands were sent")
	default:
	}
}

func TestStartPacesRemainingCommandsInOrder(t *testing.T) {
	c, term, d := newHarness()
	run := d.Start(term, []string{"echo a", "echo b", "echo c"})

	c.Advance(499 * time.Millisecond)
	assert.Equal(t, []string{"echo a"}, term.sent())

	c.Advance(time.Millisecond)
	assert.Equal(t, []string{"echo a", "echo b"}, term.sent())

	// The next send waits the next delay plus the show delay.
	c.Advance(1499 * time.Millisecond)
	assert.Equal(t, []string{"echo a", "echo b"}, term.sent())

	c.Advance(time.Millisecond)
	assert.Equal(t, []string{"echo a", "echo b", "echo c"}, term.sent())

	<-run.Done()
	require.NoError(t, run.Err())
	assert.Equal(t, []time.Duration{0, 500 * time.Millisecond, 2000 * time.Millisecond}, term.sentAt)
	assert.Equal(t, []string{"show", "echo a", "show", "echo b", "show", "echo c"}, term.events)
}

func TestStartNoDuplicateSends(t *testing.T) {
	c, term, d := newHarness()
	d.Start(term, []string{"a", "b"})

	c.Advance(time.Hour)
	assert.Equal(t, []string{"a", "b"}, term.sent())
	assert.Zero(t, c.Pending())
}

func TestStartSingleCommandFinishesImmediately(t *testing.T) {
	c, term, d := newHarness()
	run := d.Start(term, []string{"make"})

	select {
	case <-run.Done():
	default:
		t.Fatal("single command run should be done on return")
	}
	assert.Equal(t, []string{"make"}, term.sent())
	assert.Zero(t, c.Pending())
}

func TestStartEmptyCommandsOnlyShows(t *testing.T) {
	_, term, d := newHarness()
	run := d.Start(term, nil)

	select {
	case <-run.Done():
	default:
		t.Fatal("empty run should be done on return")
	}
	assert.Equal(t, []string{"show"}, term.events)
	assert.Empty(t, term.sent())
	assert.Zero(t, run.Sent())
	assert.NoError(t, run.Err())
}

func TestStartStopsWhenTerminalRejectsSend(t *testing.T) {
	c, term, d := newHarness()
	closed := errors.New("terminal closed")
	term.failAt = 1
	term.failErr = closed

	run := d.Start(term, []string{"a", "b", "c"})
	c.Advance(time.Hour)

	<-run.Done()
	assert.ErrorIs(t, run.Err(), ErrSendFailed)
	assert.ErrorIs(t, run.Err(), closed)
	assert.Equal(t, []string{"a"}, term.sent())
	assert.Zero(t, c.Pending())
}

func TestInterleavedRunsKeepTheirOwnOrder(t *testing.T) {
	c := clock.NewManual(time.Unix(0, 0))
	d := New(WithClock(c))
	t1 := &recordingTerminal{clock: c, start: c.Now()}
	t2 := &recordingTerminal{clock: c, start: c.Now()}

	d.Start(t1, []string{"1a", "1b", "1c"})
	c.Advance(200 * time.Millisecond)
	d.Start(t2, []string{"2a", "2b"})
	c.Advance(time.Hour)

	assert.Equal(t, []string{"1a", "1b", "1c"}, t1.sent())
	assert.Equal(t, []string{"2a", "2b"}, t2.sent())
}

func TestPlanUsesConfiguredDelays(t *testing.T) {
	d := New(WithDelays(10*time.Millisecond, 20*time.Millisecond))
	steps := d.Plan([]string{"a", "b", "c"})

	want := []Step{
		{Kind: StepShow, Index: 0},
		{Kind: StepSend, Index: 0, Command: "a"},
		{Kind: StepShow, Index: 1},
		{Delay: 10 * time.Millisecond, Kind: StepSend, Index: 1, Command: "b"},
		{Delay: 20 * time.Millisecond, Kind: StepShow, Index: 2},
		{Delay: 10 * time.Millisecond, Kind: StepSend, Index: 2, Command: "c"},
	}
	assert.Equal(t, want, steps)
	assert.Equal(t, []Step{{Kind: StepShow, Index: 0}}, d.Plan(nil))
}

func TestRealClockRun(t *testing.T) {
	term := &recordingTerminal{clock: clock.Real(), start: time.Now()}
	d := New(WithDelays(time.Millisecond, time.Millisecond))

	run := d.Start(term, []string{"a", "b", "c"})
	select {
	case <-run.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("run did not finish")
	}
	assert.Equal(t, []string{"a", "b", "c"}, term.sent())
}
