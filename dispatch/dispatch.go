// Package dispatch replays a command sequence into a terminal one line at a
// time with fixed pacing.
//
// The pacing is a heuristic: the terminal gives no signal when a shell
// command finishes, so each send simply waits a fixed delay after the
// previous one. Sends never overlap and never leave list order.
package dispatch

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"shortcut-panel/clock"
	"shortcut-panel/logging"
)

const (
	// DefaultShowDelay is the settle time between bringing the terminal to
	// the foreground and sending the next command.
	DefaultShowDelay = 500 * time.Millisecond
	// DefaultNextDelay is the wait after a send before the next command is
	// scheduled.
	DefaultNextDelay = 1000 * time.Millisecond
)

// Terminal is the sink commands are pushed into.
type Terminal interface {
	Show()
	SendLine(text string) error
}

// StepKind is the action a Step performs.
type StepKind int

const (
	StepShow StepKind = iota
	StepSend
)

func (k StepKind) String() string {
	if k == StepShow {
		return "show"
	}
	return "send"
}

// Step is one entry of a dispatch schedule: wait Delay after the previous
// step, then perform Kind.
type Step struct {
	Delay   time.Duration
	Kind    StepKind
	Index   int
	Command string
}

// Dispatcher builds and runs schedules.
type Dispatcher struct {
	clock     clock.Clock
	showDelay time.Duration
	nextDelay time.Duration
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock replaces the wall clock.
func WithClock(c clock.Clock) Option {
	return func(d *Dispatcher) { d.clock = c }
}

// WithDelays overrides the show and next delays. Non-positive values keep
// the defaults.
func WithDelays(show, next time.Duration) Option {
	return func(d *Dispatcher) {
		if show > 0 {
			d.showDelay = show
		}
		if next > 0 {
			d.nextDelay = next
		}
	}
}

func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		clock:     clock.Real(),
		showDelay: DefaultShowDelay,
		nextDelay: DefaultNextDelay,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Plan returns the schedule for commands. The terminal is always shown
// first, even with nothing to send. The first command is sent with no delay;
// every later command is shown, sent after the show delay, and the following
// one waits the next delay.
func (d *Dispatcher) Plan(commands []string) []Step {
	steps := []Step{{Kind: StepShow, Index: 0}}
	if len(commands) == 0 {
		return steps
	}
	steps = append(steps, Step{Kind: StepSend, Index: 0, Command: commands[0]})
	for i := 1; i < len(commands); i++ {
		show := Step{Kind: StepShow, Index: i}
		if i > 1 {
			show.Delay = d.nextDelay
		}
		steps = append(steps, show, Step{Delay: d.showDelay, Kind: StepSend, Index: i, Command: commands[i]})
	}
	return steps
}

// Start runs the schedule for commands against term. Every leading step with
// no delay, including the first send, completes before Start returns; the
// rest run as scheduled continuations on the dispatcher's clock.
func (d *Dispatcher) Start(term Terminal, commands []string) *Run {
	r := &Run{
		clock: d.clock,
		term:  term,
		steps: d.Plan(commands),
		done:  make(chan struct{}),
	}
	r.runFrom(0)
	return r
}

// Run is one in-flight dispatch.
type Run struct {
	clock clock.Clock
	term  Terminal
	steps []Step

	mu   sync.Mutex
	sent int
	err  error
	done chan struct{}
}

// ErrSendFailed wraps the terminal error that ended a run early.
var ErrSendFailed = errors.New("dispatch: terminal rejected command")

func (r *Run) runFrom(i int) {
	for ; i < len(r.steps); i++ {
		if r.steps[i].Delay > 0 {
			next := i
			r.clock.AfterFunc(r.steps[i].Delay, func() { r.resume(next) })
			return
		}
		if !r.apply(r.steps[i]) {
			return
		}
	}
	r.finish(nil)
}

func (r *Run) resume(i int) {
	if !r.apply(r.steps[i]) {
		return
	}
	r.runFrom(i + 1)
}

func (r *Run) apply(st Step) bool {
	switch st.Kind {
	case StepShow:
		r.term.Show()
	case StepSend:
		if err := r.term.SendLine(st.Command); err != nil {
			logging.Warn().Err(err).Int("index", st.Index).Msg("terminal closed, dropping remaining commands")
			r.finish(fmt.Errorf("%w: command %d: %w", ErrSendFailed, st.Index, err))
			return false
		}
		r.mu.Lock()
		r.sent++
		r.mu.Unlock()
	}
	return true
}

func (r *Run) finish(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
	close(r.done)
}

// Done is closed once every command was sent or the run stopped early.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Err reports why the run stopped early; nil while running or on success.
func (r *Run) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Sent reports how many commands have been sent so far.
func (r *Run) Sent() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent
}

// Terminal returns the sink the run writes to.
func (r *Run) Terminal() Terminal {
	return r.term
}
