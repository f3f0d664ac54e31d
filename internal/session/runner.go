// Package session drives a single study session over a built queue.
package session

import (
	"fmt"
	"time"

	"github.com/thuan734655/all-tools-nihongo/internal/queue"
	"github.com/thuan734655/all-tools-nihongo/internal/srs"
)

// State is the lifecycle position of a Runner.
type State int

const (
	Idle State = iota
	InProgress
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case InProgress:
		return "in progress"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// XPFunc awards experience points for one graded card.
type XPFunc func(srs.Grade) int

// FlatXP awards correct points for Good/Easy and incorrect points otherwise.
func FlatXP(correct, incorrect int) XPFunc {
	return func(g srs.Grade) int {
		if g.IsCorrect() {
			return correct
		}
		return incorrect
	}
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// WithXP sets the experience policy. Without it no XP is awarded.
func WithXP(fn XPFunc) Option {
	return func(r *Runner) {
		r.xp = fn
	}
}

// Runner applies grades to the cards of one queue and keeps the session
// statistics. A Runner is single-use and not safe for concurrent use;
// concurrent sessions need separate Runners.
type Runner struct {
	policy    *srs.Policy
	schedules map[string]srs.Schedule
	now       func() time.Time
	xp        XPFunc

	state State
	queue queue.Queue
	pos   int
	stats Stats
}

// New returns an idle Runner over the given schedules. The slice is copied.
func New(policy *srs.Policy, schedules []srs.Schedule, opts ...Option) *Runner {
	r := &Runner{
		policy:    policy,
		schedules: make(map[string]srs.Schedule, len(schedules)),
		now:       time.Now,
	}
	for _, s := range schedules {
		r.schedules[s.ItemID] = s
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State reports the current lifecycle state.
func (r *Runner) State() State {
	return r.state
}

// Start begins the session over q.
func (r *Runner) Start(q queue.Queue) error {
	if r.state != Idle {
		return fmt.Errorf("%w: start called while %s", srs.ErrInvalidState, r.state)
	}
	if len(q) == 0 {
		return srs.ErrEmptyQueue
	}
	r.queue = append(queue.Queue(nil), q...)
	r.pos = 0
	r.stats = Stats{
		ByGrade:   map[srs.Grade]int{},
		StartedAt: r.now(),
	}
	r.state = InProgress
	return nil
}

// Current returns the entry awaiting a grade and its schedule. An item that
// has no schedule yet gets the policy defaults.
func (r *Runner) Current() (queue.Entry, srs.Schedule, error) {
	if r.state != InProgress {
		return queue.Entry{}, srs.Schedule{}, fmt.Errorf("%w: no current item while %s", srs.ErrInvalidState, r.state)
	}
	e := r.queue[r.pos]
	return e, r.scheduleFor(e.ItemID), nil
}

// Grade applies g to the current card, advances the session and returns the
// updated schedule for the caller to persist.
func (r *Runner) Grade(g srs.Grade) (srs.Schedule, error) {
	if r.state != InProgress {
		return srs.Schedule{}, fmt.Errorf("%w: grade called while %s", srs.ErrInvalidState, r.state)
	}
	if !g.IsValid() {
		return srs.Schedule{}, fmt.Errorf("%w: grade %d", srs.ErrInvalidArgument, int(g))
	}

	now := r.now()
	e := r.queue[r.pos]
	next := r.policy.Next(r.scheduleFor(e.ItemID), g, now)
	r.schedules[e.ItemID] = next

	r.stats.Reviewed++
	if g.IsCorrect() {
		r.stats.Correct++
	}
	r.stats.ByGrade[g]++
	if r.xp != nil {
		r.stats.XPEarned += r.xp(g)
	}

	r.pos++
	if r.pos >= len(r.queue) {
		r.state = Completed
		r.stats.EndedAt = now
	}
	return next, nil
}

// Stats returns partial stats while in progress and final stats once
// completed.
func (r *Runner) Stats() (Stats, error) {
	if r.state == Idle {
		return Stats{}, fmt.Errorf("%w: no stats before start", srs.ErrInvalidState)
	}
	out := r.stats
	out.ByGrade = make(map[srs.Grade]int, len(r.stats.ByGrade))
	for g, n := range r.stats.ByGrade {
		out.ByGrade[g] = n
	}
	return out, nil
}

// Position returns the zero-based index of the current card.
func (r *Runner) Position() int {
	return r.pos
}

// Len returns the number of cards in the session.
func (r *Runner) Len() int {
	return len(r.queue)
}

// Remaining returns the number of cards still to grade.
func (r *Runner) Remaining() int {
	return len(r.queue) - r.pos
}

func (r *Runner) scheduleFor(itemID string) srs.Schedule {
	if s, ok := r.schedules[itemID]; ok {
		return s
	}
	s := r.policy.NewSchedule(itemID, r.now())
	r.schedules[itemID] = s
	return s
}
