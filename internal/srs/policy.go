package srs

import (
	"fmt"
	"math"
	"time"
)

const (
	// MinEaseFactor is the floor every ease factor is clamped to.
	MinEaseFactor = 1.3
	// DefaultEaseFactor is the starting ease of a new card.
	DefaultEaseFactor = 2.5
	// DefaultLapseIntervalDays is ten minutes.
	DefaultLapseIntervalDays = 1.0 / 144
	// MaxIntervalDays caps interval growth at roughly a century.
	MaxIntervalDays = 36500.0

	againEasePenalty = 0.2
	hardEasePenalty  = 0.15
	easyEaseBonus    = 0.15

	hardMultiplier   = 1.2
	easyMultiplier   = 1.3
	graduatedMinDays = 1.0
	goodFirstDays    = 1.0
	easyFirstDays    = 4.0
)

// PolicyConfig configures a Policy. Zero values select the defaults.
type PolicyConfig struct {
	LapseIntervalDays  float64 `json:"lapse_interval_days"` // zero → 1/144 (10m)
	StartingEaseFactor float64 `json:"starting_ease_factor"` // zero → 2.5
}

// Policy computes the next schedule of a card from a grade.
// A Policy is immutable and safe for concurrent use.
type Policy struct {
	lapseIntervalDays  float64
	startingEaseFactor float64
}

// NewPolicy validates cfg and fills in defaults.
func NewPolicy(cfg PolicyConfig) (*Policy, error) {
	lapse := cfg.LapseIntervalDays
	if lapse == 0 {
		lapse = DefaultLapseIntervalDays
	}
	if !(lapse > 0) || math.IsInf(lapse, 0) {
		return nil, fmt.Errorf("%w: lapse interval %v must be > 0", ErrInvalidArgument, lapse)
	}

	ease := cfg.StartingEaseFactor
	if ease == 0 {
		ease = DefaultEaseFactor
	}
	if !(ease >= MinEaseFactor) || math.IsInf(ease, 0) {
		return nil, fmt.Errorf("%w: starting ease %v must be >= %v", ErrInvalidArgument, ease, MinEaseFactor)
	}

	return &Policy{lapseIntervalDays: lapse, startingEaseFactor: ease}, nil
}

// LapseIntervalDays returns the interval assigned after an Again grade.
func (p *Policy) LapseIntervalDays() float64 {
	return p.lapseIntervalDays
}

// StartingEaseFactor returns the ease given to new cards.
func (p *Policy) StartingEaseFactor() float64 {
	return p.startingEaseFactor
}

// NewSchedule returns the default schedule for an item presented for the first
// time. It is due immediately.
func (p *Policy) NewSchedule(itemID string, now time.Time) Schedule {
	return Schedule{
		ItemID:     itemID,
		EaseFactor: p.startingEaseFactor,
		DueAt:      now,
	}
}

// Next returns the schedule after grading s with g at now. The input is not
// mutated. Next never fails: out-of-range fields are clamped, and an invalid
// grade returns the clamped input unchanged.
func (p *Policy) Next(s Schedule, g Grade, now time.Time) Schedule {
	c := sanitize(s)
	if !g.IsValid() {
		return c
	}

	prev := c.IntervalDays
	firstSuccess := c.Repetitions == 0

	switch g {
	case Again:
		c.Lapses++
		c.Repetitions = 0
		c.EaseFactor = clampEase(c.EaseFactor - againEasePenalty)
		c.IntervalDays = p.lapseIntervalDays

	case Hard:
		c.EaseFactor = clampEase(c.EaseFactor - hardEasePenalty)
		floor := p.lapseIntervalDays
		if !firstSuccess {
			floor = graduatedMinDays
		}
		c.IntervalDays = math.Max(prev*hardMultiplier, floor)

	case Good:
		c.Repetitions++
		if firstSuccess {
			c.IntervalDays = math.Max(goodFirstDays, prev)
		} else {
			c.IntervalDays = math.Max(prev*c.EaseFactor, graduatedMinDays)
		}

	case Easy:
		c.Repetitions++
		c.EaseFactor += easyEaseBonus
		ivl := prev * c.EaseFactor * easyMultiplier
		if firstSuccess {
			ivl = math.Max(ivl, easyFirstDays)
		}
		c.IntervalDays = math.Max(ivl, graduatedMinDays)
	}

	c.IntervalDays = math.Min(c.IntervalDays, MaxIntervalDays)
	reviewed := now
	c.LastReviewedAt = &reviewed
	c.DueAt = now.Add(Days(c.IntervalDays))
	return c
}

// PreviewIntervals returns the interval each grade would assign to s at now.
func (p *Policy) PreviewIntervals(s Schedule, now time.Time) map[Grade]float64 {
	out := make(map[Grade]float64, len(Grades))
	for _, g := range Grades {
		out[g] = p.Next(s, g, now).IntervalDays
	}
	return out
}

// sanitize clamps fields written by an older or foreign policy into range.
func sanitize(s Schedule) Schedule {
	c := s.clone()
	c.EaseFactor = clampEase(c.EaseFactor)
	if math.IsNaN(c.IntervalDays) || c.IntervalDays < 0 {
		c.IntervalDays = 0
	}
	c.IntervalDays = math.Min(c.IntervalDays, MaxIntervalDays)
	if c.Repetitions < 0 {
		c.Repetitions = 0
	}
	if c.Lapses < 0 {
		c.Lapses = 0
	}
	return c
}

func clampEase(e float64) float64 {
	if math.IsNaN(e) || e < MinEaseFactor {
		return MinEaseFactor
	}
	if math.IsInf(e, 1) {
		return DefaultEaseFactor
	}
	return e
}
