package srs

import (
	"fmt"
	"math"
	"time"
)

// Schedule is the persisted scheduling state of one learnable item.
type Schedule struct {
	ItemID         string     `json:"item_id"`
	EaseFactor     float64    `json:"ease_factor"`
	IntervalDays   float64    `json:"interval_days"` // 0 means due immediately.
	Repetitions    int        `json:"repetitions"`   // Successful reviews since the last lapse.
	Lapses         int        `json:"lapses"`
	DueAt          time.Time  `json:"due_at"`
	LastReviewedAt *time.Time `json:"last_reviewed_at"` // nil until the first review.
}

// IsNew reports whether the item has never been reviewed.
func (s Schedule) IsNew() bool {
	return s.LastReviewedAt == nil
}

// Validate rejects records that cannot come from any policy version.
// Out-of-range ease factors are not rejected; Next clamps them.
func (s Schedule) Validate() error {
	switch {
	case s.ItemID == "":
		return fmt.Errorf("%w: schedule has empty item id", ErrInvalidArgument)
	case s.Repetitions < 0:
		return fmt.Errorf("%w: item %s: negative repetitions %d", ErrInvalidArgument, s.ItemID, s.Repetitions)
	case s.Lapses < 0:
		return fmt.Errorf("%w: item %s: negative lapses %d", ErrInvalidArgument, s.ItemID, s.Lapses)
	case math.IsNaN(s.IntervalDays) || math.IsInf(s.IntervalDays, 0) || s.IntervalDays < 0:
		return fmt.Errorf("%w: item %s: interval %v", ErrInvalidArgument, s.ItemID, s.IntervalDays)
	case math.IsNaN(s.EaseFactor) || math.IsInf(s.EaseFactor, 0) || s.EaseFactor < 0:
		return fmt.Errorf("%w: item %s: ease factor %v", ErrInvalidArgument, s.ItemID, s.EaseFactor)
	}
	return nil
}

// clone returns a copy that shares no pointers with s.
func (s Schedule) clone() Schedule {
	out := s
	if s.LastReviewedAt != nil {
		v := *s.LastReviewedAt
		out.LastReviewedAt = &v
	}
	return out
}

// Days converts a fractional day count to a duration.
func Days(d float64) time.Duration {
	return time.Duration(d * float64(24*time.Hour))
}
