// Package model defines shared data structures.
package model

import "time"

// Item is a studyable vocabulary card. Schedules live separately and refer to
// the item by ID.
type Item struct {
	ID        string
	Deck      string
	Front     string // kanji or the word as written
	Reading   string
	Romaji    string
	Meaning   string
	MeaningVi string
	CreatedAt time.Time
}

// Answers returns the non-empty accepted answers for a typed review.
func (it Item) Answers() []string {
	var out []string
	for _, s := range []string{it.Reading, it.Romaji, it.Meaning, it.MeaningVi, it.Front} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// StudyConfig defines session limits and policy settings after config files
// and flags are merged.
type StudyConfig struct {
	Deck              string
	NewCards          int
	Reviews           int
	Interleave        int
	LapseIntervalDays float64
	StartingEase      float64
	Lookahead         time.Duration
	XPCorrect         int
	XPIncorrect       int
	Typed             bool
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Deck        string
	Since       *time.Time
	Last        int
	CurveWindow int
	Leeches     int
}

// SessionRecord captures a completed or abandoned review session.
type SessionRecord struct {
	ID        int64
	Deck      string
	StartedAt time.Time
	EndedAt   time.Time
	Reviewed  int
	Correct   int
	XP        int
}

// ReviewLog is one graded card.
type ReviewLog struct {
	ItemID       string
	Grade        int
	ReviewedAt   time.Time
	IntervalDays float64
	EaseFactor   float64
}

// Overview counts cards of a deck by state.
type Overview struct {
	Deck     string
	Total    int
	New      int
	Due      int
	Learning int
	Lapses   int
}

// Leech is a card that keeps being forgotten.
type Leech struct {
	Item   Item
	Lapses int
	Ease   float64
}
