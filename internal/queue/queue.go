// Package queue orders card schedules into the sequence shown in a study
// session: overdue reviews first, with new cards mixed in at a fixed ratio.
package queue

import (
	"fmt"
	"sort"
	"time"

	"github.com/thuan734655/all-tools-nihongo/internal/srs"
)

const (
	// DefaultNewCardCap is the number of new cards introduced per day.
	DefaultNewCardCap = 20
	// DefaultReviewCap is the daily review budget.
	DefaultReviewCap = 200
	// DefaultInterleaveRatio is the number of reviews shown before each new card.
	DefaultInterleaveRatio = 4
)

// Kind tells where a queue entry came from.
type Kind int

const (
	Review Kind = iota + 1 // Previously reviewed card that is due.
	New                    // Card that was never reviewed.
)

func (k Kind) String() string {
	switch k {
	case Review:
		return "review"
	case New:
		return "new"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Options bounds one queue. The caps are daily budgets; a caller building a
// second queue on the same day passes what is left of them. Caps of zero are
// valid and produce an empty bucket; InterleaveRatio of zero selects
// DefaultInterleaveRatio.
type Options struct {
	NewCardCap      int
	ReviewCap       int
	InterleaveRatio int
	// Lookahead widens the due cutoff to now+Lookahead, pulling in cards that
	// come due later today. Zero keeps the strict dueAt < now rule.
	Lookahead time.Duration
}

// DefaultOptions returns the stock session limits.
func DefaultOptions() Options {
	return Options{
		NewCardCap:      DefaultNewCardCap,
		ReviewCap:       DefaultReviewCap,
		InterleaveRatio: DefaultInterleaveRatio,
	}
}

// Validate rejects negative limits.
func (o Options) Validate() error {
	switch {
	case o.NewCardCap < 0:
		return fmt.Errorf("%w: new card cap %d must be >= 0", srs.ErrInvalidArgument, o.NewCardCap)
	case o.ReviewCap < 0:
		return fmt.Errorf("%w: review cap %d must be >= 0", srs.ErrInvalidArgument, o.ReviewCap)
	case o.InterleaveRatio < 0:
		return fmt.Errorf("%w: interleave ratio %d must be >= 0 (0 selects the default)", srs.ErrInvalidArgument, o.InterleaveRatio)
	case o.Lookahead < 0:
		return fmt.Errorf("%w: lookahead %s must be >= 0", srs.ErrInvalidArgument, o.Lookahead)
	}
	return nil
}

// Entry is one position in a built queue.
type Entry struct {
	ItemID string
	Kind   Kind
	DueAt  time.Time
}

// Queue is a finite, ordered study sequence.
type Queue []Entry

// ItemIDs returns the item IDs in queue order.
func (q Queue) ItemIDs() []string {
	ids := make([]string, len(q))
	for i, e := range q {
		ids[i] = e.ItemID
	}
	return ids
}

// Counts returns the number of review and new entries.
func (q Queue) Counts() (reviews, news int) {
	for _, e := range q {
		switch e.Kind {
		case Review:
			reviews++
		case New:
			news++
		}
	}
	return reviews, news
}

// Build selects and orders the cards to study at now. The same inputs always
// produce the same queue, and schedules is not modified.
func Build(schedules []srs.Schedule, now time.Time, opts Options) (Queue, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	ratio := opts.InterleaveRatio
	if ratio == 0 {
		ratio = DefaultInterleaveRatio
	}
	cutoff := now.Add(opts.Lookahead)

	seen := make(map[string]struct{}, len(schedules))
	var overdue, fresh []Entry
	for _, s := range schedules {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[s.ItemID]; dup {
			return nil, fmt.Errorf("%w: duplicate schedule for item %s", srs.ErrInvalidArgument, s.ItemID)
		}
		seen[s.ItemID] = struct{}{}

		switch {
		case s.IsNew():
			fresh = append(fresh, Entry{ItemID: s.ItemID, Kind: New, DueAt: s.DueAt})
		case s.DueAt.Before(cutoff):
			overdue = append(overdue, Entry{ItemID: s.ItemID, Kind: Review, DueAt: s.DueAt})
		}
	}

	sort.SliceStable(overdue, func(i, j int) bool {
		if !overdue[i].DueAt.Equal(overdue[j].DueAt) {
			return overdue[i].DueAt.Before(overdue[j].DueAt)
		}
		return overdue[i].ItemID < overdue[j].ItemID
	})
	overdue = truncate(overdue, opts.ReviewCap)
	fresh = truncate(fresh, opts.NewCardCap)

	return interleave(overdue, fresh, ratio), nil
}

func truncate(entries []Entry, n int) []Entry {
	if len(entries) > n {
		return entries[:n]
	}
	return entries
}

// interleave emits one new entry after every ratio reviews and appends any
// new entries left once reviews run out.
func interleave(reviews, news []Entry, ratio int) Queue {
	out := make(Queue, 0, len(reviews)+len(news))
	ni := 0
	for i, r := range reviews {
		out = append(out, r)
		if (i+1)%ratio == 0 && ni < len(news) {
			out = append(out, news[ni])
			ni++
		}
	}
	return append(out, news[ni:]...)
}
