// Package tui provides the Bubble Tea review interface and a plain line mode
// for non-interactive terminals.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/thuan734655/all-tools-nihongo/internal/model"
	"github.com/thuan734655/all-tools-nihongo/internal/queue"
	"github.com/thuan734655/all-tools-nihongo/internal/session"
	"github.com/thuan734655/all-tools-nihongo/internal/srs"
)

// Saver persists one graded schedule.
type Saver interface {
	SaveReview(ctx context.Context, sched srs.Schedule, grade srs.Grade) error
}

// Review ties a running session to the card texts and to persistence. Both
// front-ends grade through it.
type Review struct {
	Runner *session.Runner
	Policy *srs.Policy
	Items  map[string]model.Item
	Saver  Saver
	Typed  bool
	Now    func() time.Time
}

// Card is what a front-end shows for the current position.
type Card struct {
	Item     model.Item
	Entry    queue.Entry
	Schedule srs.Schedule
}

// Current returns the card awaiting a grade.
func (r *Review) Current() (Card, error) {
	entry, sched, err := r.Runner.Current()
	if err != nil {
		return Card{}, err
	}
	item, ok := r.Items[entry.ItemID]
	if !ok {
		item = model.Item{ID: entry.ItemID, Front: entry.ItemID}
	}
	return Card{Item: item, Entry: entry, Schedule: sched}, nil
}

// Grade saves the schedule g produces for the current card and only then
// advances the session. A failed save leaves the card current and uncounted.
func (r *Review) Grade(ctx context.Context, g srs.Grade) error {
	if !g.IsValid() {
		return fmt.Errorf("%w: grade %d", srs.ErrInvalidArgument, int(g))
	}
	_, current, err := r.Runner.Current()
	if err != nil {
		return err
	}
	if r.Saver != nil {
		next := r.Policy.Next(current, g, r.now())
		if err := r.Saver.SaveReview(ctx, next, g); err != nil {
			return err
		}
		slog.Debug("review saved", "item", next.ItemID, "grade", g.String(), "interval_days", next.IntervalDays)
	}
	_, err = r.Runner.Grade(g)
	return err
}

func (r *Review) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Done reports whether every card was graded.
func (r *Review) Done() bool {
	return r.Runner.State() == session.Completed
}

// GradeHints renders the grade keys with the interval each would give.
func (r *Review) GradeHints(sched srs.Schedule) string {
	preview := r.Policy.PreviewIntervals(sched, r.now())
	parts := make([]string, 0, len(srs.Grades))
	for i, g := range srs.Grades {
		parts = append(parts, fmt.Sprintf("%d %s %s", i+1, g, formatInterval(preview[g])))
	}
	return strings.Join(parts, "  ")
}

// formatInterval renders a day count as a short label like "<10m", "3h" or
// "12d".
func formatInterval(days float64) string {
	minutes := days * 24 * 60
	switch {
	case minutes < 1:
		return "<1m"
	case minutes <= 10:
		return "<10m"
	case minutes < 60:
		return fmt.Sprintf("%dm", int(math.Round(minutes)))
	case days < 1:
		return fmt.Sprintf("%dh", int(math.Round(minutes/60)))
	case days < 30:
		return fmt.Sprintf("%dd", int(math.Round(days)))
	case days < 365:
		return fmt.Sprintf("%.1fmo", days/30)
	default:
		return fmt.Sprintf("%.1fy", days/365)
	}
}

func progressLine(r *Review) string {
	stats, err := r.Runner.Stats()
	if err != nil {
		return ""
	}
	pos := min(r.Runner.Position()+1, r.Runner.Len())
	segments := []string{
		fmt.Sprintf("Card %d/%d", pos, r.Runner.Len()),
		fmt.Sprintf("Reviewed %d", stats.Reviewed),
		fmt.Sprintf("Accuracy %d%%", stats.Accuracy()),
	}
	if stats.XPEarned > 0 {
		segments = append(segments, fmt.Sprintf("XP %d", stats.XPEarned))
	}
	return strings.Join(segments, " · ")
}

// answerLines lists the back of the card, skipping empty fields.
func answerLines(it model.Item) []string {
	var lines []string
	if it.Reading != "" {
		lines = append(lines, it.Reading)
	}
	if it.Romaji != "" {
		lines = append(lines, it.Romaji)
	}
	if it.Meaning != "" {
		lines = append(lines, it.Meaning)
	}
	if it.MeaningVi != "" {
		lines = append(lines, it.MeaningVi)
	}
	return lines
}
