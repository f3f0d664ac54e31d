// Package reminder periodically reports how many cards are due.
package reminder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/pkg/errors"
)

// Counter counts due cards.
type Counter interface {
	CountDue(ctx context.Context, deck string, at time.Time) (int, error)
}

// Notifier delivers a reminder.
type Notifier interface {
	Notify(deck string, due int) error
}

// WriterNotifier prints reminders as plain lines.
type WriterNotifier struct {
	W io.Writer
}

// Notify implements Notifier.
func (n WriterNotifier) Notify(deck string, due int) error {
	scope := "all decks"
	if deck != "" {
		scope = "deck " + deck
	}
	_, err := fmt.Fprintf(n.W, "%s: %d cards due in %s\n", time.Now().Format("15:04"), due, scope)
	return err
}

// Options configures a Scheduler.
type Options struct {
	Deck  string
	Every time.Duration
	// Reminders are only sent between StartHour and EndHour inclusive, local
	// time. Both zero means any hour.
	StartHour int
	EndHour   int
	Now       func() time.Time
}

// Scheduler checks for due cards on a fixed interval.
type Scheduler struct {
	counter  Counter
	notifier Notifier
	opts     Options
}

// New validates opts and returns a Scheduler.
func New(counter Counter, notifier Notifier, opts Options) (*Scheduler, error) {
	if opts.Every <= 0 {
		return nil, errors.Errorf("reminder interval must be positive, got %s", opts.Every)
	}
	if opts.StartHour < 0 || opts.StartHour > 23 || opts.EndHour < 0 || opts.EndHour > 23 {
		return nil, errors.Errorf("reminder hours must be within 0-23, got %d-%d", opts.StartHour, opts.EndHour)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{counter: counter, notifier: notifier, opts: opts}, nil
}

// Run checks immediately and then every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	cron := gocron.NewScheduler(time.Local)
	if _, err := cron.Every(s.opts.Every).Do(func() {
		if _, err := s.Check(ctx); err != nil {
			slog.Error("reminder check failed", "err", err)
		}
	}); err != nil {
		return errors.Wrap(err, "failed to schedule reminder")
	}
	cron.StartAsync()
	slog.Info("reminders started", "every", s.opts.Every.String(), "deck", s.opts.Deck)
	<-ctx.Done()
	cron.Stop()
	return nil
}

// Check counts due cards once and notifies when any are due inside the
// active hours. It returns the count.
func (s *Scheduler) Check(ctx context.Context) (int, error) {
	now := s.opts.Now()
	if !s.active(now.Hour()) {
		slog.Debug("outside reminder hours", "hour", now.Hour())
		return 0, nil
	}
	due, err := s.counter.CountDue(ctx, s.opts.Deck, now)
	if err != nil {
		return 0, err
	}
	slog.Debug("due cards counted", "deck", s.opts.Deck, "due", due)
	if due == 0 {
		return 0, nil
	}
	if err := s.notifier.Notify(s.opts.Deck, due); err != nil {
		return due, errors.Wrap(err, "failed to send reminder")
	}
	return due, nil
}

func (s *Scheduler) active(hour int) bool {
	start, end := s.opts.StartHour, s.opts.EndHour
	if start == 0 && end == 0 {
		return true
	}
	if start <= end {
		return hour >= start && hour <= end
	}
	// Window wraps past midnight, e.g. 20-2.
	return hour >= start || hour <= end
}
