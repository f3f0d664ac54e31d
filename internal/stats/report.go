package stats

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/thuan734655/all-tools-nihongo/internal/model"
	"github.com/thuan734655/all-tools-nihongo/internal/srs"
)

// Source is the persistence a report reads from.
type Source interface {
	ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionRecord, error)
	ListItems(ctx context.Context, deck string) ([]model.Item, error)
	LoadSchedules(ctx context.Context, deck string, newSchedule func(itemID string) srs.Schedule) ([]srs.Schedule, error)
	Overview(ctx context.Context, at time.Time) ([]model.Overview, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions []model.SessionRecord
	Streak   StreakInfo
	Decks    []model.Overview
	Leeches  []model.Leech
	TopDecks []string
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, src Source, cfg model.StatsConfig, now time.Time) (Report, error) {
	sessions, err := src.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	streak := Streak(sessions, now)
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}

	decks, err := src.Overview(ctx, now)
	if err != nil {
		return Report{}, err
	}
	if cfg.Deck != "" {
		decks = filterDeck(decks, cfg.Deck)
	}

	var leeches []model.Leech
	if cfg.Leeches > 0 {
		items, err := src.ListItems(ctx, cfg.Deck)
		if err != nil {
			return Report{}, err
		}
		schedules, err := src.LoadSchedules(ctx, cfg.Deck, func(id string) srs.Schedule {
			return srs.Schedule{ItemID: id}
		})
		if err != nil {
			return Report{}, err
		}
		leeches = Leeches(items, schedules, DefaultLeechThreshold, cfg.Leeches)
	}

	return Report{
		Sessions: sessions,
		Streak:   streak,
		Decks:    decks,
		Leeches:  leeches,
		TopDecks: TopDecksByReviews(sessions, 3),
	}, nil
}

// Render writes every section of the report.
func Render(w io.Writer, r Report, window int) error {
	if err := RenderSummary(w, r.Sessions, r.Streak); err != nil {
		return err
	}
	if len(r.TopDecks) > 1 {
		if _, err := fmt.Fprintf(w, "Most studied: %v\n\n", r.TopDecks); err != nil {
			return err
		}
	}
	if err := RenderCurves(w, r.Sessions, window); err != nil {
		return err
	}
	if err := RenderOverview(w, r.Decks); err != nil {
		return err
	}
	return RenderLeeches(w, r.Leeches)
}

func filterDeck(decks []model.Overview, deck string) []model.Overview {
	var out []model.Overview
	for _, d := range decks {
		if d.Deck == deck {
			out = append(out, d)
		}
	}
	return out
}
