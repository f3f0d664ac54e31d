package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/thuan734655/all-tools-nihongo/internal/config"
	"github.com/thuan734655/all-tools-nihongo/internal/model"
	"github.com/thuan734655/all-tools-nihongo/internal/session"
	"github.com/thuan734655/all-tools-nihongo/internal/srs"
	"github.com/thuan734655/all-tools-nihongo/internal/store"
	"github.com/thuan734655/all-tools-nihongo/internal/tui"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "nihongo.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	items := []model.Item{
		{ID: "mizu", Deck: "n5", Front: "水", Reading: "みず", Meaning: "water"},
		{ID: "hi", Deck: "n5", Front: "火", Reading: "ひ", Meaning: "fire"},
		{ID: "ki", Deck: "n5", Front: "木", Reading: "き", Meaning: "tree"},
	}
	if _, err := st.UpsertItems(context.Background(), items); err != nil {
		t.Fatalf("upsert items: %v", err)
	}
	return st
}

// study grades every card of plan with g at now, saving each one.
func study(t *testing.T, st *store.Store, plan studyPlan, g srs.Grade, now time.Time) *session.Runner {
	t.Helper()
	clock := func() time.Time { return now }
	runner := session.New(plan.policy, plan.schedules, session.WithClock(clock))
	if err := runner.Start(plan.queue); err != nil {
		t.Fatalf("start: %v", err)
	}
	review := &tui.Review{Runner: runner, Policy: plan.policy, Items: plan.items, Saver: st, Now: clock}
	for !review.Done() {
		if err := review.Grade(context.Background(), g); err != nil {
			t.Fatalf("grade: %v", err)
		}
	}
	return runner
}

func TestNewCardCapIsDaily(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	cfg := model.StudyConfig{Deck: "n5", NewCards: 1, Reviews: 10}
	morning := time.Date(2026, 7, 1, 9, 0, 0, 0, time.Local)

	plan, err := buildPlan(ctx, st, cfg, morning)
	if err != nil {
		t.Fatalf("first plan: %v", err)
	}
	if _, news := plan.queue.Counts(); news != 1 {
		t.Fatalf("expected 1 new card in the first plan, got %d", news)
	}
	study(t, st, plan, srs.Good, morning)

	for _, later := range []time.Time{morning.Add(time.Hour), morning.Add(10 * time.Hour)} {
		plan, err = buildPlan(ctx, st, cfg, later)
		if err != nil {
			t.Fatalf("same-day plan: %v", err)
		}
		if _, news := plan.queue.Counts(); news != 0 || plan.newLeft != 0 {
			t.Fatalf("same-day plan at %s offered %d new cards (left %d)", later.Format("15:04"), news, plan.newLeft)
		}
		if plan.reviewsLeft != 10 {
			t.Fatalf("a first grade must not use the review budget, left %d", plan.reviewsLeft)
		}
	}

	tomorrow := morning.AddDate(0, 0, 1).Add(-time.Hour)
	plan, err = buildPlan(ctx, st, cfg, tomorrow)
	if err != nil {
		t.Fatalf("next-day plan: %v", err)
	}
	if _, news := plan.queue.Counts(); news != 1 {
		t.Fatalf("expected a fresh new card budget the next day, got %d", news)
	}
}

func TestReviewCapIsDaily(t *testing.T) {
	st := openTestStore(t)
	day1 := time.Date(2026, 7, 1, 9, 0, 0, 0, time.Local)
	study(t, st, mustPlan(t, st, model.StudyConfig{Deck: "n5", NewCards: 3}, day1), srs.Good, day1)

	// All three cards are due on day two; two reviews fit the budget.
	cfg := model.StudyConfig{Deck: "n5", Reviews: 2}
	day2 := day1.AddDate(0, 0, 1).Add(time.Hour)
	plan := mustPlan(t, st, cfg, day2)
	if reviews, _ := plan.queue.Counts(); reviews != 2 {
		t.Fatalf("expected 2 reviews, got %d", reviews)
	}
	study(t, st, plan, srs.Again, day2)

	// Relearning cards come due ten minutes later, but the budget is spent.
	plan = mustPlan(t, st, cfg, day2.Add(time.Hour))
	if len(plan.queue) != 0 || plan.reviewsLeft != 0 {
		t.Fatalf("expected the review budget to be spent, got %d cards (left %d)", len(plan.queue), plan.reviewsLeft)
	}
}

func mustPlan(t *testing.T, st *store.Store, cfg model.StudyConfig, now time.Time) studyPlan {
	t.Helper()
	plan, err := buildPlan(context.Background(), st, cfg, now)
	if err != nil {
		t.Fatalf("build plan: %v", err)
	}
	return plan
}

func TestRecordSessionAfterInterruptOrError(t *testing.T) {
	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.Local)
	tests := []struct {
		name    string
		runErr  error
		wantErr bool
	}{
		{"interrupted", context.Canceled, false},
		{"front-end failure", errors.New("terminal gone"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := openTestStore(t)
			plan := mustPlan(t, st, model.StudyConfig{Deck: "n5", NewCards: 3}, now)
			clock := func() time.Time { return now }
			runner := session.New(plan.policy, plan.schedules, session.WithClock(clock))
			if err := runner.Start(plan.queue); err != nil {
				t.Fatalf("start: %v", err)
			}
			review := &tui.Review{Runner: runner, Policy: plan.policy, Items: plan.items, Saver: st, Now: clock}
			if err := review.Grade(context.Background(), srs.Good); err != nil {
				t.Fatalf("grade: %v", err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			var out bytes.Buffer
			err := recordSession(ctx, st, "n5", runner, tt.runErr, &out)
			if tt.wantErr != (err != nil) {
				t.Fatalf("recordSession error = %v, want error %v", err, tt.wantErr)
			}
			sessions, err := st.ListSessions(context.Background(), model.StatsConfig{})
			if err != nil {
				t.Fatalf("list sessions: %v", err)
			}
			if len(sessions) != 1 || sessions[0].Reviewed != 1 || sessions[0].Deck != "n5" {
				t.Fatalf("expected the partial session to be recorded, got %+v", sessions)
			}
			if !strings.Contains(out.String(), "Cards reviewed") {
				t.Fatalf("expected a summary, got:\n%s", out.String())
			}
		})
	}
}

func TestResolveStudyConfigRejectsExplicitZero(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero lapse interval", "[study]\nlapse-interval-days = 0.0\n"},
		{"negative lapse interval", "[decks.n5]\nlapse-interval-days = -1.0\n"},
		{"zero starting ease", "[study]\nstarting-ease = 0.0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			t.Setenv(config.EnvConfigPath, path)
			cmd := newReviewCmd()
			if err := cmd.ParseFlags([]string{"--deck", "n5"}); err != nil {
				t.Fatalf("parse flags: %v", err)
			}
			if _, err := resolveStudyConfig(cmd, &reviewFlags); err == nil {
				t.Fatalf("expected an error for %q", tt.content)
			}
		})
	}
}
