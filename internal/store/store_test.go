package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/thuan734655/all-tools-nihongo/internal/model"
	"github.com/thuan734655/all-tools-nihongo/internal/srs"
)

var base = time.Date(2026, 5, 4, 7, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "nihongo.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func seedItems(t *testing.T, st *Store) {
	t.Helper()
	items := []model.Item{
		{ID: "n5-3", Deck: "n5", Front: "水", Reading: "みず", Meaning: "water"},
		{ID: "n5-1", Deck: "n5", Front: "火", Reading: "ひ", Meaning: "fire"},
		{ID: "n4-1", Deck: "n4", Front: "運転", Reading: "うんてん", Meaning: "driving"},
	}
	n, err := st.UpsertItems(context.Background(), items)
	if err != nil {
		t.Fatalf("upsert items: %v", err)
	}
	if n != len(items) {
		t.Fatalf("expected %d rows, got %d", len(items), n)
	}
}

func newDefault(id string) srs.Schedule {
	return srs.Schedule{ItemID: id, EaseFactor: srs.DefaultEaseFactor, DueAt: base}
}

func TestUpsertAndListItems(t *testing.T) {
	st := openTestStore(t)
	seedItems(t, st)
	ctx := context.Background()

	items, err := st.ListItems(ctx, "n5")
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 2 || items[0].ID != "n5-3" || items[1].ID != "n5-1" {
		t.Fatalf("expected import order, got %+v", items)
	}

	// Re-import updates text and keeps order.
	if _, err := st.UpsertItems(ctx, []model.Item{{ID: "n5-3", Deck: "n5", Front: "水", Reading: "みず", Meaning: "water (cold)"}}); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	items, err = st.ListItems(ctx, "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Meaning != "water (cold)" {
		t.Fatalf("expected updated meaning, got %q", items[0].Meaning)
	}
}

func TestUpsertItemsRejectsIncomplete(t *testing.T) {
	st := openTestStore(t)
	if _, err := st.UpsertItems(context.Background(), []model.Item{{ID: "x", Deck: "n5"}}); err == nil {
		t.Fatalf("expected error for missing front")
	}
}

func TestLoadSchedulesDefaultsAndSaveReview(t *testing.T) {
	st := openTestStore(t)
	seedItems(t, st)
	ctx := context.Background()

	scheds, err := st.LoadSchedules(ctx, "n5", newDefault)
	if err != nil {
		t.Fatalf("load schedules: %v", err)
	}
	if len(scheds) != 2 || !scheds[0].IsNew() || !scheds[1].IsNew() {
		t.Fatalf("expected two new schedules, got %+v", scheds)
	}

	last := base.Add(time.Hour)
	graded := srs.Schedule{
		ItemID:         "n5-1",
		EaseFactor:     2.5,
		IntervalDays:   1,
		Repetitions:    1,
		DueAt:          last.Add(24 * time.Hour),
		LastReviewedAt: &last,
	}
	if err := st.SaveReview(ctx, graded, srs.Good); err != nil {
		t.Fatalf("save review: %v", err)
	}
	graded.IntervalDays = 2.5
	graded.Repetitions = 2
	if err := st.SaveReview(ctx, graded, srs.Good); err != nil {
		t.Fatalf("save second review: %v", err)
	}

	scheds, err = st.LoadSchedules(ctx, "n5", newDefault)
	if err != nil {
		t.Fatalf("reload schedules: %v", err)
	}
	got := scheds[1]
	if got.ItemID != "n5-1" || got.Repetitions != 2 || got.IntervalDays != 2.5 {
		t.Fatalf("unexpected stored schedule: %+v", got)
	}
	if got.LastReviewedAt == nil || !got.LastReviewedAt.Equal(last) {
		t.Fatalf("unexpected last reviewed: %v", got.LastReviewedAt)
	}
	if !got.DueAt.Equal(graded.DueAt) {
		t.Fatalf("unexpected due: %v", got.DueAt)
	}

	logs, err := st.ListReviews(ctx, "n5-1")
	if err != nil {
		t.Fatalf("list reviews: %v", err)
	}
	if len(logs) != 2 || logs[0].Grade != int(srs.Good) || logs[1].IntervalDays != 2.5 {
		t.Fatalf("unexpected review log: %+v", logs)
	}
}

func TestSaveReviewRejectsInvalid(t *testing.T) {
	st := openTestStore(t)
	seedItems(t, st)
	ctx := context.Background()

	err := st.SaveReview(ctx, srs.Schedule{ItemID: "n5-1", EaseFactor: 2.5, Lapses: -1}, srs.Good)
	if !errors.Is(err, srs.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	err = st.SaveReview(ctx, newDefault("n5-1"), srs.Grade(9))
	if !errors.Is(err, srs.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for grade, got %v", err)
	}
	// Unknown item violates the foreign key.
	last := base
	if err := st.SaveReview(ctx, srs.Schedule{ItemID: "ghost", EaseFactor: 2.5, DueAt: base, LastReviewedAt: &last}, srs.Again); err == nil {
		t.Fatalf("expected error for unknown item")
	}
}

func TestCountDueAndOverview(t *testing.T) {
	st := openTestStore(t)
	seedItems(t, st)
	ctx := context.Background()

	reviewed := base.Add(-48 * time.Hour)
	overdue := srs.Schedule{ItemID: "n5-3", EaseFactor: 2.3, IntervalDays: 1, Repetitions: 1, Lapses: 2, DueAt: base.Add(-time.Hour), LastReviewedAt: &reviewed}
	relearning := srs.Schedule{ItemID: "n4-1", EaseFactor: 1.3, IntervalDays: 0.01, Lapses: 1, DueAt: base.Add(time.Hour), LastReviewedAt: &reviewed}
	for _, s := range []srs.Schedule{overdue, relearning} {
		if err := st.SaveReview(ctx, s, srs.Again); err != nil {
			t.Fatalf("save review: %v", err)
		}
	}

	n, err := st.CountDue(ctx, "", base)
	if err != nil {
		t.Fatalf("count due: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 due card, got %d", n)
	}
	n, err = st.CountDue(ctx, "n4", base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("count due n4: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 due n4 card, got %d", n)
	}

	ov, err := st.Overview(ctx, base)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if len(ov) != 2 {
		t.Fatalf("expected 2 decks, got %+v", ov)
	}
	n4, n5 := ov[0], ov[1]
	if n4.Deck != "n4" || n4.Total != 1 || n4.New != 0 || n4.Due != 0 || n4.Learning != 1 || n4.Lapses != 1 {
		t.Fatalf("unexpected n4 overview: %+v", n4)
	}
	if n5.Deck != "n5" || n5.Total != 2 || n5.New != 1 || n5.Due != 1 || n5.Learning != 0 || n5.Lapses != 2 {
		t.Fatalf("unexpected n5 overview: %+v", n5)
	}
}

func TestCountStudied(t *testing.T) {
	st := openTestStore(t)
	seedItems(t, st)
	ctx := context.Background()

	grade := func(id string, at time.Time, g srs.Grade) {
		t.Helper()
		reviewed := at
		s := srs.Schedule{ItemID: id, EaseFactor: 2.5, IntervalDays: 1, Repetitions: 1, DueAt: at.Add(24 * time.Hour), LastReviewedAt: &reviewed}
		if err := st.SaveReview(ctx, s, g); err != nil {
			t.Fatalf("save review %s: %v", id, err)
		}
	}
	grade("n5-1", base.Add(-24*time.Hour), srs.Good)
	grade("n5-1", base.Add(time.Hour), srs.Good)
	grade("n5-3", base.Add(2*time.Hour), srs.Again)
	grade("n5-3", base.Add(3*time.Hour), srs.Good)
	grade("n4-1", base.Add(time.Hour), srs.Good)

	dayStart := base.Add(-7 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	news, reviews, err := st.CountStudied(ctx, "", dayStart, dayEnd)
	if err != nil {
		t.Fatalf("count studied: %v", err)
	}
	if news != 2 || reviews != 2 {
		t.Fatalf("expected 2 new and 2 reviews today, got %d and %d", news, reviews)
	}

	news, reviews, err = st.CountStudied(ctx, "n5", dayStart, dayEnd)
	if err != nil {
		t.Fatalf("count studied n5: %v", err)
	}
	// The n5-1 card was first graded yesterday, so today it is a review.
	if news != 1 || reviews != 2 {
		t.Fatalf("expected 1 new and 2 reviews in n5, got %d and %d", news, reviews)
	}

	news, reviews, err = st.CountStudied(ctx, "", dayEnd, dayEnd.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("count studied tomorrow: %v", err)
	}
	if news != 0 || reviews != 0 {
		t.Fatalf("expected nothing studied tomorrow, got %d and %d", news, reviews)
	}
}

func TestInsertAndListSessions(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		start := base.Add(time.Duration(i) * 24 * time.Hour)
		deck := "n5"
		if i == 1 {
			deck = "n4"
		}
		id, err := st.InsertSession(ctx, model.SessionRecord{
			Deck:      deck,
			StartedAt: start,
			EndedAt:   start.Add(10 * time.Minute),
			Reviewed:  10 + i,
			Correct:   8,
			XP:        80,
		})
		if err != nil {
			t.Fatalf("insert session: %v", err)
		}
		ids = append(ids, id)
	}

	all, err := st.ListSessions(ctx, model.StatsConfig{})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(all) != 3 || all[0].ID != ids[0] || all[2].ID != ids[2] {
		t.Fatalf("unexpected sessions: %+v", all)
	}
	if !all[0].StartedAt.Equal(base) || all[1].Reviewed != 11 {
		t.Fatalf("unexpected session fields: %+v", all[0])
	}

	since := base.Add(12 * time.Hour)
	n5, err := st.ListSessions(ctx, model.StatsConfig{Deck: "n5", Since: &since})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(n5) != 1 || n5[0].ID != ids[2] {
		t.Fatalf("unexpected filtered sessions: %+v", n5)
	}
}

func TestTimestampsSortAcrossZones(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	early := time.Date(2026, 5, 4, 8, 0, 0, 0, tokyo) // 23:00 UTC the day before
	late := time.Date(2026, 5, 3, 23, 0, 0, 500, time.UTC)
	if formatTime(early) >= formatTime(late) {
		t.Fatalf("expected %s < %s", formatTime(early), formatTime(late))
	}
	parsed, err := parseTime(formatTime(late))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.Equal(late) {
		t.Fatalf("round trip mismatch: %v != %v", parsed, late)
	}
}
