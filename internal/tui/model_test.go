package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/thuan734655/all-tools-nihongo/internal/model"
	"github.com/thuan734655/all-tools-nihongo/internal/queue"
	"github.com/thuan734655/all-tools-nihongo/internal/session"
	"github.com/thuan734655/all-tools-nihongo/internal/srs"
)

var testNow = time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)

type savedReview struct {
	sched srs.Schedule
	grade srs.Grade
}

type fakeSaver struct {
	saved []savedReview
}

func (f *fakeSaver) SaveReview(_ context.Context, sched srs.Schedule, grade srs.Grade) error {
	f.saved = append(f.saved, savedReview{sched: sched, grade: grade})
	return nil
}

func newTestReview(t *testing.T, typed bool) (*Review, *fakeSaver) {
	t.Helper()
	policy, err := srs.NewPolicy(srs.PolicyConfig{})
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	items := map[string]model.Item{
		"a": {ID: "a", Front: "食べる", Reading: "たべる", Romaji: "taberu", Meaning: "to eat"},
		"b": {ID: "b", Front: "飲む", Reading: "のむ", Romaji: "nomu", Meaning: "to drink"},
	}
	schedules := []srs.Schedule{policy.NewSchedule("a", testNow), policy.NewSchedule("b", testNow)}
	q, err := queue.Build(schedules, testNow, queue.DefaultOptions())
	if err != nil {
		t.Fatalf("build queue: %v", err)
	}
	clock := func() time.Time { return testNow }
	runner := session.New(policy, schedules, session.WithClock(clock), session.WithXP(session.FlatXP(10, 1)))
	if err := runner.Start(q); err != nil {
		t.Fatalf("start: %v", err)
	}
	saver := &fakeSaver{}
	return &Review{
		Runner: runner,
		Policy: policy,
		Items:  items,
		Saver:  saver,
		Typed:  typed,
		Now:    clock,
	}, saver
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelFlipAndGrade(t *testing.T) {
	review, saver := newTestReview(t, false)
	m := NewModel(context.Background(), review)

	// Grades are ignored until the card is flipped.
	m.Update(keyRunes("3"))
	if len(saver.saved) != 0 || m.flipped {
		t.Fatalf("grade before flip should be ignored")
	}

	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	if !m.flipped {
		t.Fatalf("expected card to flip on space")
	}
	if !strings.Contains(m.View(), "たべる") {
		t.Fatalf("expected reading on the back of the card")
	}
	m.Update(keyRunes("3"))
	if len(saver.saved) != 1 || saver.saved[0].grade != srs.Good || saver.saved[0].sched.ItemID != "a" {
		t.Fatalf("unexpected saved reviews: %+v", saver.saved)
	}
	if m.flipped {
		t.Fatalf("next card should start face down")
	}

	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	_, cmd := m.Update(keyRunes("1"))
	if cmd == nil {
		t.Fatalf("expected quit command after last card")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
	if !review.Done() {
		t.Fatalf("expected completed session")
	}
	stats, err := review.Runner.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Reviewed != 2 || stats.Correct != 1 || stats.XPEarned != 11 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if saver.saved[1].sched.Lapses != 1 {
		t.Fatalf("expected lapse recorded for again")
	}
}

func TestModelTypedAnswer(t *testing.T) {
	review, saver := newTestReview(t, true)
	m := NewModel(context.Background(), review)

	m.Update(keyRunes("taberu"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.flipped || m.result == nil || !m.result.Correct {
		t.Fatalf("expected correct typed answer, got %+v", m.result)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if len(saver.saved) != 1 || saver.saved[0].grade != srs.Good {
		t.Fatalf("enter should accept the suggested grade: %+v", saver.saved)
	}

	m.Update(keyRunes("sake"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.result == nil || m.result.Correct {
		t.Fatalf("expected incorrect typed answer")
	}
	// An explicit grade overrides the suggestion.
	m.Update(keyRunes("2"))
	if len(saver.saved) != 2 || saver.saved[1].grade != srs.Hard {
		t.Fatalf("unexpected saved reviews: %+v", saver.saved)
	}
}

func TestModelBlankTypedAnswerIgnored(t *testing.T) {
	review, _ := newTestReview(t, true)
	m := NewModel(context.Background(), review)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.flipped {
		t.Fatalf("blank answer should not flip the card")
	}
}

func TestRenderFooterFormats(t *testing.T) {
	review, _ := newTestReview(t, false)
	m := NewModel(context.Background(), review)
	if err := review.Grade(context.Background(), srs.Easy); err != nil {
		t.Fatalf("grade: %v", err)
	}
	out := m.renderFooter()
	if !containsAll(out, []string{"Card 2/2", "Reviewed 1", "Accuracy 100%", "XP 10"}) {
		t.Fatalf("footer missing expected segments: %s", out)
	}
}

func TestGradeHints(t *testing.T) {
	review, _ := newTestReview(t, false)
	card, err := review.Current()
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	got := review.GradeHints(card.Schedule)
	want := "1 again <10m  2 hard <10m  3 good 1d  4 easy 4d"
	if got != want {
		t.Fatalf("GradeHints = %q, want %q", got, want)
	}
}

func TestFormatInterval(t *testing.T) {
	tests := []struct {
		days float64
		want string
	}{
		{0, "<1m"},
		{1.0 / 144, "<10m"},
		{30.0 / 1440, "30m"},
		{0.5, "12h"},
		{1, "1d"},
		{4, "4d"},
		{45, "1.5mo"},
		{400, "1.1y"},
	}
	for _, tt := range tests {
		if got := formatInterval(tt.days); got != tt.want {
			t.Fatalf("formatInterval(%v) = %q, want %q", tt.days, got, tt.want)
		}
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

type failingSaver struct{}

func (failingSaver) SaveReview(context.Context, srs.Schedule, srs.Grade) error {
	return errors.New("disk full")
}

func TestGradeNotCountedWhenSaveFails(t *testing.T) {
	review, _ := newTestReview(t, false)
	review.Saver = failingSaver{}

	if err := review.Grade(context.Background(), srs.Good); err == nil {
		t.Fatalf("expected save error")
	}
	card, err := review.Current()
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if card.Item.ID != "a" || review.Runner.Position() != 0 {
		t.Fatalf("failed save must not advance, at %q position %d", card.Item.ID, review.Runner.Position())
	}
	stats, err := review.Runner.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Reviewed != 0 {
		t.Fatalf("failed save must not be counted: %+v", stats)
	}
	if err := review.Grade(context.Background(), srs.Grade(0)); err == nil {
		t.Fatalf("expected invalid grade error")
	}
}
