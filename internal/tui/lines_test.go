package tui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/thuan734655/all-tools-nihongo/internal/srs"
)

func TestRunLinesFlashcards(t *testing.T) {
	review, saver := newTestReview(t, false)
	var out bytes.Buffer
	in := strings.NewReader("\nbogus\n3\n\n1\n")

	if err := RunLines(context.Background(), review, in, &out); err != nil {
		t.Fatalf("run lines: %v", err)
	}
	if !review.Done() {
		t.Fatalf("expected completed session")
	}
	if len(saver.saved) != 2 || saver.saved[0].grade != srs.Good || saver.saved[1].grade != srs.Again {
		t.Fatalf("unexpected saved reviews: %+v", saver.saved)
	}
	text := out.String()
	for _, want := range []string{"食べる", "to drink", `unknown grade "bogus"`, "grade> "} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in output:\n%s", want, text)
		}
	}
}

func TestRunLinesTypedUsesSuggestion(t *testing.T) {
	review, saver := newTestReview(t, true)
	var out bytes.Buffer
	in := strings.NewReader("ＴＡＢＥＲＵ\n\nbeer\n\n")

	if err := RunLines(context.Background(), review, in, &out); err != nil {
		t.Fatalf("run lines: %v", err)
	}
	if len(saver.saved) != 2 || saver.saved[0].grade != srs.Good || saver.saved[1].grade != srs.Again {
		t.Fatalf("unexpected saved reviews: %+v", saver.saved)
	}
	if !strings.Contains(out.String(), "incorrect") {
		t.Fatalf("expected verdict in output:\n%s", out.String())
	}
}

func TestRunLinesStopsAtEOF(t *testing.T) {
	review, saver := newTestReview(t, false)
	var out bytes.Buffer
	if err := RunLines(context.Background(), review, strings.NewReader("\n4\n"), &out); err != nil {
		t.Fatalf("run lines: %v", err)
	}
	if review.Done() {
		t.Fatalf("session should still be in progress")
	}
	if len(saver.saved) != 1 || saver.saved[0].grade != srs.Easy {
		t.Fatalf("graded card must be saved: %+v", saver.saved)
	}
}

func TestRunLinesCancelled(t *testing.T) {
	review, _ := newTestReview(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := RunLines(ctx, review, strings.NewReader(""), &bytes.Buffer{}); err == nil {
		t.Fatalf("expected context error")
	}
}

type cancelAfterSave struct {
	fakeSaver
	cancel context.CancelFunc
}

func (c *cancelAfterSave) SaveReview(ctx context.Context, sched srs.Schedule, grade srs.Grade) error {
	if err := c.fakeSaver.SaveReview(ctx, sched, grade); err != nil {
		return err
	}
	time.AfterFunc(20*time.Millisecond, c.cancel)
	return nil
}

func TestRunLinesInterruptedWhileWaiting(t *testing.T) {
	review, _ := newTestReview(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	saver := &cancelAfterSave{cancel: cancel}
	review.Saver = saver

	// The pipe is never closed by the writer, so the second card waits on
	// input until the context is cancelled.
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })
	go func() {
		_, _ = pw.Write([]byte("\n3\n"))
	}()

	err := RunLines(ctx, review, pr, &bytes.Buffer{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(saver.saved) != 1 || saver.saved[0].grade != srs.Good {
		t.Fatalf("graded card must be saved: %+v", saver.saved)
	}
	stats, err := review.Runner.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Reviewed != 1 {
		t.Fatalf("expected one reviewed card, got %d", stats.Reviewed)
	}
}
