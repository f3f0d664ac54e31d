package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/thuan734655/all-tools-nihongo/internal/model"
	"github.com/thuan734655/all-tools-nihongo/internal/queue"
)

func TestRenderQueue(t *testing.T) {
	now := time.Date(2026, 7, 10, 12, 0, 0, 0, time.UTC)
	q := queue.Queue{
		{ItemID: "a", Kind: queue.Review, DueAt: now.Add(-72 * time.Hour)},
		{ItemID: "b", Kind: queue.Review, DueAt: now.Add(-5 * time.Hour)},
		{ItemID: "c", Kind: queue.New, DueAt: now},
	}
	items := map[string]model.Item{
		"a": {ID: "a", Front: "水", Reading: "みず"},
		"c": {ID: "c", Front: "火", Reading: "ひ"},
	}
	var buf bytes.Buffer
	if err := RenderQueue(&buf, q, items, now); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Queue", "review", "水", "3d late", "5h late", "new", "火"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	// Unknown items fall back to their ID.
	if !strings.Contains(out, " b ") {
		t.Fatalf("expected item id fallback in output:\n%s", out)
	}
}
