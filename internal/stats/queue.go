package stats

import (
	"fmt"
	"io"
	"time"

	"github.com/thuan734655/all-tools-nihongo/internal/model"
	"github.com/thuan734655/all-tools-nihongo/internal/queue"
)

// RenderQueue prints the cards of a built queue in study order.
func RenderQueue(w io.Writer, q queue.Queue, items map[string]model.Item, now time.Time) error {
	headers := []string{"#", "Kind", "Card", "Reading", "Due"}
	rows := make([][]string, 0, len(q))
	for i, e := range q {
		it := items[e.ItemID]
		front := it.Front
		if front == "" {
			front = e.ItemID
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			e.Kind.String(),
			front,
			it.Reading,
			formatDue(e, now),
		})
	}
	return renderTable(w, "Queue", headers, rows, map[int]bool{0: true})
}

func formatDue(e queue.Entry, now time.Time) string {
	if e.Kind == queue.New {
		return "-"
	}
	late := now.Sub(e.DueAt)
	switch {
	case late < 0:
		return "soon"
	case late < time.Hour:
		return "now"
	case late < 24*time.Hour:
		return fmt.Sprintf("%dh late", int(late.Hours()))
	default:
		return fmt.Sprintf("%dd late", int(late.Hours()/24))
	}
}
