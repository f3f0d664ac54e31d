package stats

import (
	"sort"

	"github.com/thuan734655/all-tools-nihongo/internal/model"
)

// TopDecksByReviews returns the top N decks by cards reviewed across sessions.
func TopDecksByReviews(sessions []model.SessionRecord, n int) []string {
	if n <= 0 || len(sessions) == 0 {
		return nil
	}
	totals := map[string]int{}
	for _, s := range sessions {
		totals[s.Deck] += s.Reviewed
	}
	type deck struct {
		name  string
		total int
	}
	decks := make([]deck, 0, len(totals))
	for name, total := range totals {
		decks = append(decks, deck{name: name, total: total})
	}
	sort.Slice(decks, func(i, j int) bool {
		if decks[i].total == decks[j].total {
			return decks[i].name < decks[j].name
		}
		return decks[i].total > decks[j].total
	})
	n = min(n, len(decks))
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, decks[i].name)
	}
	return out
}
