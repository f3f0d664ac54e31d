package stats

import (
	"sort"

	"github.com/thuan734655/all-tools-nihongo/internal/model"
	"github.com/thuan734655/all-tools-nihongo/internal/srs"
)

// DefaultLeechThreshold is the lapse count from which a card is a leech.
const DefaultLeechThreshold = 4

// Leeches returns up to top cards with at least threshold lapses, most lapses
// first, then lowest ease, then item ID.
func Leeches(items []model.Item, schedules []srs.Schedule, threshold, top int) []model.Leech {
	if top <= 0 || len(schedules) == 0 {
		return nil
	}
	if threshold <= 0 {
		threshold = DefaultLeechThreshold
	}
	byID := make(map[string]model.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	var out []model.Leech
	for _, s := range schedules {
		if s.Lapses < threshold {
			continue
		}
		it, ok := byID[s.ItemID]
		if !ok {
			it = model.Item{ID: s.ItemID, Front: s.ItemID}
		}
		out = append(out, model.Leech{Item: it, Lapses: s.Lapses, Ease: s.EaseFactor})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Lapses != out[j].Lapses {
			return out[i].Lapses > out[j].Lapses
		}
		if out[i].Ease != out[j].Ease {
			return out[i].Ease < out[j].Ease
		}
		return out[i].Item.ID < out[j].Item.ID
	})
	if len(out) > top {
		out = out[:top]
	}
	return out
}
