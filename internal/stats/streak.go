package stats

import (
	"sort"
	"time"

	"github.com/thuan734655/all-tools-nihongo/internal/model"
)

// StreakInfo holds consecutive study day counts.
type StreakInfo struct {
	Current int
	Longest int
}

// Streak counts consecutive calendar days with at least one reviewed card,
// using now's location for day boundaries. The current streak stays alive
// until a full day passes without study.
func Streak(sessions []model.SessionRecord, now time.Time) StreakInfo {
	loc := now.Location()
	seen := map[time.Time]struct{}{}
	var days []time.Time
	for _, s := range sessions {
		if s.Reviewed <= 0 {
			continue
		}
		d := dayOf(s.EndedAt.In(loc))
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	if len(days) == 0 {
		return StreakInfo{}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	var info StreakInfo
	run := 1
	info.Longest = 1
	for i := 1; i < len(days); i++ {
		if days[i].Equal(days[i-1].AddDate(0, 0, 1)) {
			run++
		} else {
			run = 1
		}
		info.Longest = max(info.Longest, run)
	}

	today := dayOf(now)
	last := days[len(days)-1]
	if last.Equal(today) || last.Equal(today.AddDate(0, 0, -1)) {
		info.Current = run
	}
	return info
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
