// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/thuan734655/all-tools-nihongo/internal/model"
	"github.com/thuan734655/all-tools-nihongo/internal/session"
)

const sparkChars = " .:-=+*#%@"

// SessionAccuracy returns the rounded accuracy percentage of a stored session.
func SessionAccuracy(s model.SessionRecord) int {
	return session.Accuracy(s.Correct, s.Reviewed)
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints totals over the given sessions.
func RenderSummary(w io.Writer, sessions []model.SessionRecord, streak StreakInfo) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	var reviewed, correct, xp int
	best := 0
	for _, s := range sessions {
		reviewed += s.Reviewed
		correct += s.Correct
		xp += s.XP
		best = max(best, s.Reviewed)
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", len(sessions)),
		fmt.Sprintf("Cards reviewed: %d", reviewed),
		fmt.Sprintf("Best session: %d cards", best),
		fmt.Sprintf("Accuracy: %d%%", session.Accuracy(correct, reviewed)),
		fmt.Sprintf("XP: %d", xp),
		fmt.Sprintf("Streak: %d days (longest %d)", streak.Current, streak.Longest),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCurves prints accuracy and volume sparklines smoothed over window
// sessions.
func RenderCurves(w io.Writer, sessions []model.SessionRecord, window int) error {
	if len(sessions) < 2 {
		return nil
	}
	accs := make([]float64, len(sessions))
	counts := make([]float64, len(sessions))
	for i, s := range sessions {
		accs[i] = float64(SessionAccuracy(s))
		counts[i] = float64(s.Reviewed)
	}
	rows := [][]string{
		{"Accuracy", Sparkline(MovingAverage(accs, window))},
		{"Reviewed", Sparkline(MovingAverage(counts, window))},
	}
	if _, err := fmt.Fprintln(w, "Trend (oldest to newest)"); err != nil {
		return err
	}
	for _, line := range formatTable(nil, rows, nil) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderOverview prints card counts per deck.
func RenderOverview(w io.Writer, decks []model.Overview) error {
	if len(decks) == 0 {
		_, err := fmt.Fprintln(w, "No cards imported yet.")
		return err
	}
	headers := []string{"Deck", "Cards", "New", "Due", "Learning", "Lapses"}
	rows := make([][]string, 0, len(decks))
	for _, d := range decks {
		rows = append(rows, []string{
			d.Deck,
			fmt.Sprintf("%d", d.Total),
			fmt.Sprintf("%d", d.New),
			fmt.Sprintf("%d", d.Due),
			fmt.Sprintf("%d", d.Learning),
			fmt.Sprintf("%d", d.Lapses),
		})
	}
	return renderTable(w, "Decks", headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true})
}

// RenderLeeches prints the cards with the most lapses.
func RenderLeeches(w io.Writer, leeches []model.Leech) error {
	if len(leeches) == 0 {
		return nil
	}
	headers := []string{"Card", "Reading", "Meaning", "Lapses", "Ease"}
	rows := make([][]string, 0, len(leeches))
	for _, l := range leeches {
		rows = append(rows, []string{
			l.Item.Front,
			l.Item.Reading,
			l.Item.Meaning,
			fmt.Sprintf("%d", l.Lapses),
			fmt.Sprintf("%.2f", l.Ease),
		})
	}
	return renderTable(w, "Leeches", headers, rows, map[int]bool{3: true, 4: true})
}

func renderTable(w io.Writer, title string, headers []string, rows [][]string, rightAlign map[int]bool) error {
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
