package session

import (
	"math"
	"time"

	"github.com/thuan734655/all-tools-nihongo/internal/srs"
)

// Stats summarises one session.
type Stats struct {
	Reviewed  int
	Correct   int
	XPEarned  int
	ByGrade   map[srs.Grade]int
	StartedAt time.Time
	EndedAt   time.Time // zero until the session completes.
}

// Accuracy returns the rounded percentage of correct reviews, 0 when nothing
// was reviewed.
func (s Stats) Accuracy() int {
	return Accuracy(s.Correct, s.Reviewed)
}

// Accuracy returns round(100*correct/reviewed) clamped to [0, 100].
func Accuracy(correct, reviewed int) int {
	if reviewed <= 0 || correct <= 0 {
		return 0
	}
	if correct >= reviewed {
		return 100
	}
	return int(math.Round(100 * float64(correct) / float64(reviewed)))
}
