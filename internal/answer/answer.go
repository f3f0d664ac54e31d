// Package answer checks answers typed during a review.
package answer

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"

	"github.com/thuan734655/all-tools-nihongo/internal/model"
	"github.com/thuan734655/all-tools-nihongo/internal/srs"
)

const ignoredPunct = ".,!?、。！？"

// Result reports the outcome of Check.
type Result struct {
	Correct bool
	// Matched is the accepted answer that matched, as stored on the item.
	Matched string
}

// Normalize folds full-width and half-width forms, lowercases, and drops
// whitespace and sentence punctuation.
func Normalize(s string) string {
	s = width.Fold.String(s)
	s = strings.ToLower(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || strings.ContainsRune(ignoredPunct, r) {
			return -1
		}
		return r
	}, s)
}

// Check compares typed against every answer the item accepts: reading, romaji,
// meanings and the front itself. A match is either string containing the
// other after normalization. Blank input never matches.
func Check(item model.Item, typed string) Result {
	got := Normalize(typed)
	if got == "" {
		return Result{}
	}
	for _, raw := range item.Answers() {
		want := Normalize(raw)
		if want == "" {
			continue
		}
		if want == got || strings.Contains(want, got) || strings.Contains(got, want) {
			return Result{Correct: true, Matched: raw}
		}
	}
	return Result{}
}

// SuggestGrade maps a typed result to the grade applied when the user does
// not pick one.
func SuggestGrade(r Result) srs.Grade {
	if r.Correct {
		return srs.Good
	}
	return srs.Again
}
