package srs

import (
	"encoding"
	"encoding/json"
	"fmt"
	"strings"
)

// Grade is the recall quality reported for one review.
type Grade int

const (
	Again Grade = iota + 1 // Failed to recall.
	Hard                   // Recalled with serious effort.
	Good                   // Recalled after some hesitation.
	Easy                   // Recalled instantly.
)

// Grades lists every valid grade in button order.
var Grades = []Grade{Again, Hard, Good, Easy}

var (
	gradeNames  = [...]string{Again: "again", Hard: "hard", Good: "good", Easy: "easy"}
	gradeByName = map[string]Grade{
		"again": Again,
		"hard":  Hard,
		"good":  Good,
		"easy":  Easy,
	}
)

var (
	_ fmt.Stringer             = Grade(0)
	_ json.Marshaler           = Grade(0)
	_ json.Unmarshaler         = (*Grade)(nil)
	_ encoding.TextMarshaler   = Grade(0)
	_ encoding.TextUnmarshaler = (*Grade)(nil)
)

// IsValid reports whether g is one of Again, Hard, Good or Easy.
func (g Grade) IsValid() bool {
	return g >= Again && g <= Easy
}

// IsCorrect reports whether the grade counts as a correct recall.
func (g Grade) IsCorrect() bool {
	return g == Good || g == Easy
}

// String returns the lowercase grade name, or "Grade(n)" for invalid values.
func (g Grade) String() string {
	if g.IsValid() {
		return gradeNames[g]
	}
	return fmt.Sprintf("Grade(%d)", int(g))
}

// ParseGrade accepts a grade name (case-insensitive) or its button number 1-4.
func ParseGrade(s string) (Grade, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if g, ok := gradeByName[s]; ok {
		return g, nil
	}
	if len(s) == 1 && s[0] >= '1' && s[0] <= '4' {
		return Grade(s[0] - '0'), nil
	}
	return 0, fmt.Errorf("%w: unknown grade %q", ErrInvalidArgument, s)
}

// MarshalText implements encoding.TextMarshaler.
func (g Grade) MarshalText() ([]byte, error) {
	if !g.IsValid() {
		return nil, fmt.Errorf("%w: grade %d", ErrInvalidArgument, int(g))
	}
	return []byte(gradeNames[g]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Grade) UnmarshalText(text []byte) error {
	v, ok := gradeByName[string(text)]
	if !ok {
		return fmt.Errorf("%w: grade %q", ErrInvalidArgument, text)
	}
	*g = v
	return nil
}

// MarshalJSON implements json.Marshaler. Grade serializes as a JSON string.
func (g Grade) MarshalJSON() ([]byte, error) {
	text, err := g.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler.
func (g *Grade) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: grade %s", ErrInvalidArgument, data)
	}
	return g.UnmarshalText([]byte(s))
}
