package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// wrapText breaks text into lines of at most width terminal cells. Lines break
// at the last space when there is one; text without spaces, such as Japanese,
// breaks at the cell limit.
func wrapText(text string, width int) string {
	if width <= 0 || runewidth.StringWidth(text) <= width {
		return text
	}
	var out strings.Builder
	line := make([]rune, 0, len(text))
	lineWidth := 0
	lastSpace := -1

	runes := []rune(text)
	for i := 0; i < len(runes); {
		r := runes[i]
		w := runewidth.RuneWidth(r)
		if lineWidth+w > width && len(line) > 0 {
			if lastSpace >= 0 {
				out.WriteString(string(line[:lastSpace]))
				out.WriteRune('\n')
				line = append([]rune{}, line[lastSpace+1:]...)
				lineWidth = runewidth.StringWidth(string(line))
				lastSpace = lastSpaceIndex(line)
			} else {
				out.WriteString(string(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpace = -1
			}
			continue
		}
		line = append(line, r)
		lineWidth += w
		if r == ' ' {
			lastSpace = len(line) - 1
		}
		i++
	}
	out.WriteString(string(line))
	return out.String()
}

func lastSpaceIndex(line []rune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i] == ' ' {
			return i
		}
	}
	return -1
}
