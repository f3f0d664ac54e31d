package tui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/thuan734655/all-tools-nihongo/internal/answer"
	"github.com/thuan734655/all-tools-nihongo/internal/srs"
)

// RunLines drives a review over plain text streams, one prompt per line. It
// returns nil when the input ends early and ctx.Err() when ctx is cancelled
// while waiting for input; cards graded so far stay saved either way.
func RunLines(ctx context.Context, review *Review, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	// The reader goroutine may stay blocked on in after a cancel; it exits
	// with the process or when in is closed.
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
		close(lines)
	}()

	var readErr error
	readLine := func() (string, bool) {
		select {
		case <-ctx.Done():
			readErr = ctx.Err()
			return "", false
		case line, ok := <-lines:
			if !ok {
				readErr = <-scanErr
				return "", false
			}
			return strings.TrimSpace(line), true
		}
	}

	for !review.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		card, err := review.Current()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(out, "\n%s\n%s\n", progressLine(review), card.Item.Front); err != nil {
			return err
		}

		var suggested srs.Grade
		if review.Typed {
			if _, err := fmt.Fprint(out, "answer> "); err != nil {
				return err
			}
			typed, ok := readLine()
			if !ok {
				return readErr
			}
			res := answer.Check(card.Item, typed)
			suggested = answer.SuggestGrade(res)
			verdict := "incorrect"
			if res.Correct {
				verdict = "correct"
			}
			if _, err := fmt.Fprintln(out, verdict); err != nil {
				return err
			}
		} else {
			if _, err := fmt.Fprint(out, "press enter to reveal"); err != nil {
				return err
			}
			if _, ok := readLine(); !ok {
				return readErr
			}
		}

		for _, line := range answerLines(card.Item) {
			if _, err := fmt.Fprintf(out, "  %s\n", line); err != nil {
				return err
			}
		}

		g, ok, err := promptGrade(review, card, suggested, out, readLine)
		if err != nil {
			return err
		}
		if !ok {
			return readErr
		}
		if err := review.Grade(ctx, g); err != nil {
			return err
		}
	}
	return nil
}

func promptGrade(review *Review, card Card, suggested srs.Grade, out io.Writer, readLine func() (string, bool)) (srs.Grade, bool, error) {
	for {
		prompt := review.GradeHints(card.Schedule) + "\ngrade> "
		if _, err := fmt.Fprint(out, prompt); err != nil {
			return 0, false, err
		}
		text, ok := readLine()
		if !ok {
			return 0, false, nil
		}
		if text == "" && suggested.IsValid() {
			return suggested, true, nil
		}
		g, err := srs.ParseGrade(text)
		if err == nil {
			return g, true, nil
		}
		if _, err := fmt.Fprintf(out, "unknown grade %q\n", text); err != nil {
			return 0, false, err
		}
	}
}
