// Package srs implements the card scheduling policy behind the flashcard
// review flow: a SuperMemo-2 style ease factor with multiplicative interval
// growth and lapse handling.
//
// The policy is a pure function of (schedule, grade, now):
//
//	p, err := srs.NewPolicy(srs.PolicyConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	s := p.NewSchedule("vocab-1", time.Now())
//	s = p.Next(s, srs.Good, time.Now())
//
// Persisting the returned Schedule is the caller's job.
package srs
