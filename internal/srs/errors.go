package srs

import "errors"

// Sentinel errors shared by the scheduler packages.
// Use errors.Is to check: errors.Is(err, srs.ErrEmptyQueue)
var (
	ErrInvalidArgument = errors.New("srs: invalid argument")
	ErrInvalidState    = errors.New("srs: invalid state")
	ErrEmptyQueue      = errors.New("srs: empty queue")
)
