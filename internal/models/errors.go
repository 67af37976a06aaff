package models

import "errors"

// Epsilon guards every ratio whose denominator can collapse to zero.
const Epsilon = 1e-12

var (
	// ErrDataUnavailable: a fetch for one instrument/timeframe failed. The instrument is skipped.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrInsufficientHistory: a series is shorter than the window an indicator or stage needs.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrUpstreamUnreachable: the instrument universe could not be listed. Fatal for the pass.
	ErrUpstreamUnreachable = errors.New("upstream unreachable")
	// ErrWindowExceedsHistory is returned by the bounded Series accessors.
	ErrWindowExceedsHistory = errors.New("window exceeds history")
)
