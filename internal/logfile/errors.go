package logfile

import "errors"

var (
	// ErrInvalidInput is returned when a log has fewer than two lines or
	// fewer than two lines carrying a timestamp. Such a file cannot be
	// compared and must be rejected.
	ErrInvalidInput = errors.New("invalid log input")

	// ErrMissingTimestamp is returned when reading the timestamp of a line
	// that has none.
	ErrMissingTimestamp = errors.New("timestamp was not set")

	// ErrMissingTemplate is returned when reading the template of a line
	// before templates were assigned.
	ErrMissingTemplate = errors.New("template was not set")

	// ErrScoreOutOfRange is returned when a heuristic value falls outside [0, 1].
	ErrScoreOutOfRange = errors.New("heuristic value must be within [0, 1]")

	// ErrNoScore is returned when a line has no value for a heuristic.
	ErrNoScore = errors.New("heuristic value does not exist")
)
