package engine

import (
	"fmt"

	"go.trai.ch/zerr"
)

var (
	// ErrBusy is the generic transient-contention signal. SQLite driver errors
	// carrying SQLITE_BUSY or SQLITE_LOCKED are classified as busy as well.
	ErrBusy = zerr.New("database is busy")

	// ErrCanceled is returned when the caller's context ends before the
	// exclusive section was entered. Nothing has been executed on that path.
	ErrCanceled = zerr.New("operation canceled")

	// ErrInvalidArgument is returned for nil or zero-valued keys, filters and callbacks.
	ErrInvalidArgument = zerr.New("invalid argument")

	// ErrReentrant is returned when code already running inside a connection's
	// exclusive section tries to enter it again, which would otherwise deadlock.
	ErrReentrant = zerr.New("re-entrant call into exclusive section")
)

func canceled(cause error) error {
	return fmt.Errorf("%w: %w", ErrCanceled, cause)
}

func invalidArgument(format string, args ...any) error {
	return zerr.Wrap(ErrInvalidArgument, fmt.Sprintf(format, args...))
}
