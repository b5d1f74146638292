package engine

import (
	"errors"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// busyClassifiers recognise driver specific contention errors. Build-tagged
// files append to it for drivers that are only available in some builds.
var busyClassifiers = []func(error) bool{
	func(err error) bool { return errors.Is(err, ErrBusy) },
	isModerncBusy,
}

// IsBusy reports whether err signals transient lock contention that is worth retrying.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	for _, classify := range busyClassifiers {
		if classify(err) {
			return true
		}
	}
	return false
}

func isModerncBusy(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	// extended codes keep the primary code in the low byte
	code := sqliteErr.Code() & 0xff
	return code == sqlite3lib.SQLITE_BUSY || code == sqlite3lib.SQLITE_LOCKED
}
