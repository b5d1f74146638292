//go:build cgo

package engine

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

func init() {
	busyClassifiers = append(busyClassifiers, isMattnBusy)
}

func isMattnBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}
