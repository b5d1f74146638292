package repository

import (
	"reflect"

	"go.trai.ch/zerr"

	"github.com/goliatone/go-modelstore/engine"
)

var (
	// ErrNoRow matches every *NoRowError.
	ErrNoRow = zerr.New("no row")

	// Errors surfaced from the storage engine, re-exported so callers need
	// only this package for errors.Is checks.
	ErrInvalidArgument = engine.ErrInvalidArgument
	ErrBusy            = engine.ErrBusy
	ErrCanceled        = engine.ErrCanceled
	ErrReentrant       = engine.ErrReentrant
)

// NoRowError reports that a First* read found nothing. Entity is the entity
// type, Type its name as shown in the message, and Qualifier says what was
// looked up: "First", "For filter: <filter>." or "For pk: <key>.".
type NoRowError struct {
	Entity    reflect.Type
	Type      string
	Qualifier string
}

func (e *NoRowError) Error() string {
	return e.Type + ": " + e.Qualifier
}

// Is makes errors.Is(err, ErrNoRow) hold.
func (e *NoRowError) Is(target error) bool {
	return target == ErrNoRow
}

// NoRowFirst reports an empty result for an unqualified First.
func NoRowFirst(entity reflect.Type) error {
	return noRow(entity, "First")
}

// NoRowForFilter reports that nothing matched filter.
func NoRowForFilter(entity reflect.Type, filter engine.Filter) error {
	return noRow(entity, "For filter: "+filter.String()+".")
}

// NoRowForKey reports that no row has the primary key.
func NoRowForKey(entity reflect.Type, key engine.PrimaryKey) error {
	return noRow(entity, "For pk: "+key.String()+".")
}

func noRow(entity reflect.Type, qualifier string) error {
	return &NoRowError{Entity: entity, Type: typeName(entity), Qualifier: qualifier}
}

func invalidArgument(msg string) error {
	return zerr.Wrap(ErrInvalidArgument, msg)
}
