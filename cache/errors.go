package cache

import "go.trai.ch/zerr"

// ErrInvalidArgument is returned when a cache operation is called with a nil
// key, a nil loader, or a nil dependency type. It signals a caller bug.
var ErrInvalidArgument = zerr.New("invalid cache argument")

func invalidArgument(name string) error {
	return zerr.Wrap(ErrInvalidArgument, name+" must not be nil")
}
