package deviceevent

import (
	"errors"
	"fmt"
)

var ErrMalformedEvent = errors.New("malformed device event")

// MalformedEventError reports the first delimiter that was missing where the
// grammar required it.
type MalformedEventError struct {
	Offset    int
	Delimiter byte
	Fragment  string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("%v: expected %q at offset %d near %q", ErrMalformedEvent, e.Delimiter, e.Offset, e.Fragment)
}

func (e *MalformedEventError) Is(target error) bool {
	return target == ErrMalformedEvent
}
