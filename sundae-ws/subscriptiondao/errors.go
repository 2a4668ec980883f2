package subscriptiondao

import (
	"errors"
	"fmt"
)

// ErrUnavailable marks any failure to reach the backing store. Callers treat it
// as fatal for the enclosing request.
var ErrUnavailable = errors.New("subscription store unavailable")

func unavailable(err error, format string, args ...interface{}) error {
	return fmt.Errorf("%v: %w: %w", fmt.Sprintf(format, args...), ErrUnavailable, err)
}
