package sundaews

import (
	"errors"
	"fmt"
)

// ErrMalformedEvent is reported when a change event has no usable value for
// the configured topic key.
var ErrMalformedEvent = errors.New("no real time item key found in event")

// ClientInputError is returned when the connect request is missing the data
// needed to register the connection.
type ClientInputError struct {
	Message string
}

func (e *ClientInputError) Error() string {
	return e.Message
}

// DeliveryError is a failed post to a connection that was not a gone
// connection.
type DeliveryError struct {
	ConnectionID string
	Err          error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to post to connection %v: %v", e.ConnectionID, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
