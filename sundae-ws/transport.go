package sundaews

import "context"

// OutcomeKind is the result of a single post to a connection.
type OutcomeKind int

const (
	Delivered OutcomeKind = iota
	Gone
	Failed
)

func (k OutcomeKind) String() string {
	switch k {
	case Delivered:
		return "delivered"
	case Gone:
		return "gone"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is returned by a Sender for every attempted post. Err is set only
// when Kind is Failed.
type Outcome struct {
	Kind OutcomeKind
	Err  error
}

// Sender posts a payload to a single connection. Gone is the transport's signal
// that the connection no longer exists. Timeouts are the Sender's concern.
type Sender interface {
	Send(ctx context.Context, connectionID string, payload []byte) Outcome
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, connectionID string, payload []byte) Outcome

func (fn SenderFunc) Send(ctx context.Context, connectionID string, payload []byte) Outcome {
	return fn(ctx, connectionID, payload)
}

func DeliveredOutcome() Outcome { return Outcome{Kind: Delivered} }

func GoneOutcome() Outcome { return Outcome{Kind: Gone} }

func FailedOutcome(err error) Outcome { return Outcome{Kind: Failed, Err: err} }
