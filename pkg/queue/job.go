package queue

import "context"

// Job consumes messages of one type. The consumer dispatches each
// message to the job whose Type matches.
type Job interface {
	// Name identifies the job in logs.
	Name() string

	// Type is the message type this job handles.
	Type() string

	// Handle processes one message payload.
	Handle(ctx context.Context, payload interface{}) error
}
