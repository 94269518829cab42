// Package messagequeue is the port for Principal's message bus: request
// ingress on requests.submit and response notifications on responses.*.
package messagequeue

import "context"

// Handler consumes one message. Returning an error asks for redelivery;
// ctx carries the publisher's request id when one was sent.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue publishes to and consumes from subjects.
type Queue interface {
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe starts consuming subject. Call the returned function to stop.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Drain lets in-flight messages finish, then closes the connection.
	Drain() error
	Close() error
	IsConnected() bool
}

const (
	SubjectRequestSubmit   = "requests.submit"
	SubjectRequestAccepted = "requests.accepted"

	// Approved and partial responses go to published, the rest to rejected.
	SubjectResponsePublished = "responses.published"
	SubjectResponseRejected  = "responses.rejected"
)

// StreamSubjects are captured by the JetStream stream, dead letter
// subjects included.
var StreamSubjects = []string{"requests.>", "responses.>"}

// DLQSuffix turns a subject into its dead letter subject.
const DLQSuffix = ".dlq"
