package generate

// EventType discriminates the notifications emitted during a generation.
type EventType string

const (
	// EventProgress reports attempt dispatch and retry waits. It may fire
	// any number of times before the terminal event.
	EventProgress EventType = "progress"
	// EventSucceeded delivers the normalized formula. Terminal.
	EventSucceeded EventType = "succeeded"
	// EventFailed delivers the failure kind and message. Terminal.
	EventFailed EventType = "failed"
)

// FailureKind classifies a terminal generation failure.
type FailureKind string

const (
	// FailTimeout: every attempt exceeded the per-request timeout.
	FailTimeout FailureKind = "timeout"
	// FailTransport: every attempt failed at the network layer, including
	// non-2xx responses from the endpoint.
	FailTransport FailureKind = "transport"
	// FailUnexpected: request construction or response decoding broke;
	// reported immediately without retrying.
	FailUnexpected FailureKind = "unexpected"
)

// Event is one notification from an in-flight generation. A generation
// emits zero or more progress events followed by at most one terminal
// event, then its channel closes. A cancelled generation closes the
// channel without any terminal event.
type Event struct {
	Type      EventType
	Message   string
	Formula   string      // set on EventSucceeded
	FromCache bool        // set when the formula came from the result cache
	Kind      FailureKind // set on EventFailed
}

func progressEvent(message string) Event {
	return Event{Type: EventProgress, Message: message}
}

func succeededEvent(formulaText string) Event {
	return Event{Type: EventSucceeded, Formula: formulaText}
}

func failedEvent(kind FailureKind, message string) Event {
	return Event{Type: EventFailed, Kind: kind, Message: message}
}
