package broker

import (
	"context"
	"time"
)

// Notification types published by the engine
const (
	TestCreated        = "test.created"
	TestStatusChanged  = "test.status_changed"
	VisitorAssigned    = "visitor.assigned"
	ConversionRecorded = "conversion.recorded"
	ResultsComputed    = "results.computed"
)

// Message is one engine notification. Key groups messages that must stay
// ordered; the engine uses the test id.
type Message struct {
	Type    string
	Key     string
	Payload any
	Time    time.Time
}

// Publisher delivers notifications to downstream collaborators.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Nop drops every message.
type Nop struct{}

func (Nop) Publish(context.Context, Message) error { return nil }
func (Nop) Close() error                           { return nil }
