// Package events mirrors field broadcasts onto a message bus so processes
// other than the API server can follow them.
package events

import (
	"context"
	"strings"
)

// SubjectPrefix namespaces every field subject.
const SubjectPrefix = "field."

// AllSubjects matches every field subject.
const AllSubjects = SubjectPrefix + ">"

// Subject maps a broadcast type such as "loop_created" to "field.loop.created".
// Only the first underscore becomes a dot.
func Subject(messageType string) string {
	return SubjectPrefix + strings.Replace(messageType, "_", ".", 1)
}

// Message is the envelope shared by the websocket feed and the bus.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, subject string, event any) error
	Close() error
}
