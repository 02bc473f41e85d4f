// Copyright (c) 2025 BVK Chaitanya

package notify

import (
	"github.com/visvasity/topic"
)

// Broadcaster publishes events to all live subscribers.
type Broadcaster struct {
	events *topic.Topic[*Event]

	// queueSize limits the number of undelivered events per subscriber.
	queueSize int
}

func NewBroadcaster(queueSize int) *Broadcaster {
	return &Broadcaster{
		events:    topic.New[*Event](),
		queueSize: queueSize,
	}
}

func (b *Broadcaster) Publish(event *Event) {
	b.events.Send(event)
}

// Subscribe returns a receiver for all events published after the call.
// Callers must close the receiver when they are done.
func (b *Broadcaster) Subscribe() (*topic.Receiver[*Event], error) {
	return topic.Subscribe(b.events, b.queueSize, false /* includeRecent */)
}
