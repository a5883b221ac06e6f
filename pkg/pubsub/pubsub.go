// Package pubsub fans graph engine events out to web clients. The engine
// publishes; SSE handlers subscribe. Publishing never blocks on a slow
// consumer.
package pubsub

import (
	"context"
	"encoding/json"
)

// Topics published by the graph engine.
const (
	TopicGraphStatus = "graph_status"
	TopicGraphDelta  = "graph_delta"
)

// Event is one published message. Version numbers increase per topic so
// clients can detect gaps after a reconnect.
type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"` // e.g. "loading", "ready", "delta"
	Data    json.RawMessage `json:"data"`
	Version int             `json:"version"`
}

// Subscription is one consumer's view of a topic.
type Subscription interface {
	Topic() string
	Events() <-chan Event
	Close() error
}

// Publisher accepts events and delivers them to topic subscribers.
type Publisher interface {
	// Subscribe registers a consumer. Cancelling ctx closes the subscription.
	Subscribe(ctx context.Context, topic string) (Subscription, error)
	Publish(topic string, eventType string, data any) error
	Close() error
}

// GraphStatus describes the engine's load state for UI consumers.
type GraphStatus struct {
	State   string `json:"state"` // loading, watching, ready
	Message string `json:"message"`
	Nodes   int    `json:"nodes"`
}
