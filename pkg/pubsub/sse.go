package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"vaultgraph/pkg/logging"
)

// Per-subscriber channel depth. Full channels drop events instead of
// stalling the engine loop.
const subscriberBuffer = 100

// TopicConfig controls what a new subscriber sees of a topic's history.
type TopicConfig struct {
	BufferSize int  // events retained per topic, 0 disables replay
	ReplayAll  bool // replay the whole buffer instead of just the last event
}

// SSEPublisher is the in-process Publisher behind the SSE endpoints. It
// retains a bounded history per topic so clients that connect after the
// initial load can catch up.
type SSEPublisher struct {
	mu      sync.Mutex
	subs    map[string]map[*subscription]struct{}
	history map[string][]Event
	version map[string]int
	configs map[string]TopicConfig
	closed  bool
}

// NewSSEPublisher creates an empty publisher. Topics need no registration;
// ConfigureTopic only matters when replay is wanted.
func NewSSEPublisher() *SSEPublisher {
	return &SSEPublisher{
		subs:    make(map[string]map[*subscription]struct{}),
		history: make(map[string][]Event),
		version: make(map[string]int),
		configs: make(map[string]TopicConfig),
	}
}

// ConfigureTopic sets the retention policy for a topic.
func (p *SSEPublisher) ConfigureTopic(topic string, config TopicConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.configs[topic] = config
}

// Subscribe registers a consumer and replays retained history according to
// the topic's configuration. Cancelling ctx closes the subscription.
func (p *SSEPublisher) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, fmt.Errorf("publisher is closed")
	}

	sub := &subscription{
		topic:     topic,
		events:    make(chan Event, subscriberBuffer),
		publisher: p,
	}
	if p.subs[topic] == nil {
		p.subs[topic] = make(map[*subscription]struct{})
	}
	p.subs[topic][sub] = struct{}{}

	replay := append([]Event(nil), p.history[topic]...)
	if !p.configs[topic].ReplayAll && len(replay) > 1 {
		replay = replay[len(replay)-1:]
	}
	p.mu.Unlock()

	for _, event := range replay {
		select {
		case sub.events <- event:
		default:
			logging.Warn("replay dropped, subscriber buffer full", "topic", topic)
		}
	}
	if len(replay) > 0 {
		logging.Debug("replayed history to new subscriber", "topic", topic, "count", len(replay))
	}

	go func() {
		<-ctx.Done()
		sub.Close()
	}()
	return sub, nil
}

// Publish marshals data, stamps it with the topic's next version, stores it
// in the topic history, and delivers it to every current subscriber without
// blocking.
func (p *SSEPublisher) Publish(topic string, eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("publisher is closed")
	}

	p.version[topic]++
	event := Event{
		Topic:   topic,
		Type:    eventType,
		Data:    payload,
		Version: p.version[topic],
	}

	if max := p.configs[topic].BufferSize; max > 0 {
		kept := append(p.history[topic], event)
		if len(kept) > max {
			kept = kept[len(kept)-max:]
		}
		p.history[topic] = kept
	}

	for sub := range p.subs[topic] {
		select {
		case sub.events <- event:
		default:
			logging.Warn("subscriber buffer full, dropping event", "topic", topic)
		}
	}
	return nil
}

// Close shuts down the publisher and every open subscription.
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	for _, subs := range p.subs {
		for sub := range subs {
			close(sub.events)
		}
	}
	p.subs = make(map[string]map[*subscription]struct{})
	return nil
}

func (p *SSEPublisher) unsubscribe(sub *subscription) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if subs := p.subs[sub.topic]; subs != nil {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(p.subs, sub.topic)
		}
	}
}

type subscription struct {
	topic     string
	events    chan Event
	publisher *SSEPublisher

	mu     sync.Mutex
	closed bool
}

func (s *subscription) Topic() string        { return s.topic }
func (s *subscription) Events() <-chan Event { return s.events }

func (s *subscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.publisher.unsubscribe(s)
	return nil
}

// WriteSSE writes one event as a server-sent-events frame: "data: {json}\n\n".
func WriteSSE(w io.Writer, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}
