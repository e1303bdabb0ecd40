package events

import "context"

// Backend defines the broker-agnostic publish operation used by the app.
// Report lifecycle events (created, status changed) are fanned out through
// it so downstream consumers (notification workers, dashboards) can react
// without the API waiting on them.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// Publisher wraps a backend with a stable API.
type Publisher struct {
	backend Backend
}

// NewPublisher constructs a Publisher for the provided backend.
func NewPublisher(backend Backend) *Publisher {
	return &Publisher{backend: backend}
}

// Publish sends an event to the named channel.
func (p *Publisher) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	return p.backend.Publish(ctx, channel, data, attrs)
}

// Close closes the underlying backend.
func (p *Publisher) Close() error {
	return p.backend.Close()
}
