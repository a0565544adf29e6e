package messaging

import (
	"context"
	"io"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Noop discards messages.
type Noop struct{}

func (Noop) Publish(ctx context.Context, destination string, _ OutgoingMessage) (PublishResult, error) {
	if err := validate(ctx, destination); err != nil {
		return PublishResult{}, err
	}
	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}

func (Noop) Close() error { return nil }

// Published is a message captured by Memory.
type Published struct {
	Destination string
	Message     OutgoingMessage
}

// Memory records published messages in order.
type Memory struct {
	closed atomic.Bool

	mu  sync.Mutex
	log []Published
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := validate(ctx, destination); err != nil {
		return PublishResult{}, err
	}
	if m.closed.Load() {
		return PublishResult{}, io.ErrClosedPipe
	}

	m.mu.Lock()
	m.log = append(m.log, Published{Destination: destination, Message: msg})
	m.mu.Unlock()

	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}

// Messages returns a copy of everything published so far.
func (m *Memory) Messages() []Published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Published(nil), m.log...)
}

func (m *Memory) Close() error {
	m.closed.Store(true)
	return nil
}
