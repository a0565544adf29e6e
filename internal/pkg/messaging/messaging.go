package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrUnsupported is returned when the selected broker lacks a feature, such as delayed delivery.
	ErrUnsupported = errors.New("messaging: unsupported operation")
	// ErrDestinationRequired is returned when Publish gets an empty destination.
	ErrDestinationRequired = errors.New("messaging: destination is required")
)

// Publisher sends messages to a destination (topic or subject) and owns its
// broker connection.
type Publisher interface {
	io.Closer
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// OutgoingMessage is a broker-agnostic message.
type OutgoingMessage struct {
	Body []byte
	// Key is used by Kafka for partitioning and by Pub/Sub as ordering key.
	Key []byte
	// Headers may repeat keys. Pub/Sub receives them as attributes, last value wins.
	Headers []Header
	// Delay requests deferred delivery; only NSQ supports it.
	Delay time.Duration
}

// Header is a message header.
type Header struct {
	Key   string
	Value []byte
}

// PublishResult carries what the broker reported back.
type PublishResult struct {
	// MessageID is set by brokers that assign one (Pub/Sub).
	MessageID string
	Topic     string
	Timestamp time.Time
}

func validate(ctx context.Context, destination string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if destination == "" {
		return ErrDestinationRequired
	}
	return nil
}
