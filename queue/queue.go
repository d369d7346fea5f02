// Package queue provides thin publisher and consumer wrappers over a Kafka
// client, replacing the exchange/queue surface of a classic message broker
// with topics. Messages are JSON bodies carrying a generated message ID.
package queue

import (
	"errors"
	"time"
)

// ErrNoBrokers is returned when constructing a publisher or consumer without
// seed brokers.
var ErrNoBrokers = errors.New("queue: at least one broker is required")

// messageIDHeader carries the generated message ID on the wire.
const messageIDHeader = "message-id"

// Config configures publishers and consumers.
type Config struct {
	// Brokers is the list of seed broker addresses.
	Brokers []string

	// ClientID identifies this client to the brokers.
	ClientID string
}

// Message is a single consumed message handed to a Handler.
type Message struct {
	// Topic the message was consumed from.
	Topic string

	// Key is the optional partitioning key.
	Key []byte

	// Value is the raw message body.
	Value []byte

	// ID is the message ID assigned at publish time, empty when the
	// producer did not set one.
	ID string

	// Timestamp is the broker record timestamp.
	Timestamp time.Time
}
