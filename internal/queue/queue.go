// Package queue defines the deferred work queue shared by the pipeline stages.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message is an outbound work item. A zero NotBefore means deliver now.
type Message struct {
	ID         string
	Body       []byte
	Attributes map[string]string
	NotBefore  time.Time
}

// Delivery is a received message. Receipt identifies it for Ack.
type Delivery struct {
	ID         string
	Body       []byte
	Attributes map[string]string
	Receipt    string
}

type Publisher interface {
	Send(ctx context.Context, queue string, msg Message) error
}

// Consumer hands out at-least-once deliveries. A delivery that is not
// acknowledged becomes visible again after the backend's visibility timeout.
type Consumer interface {
	Receive(ctx context.Context, queue string, max int) ([]Delivery, error)
	Ack(ctx context.Context, queue string, deliveries []Delivery) error
}

type Broker interface {
	Publisher
	Consumer
}

// NewJSONMessage marshals payload into a message with a fresh id.
func NewJSONMessage(payload any, attrs map[string]string) (Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{
		ID:         uuid.NewString(),
		Body:       body,
		Attributes: attrs,
	}, nil
}
