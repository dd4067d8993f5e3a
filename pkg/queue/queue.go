package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// QueueConfig tunes worker count and retry behaviour.
type QueueConfig struct {
	Workers    int           // number of consumer workers
	RetryLimit int           // maximum delivery attempts per message
	RetryDelay time.Duration // delay before a failed message is requeued
}

// Message is the envelope stored in the queue.
type Message struct {
	ID        string
	Type      string
	Payload   interface{}
	Attempts  int
	Timestamp time.Time
}

// ParsePayload converts a dequeued payload into *T. Payloads arrive either
// as the original Go value (same-process enqueue) or as decoded JSON
// (map/slice/RawMessage) after a round trip through Redis.
func ParsePayload[T any](payload interface{}) (*T, error) {
	var result T

	switch p := payload.(type) {
	case *T:
		return p, nil
	case T:
		return &p, nil
	case map[string]interface{}, []interface{}:
		raw, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		return &result, nil
	case json.RawMessage:
		if err := json.Unmarshal(p, &result); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		return &result, nil
	default:
		return nil, fmt.Errorf("unsupported payload type: %T", payload)
	}
}
