package logger

import (
	"context"
	"testing"
	"time"
)

type capturePublisher struct {
	batches chan []AggregatedLogEntry
	topics  chan string
}

func newCapturePublisher() *capturePublisher {
	return &capturePublisher{
		batches: make(chan []AggregatedLogEntry, 4),
		topics:  make(chan string, 4),
	}
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	batch, ok := payload.([]AggregatedLogEntry)
	if !ok {
		return nil
	}
	p.topics <- topic
	p.batches <- batch
	return nil
}

func waitBatch(t *testing.T, p *capturePublisher) []AggregatedLogEntry {
	t.Helper()
	select {
	case batch := <-p.batches:
		return batch
	case <-time.After(2 * time.Second):
		t.Fatalf("no batch published")
		return nil
	}
}

func TestLogCollectorDeduplicates(t *testing.T) {
	pub := newCapturePublisher()
	c := NewLogCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 2,
		Topic:          "digest",
		Publisher:      pub,
	})
	defer c.Close()

	c.AddLog("warn", "fetch failed", map[string]interface{}{"source": "twse"}, "client.go:42")
	c.AddLog("warn", "fetch failed", map[string]interface{}{"source": "twse"}, "client.go:42")
	c.AddLog("error", "write failed", nil, "store.go:10")

	batch := waitBatch(t, pub)
	if len(batch) != 2 {
		t.Fatalf("expected 2 aggregated entries, got %d", len(batch))
	}

	byMessage := make(map[string]AggregatedLogEntry, len(batch))
	for _, entry := range batch {
		byMessage[entry.Message] = entry
	}
	if got := byMessage["fetch failed"].Count; got != 2 {
		t.Fatalf("expected count 2 for repeated entry, got %d", got)
	}
	if got := byMessage["write failed"].Count; got != 1 {
		t.Fatalf("expected count 1, got %d", got)
	}
	if topic := <-pub.topics; topic != "digest" {
		t.Fatalf("expected topic digest, got %q", topic)
	}
}

func TestLogCollectorFlushesOnClose(t *testing.T) {
	pub := newCapturePublisher()
	c := NewLogCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 100,
		Topic:          "digest",
		Publisher:      pub,
	})

	c.AddLog("error", "boom", nil, "job.go:7")
	c.Close()

	batch := waitBatch(t, pub)
	if len(batch) != 1 || batch[0].Message != "boom" {
		t.Fatalf("unexpected batch: %+v", batch)
	}
}
