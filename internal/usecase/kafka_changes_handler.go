package usecase

import (
	"context"
	"encoding/json"
	"time"

	"TWPull/internal/domain/models"
	drepo "TWPull/internal/domain/repository"
	pkgkafka "TWPull/pkg/kafka"
)

// KafkaChangesHandler consumes change events and writes them to history.
type KafkaChangesHandler struct {
	topic   string
	history drepo.HistoryStore
	metrics drepo.Metrics
}

func NewKafkaChangesHandler(topic string, history drepo.HistoryStore, metrics drepo.Metrics) *KafkaChangesHandler {
	return &KafkaChangesHandler{topic: topic, history: history, metrics: metrics}
}

func (h *KafkaChangesHandler) Topic() string { return h.topic }

// incoming message schema: {index, symbol, date, type}
func (h *KafkaChangesHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Index  string `json:"index"`
		Symbol string `json:"symbol"`
		Date   int64  `json:"date"`
		Type   string `json:"type"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	index, err := models.ParseIndex(m.Index)
	if err != nil {
		h.metrics.RecordError("consumer_index")
		return err
	}

	start := time.Now()
	err = h.history.StoreChanges(ctx, index, []models.Change{{
		Symbol: m.Symbol,
		Date:   time.Unix(m.Date, 0),
		Type:   models.ChangeType(m.Type),
	}})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaChangesHandler)(nil)
