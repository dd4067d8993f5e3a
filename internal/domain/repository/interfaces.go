package repository

import (
	"context"
	"time"

	"TWPull/internal/domain/models"
)

// ExchangeSource fetches raw constituent codes from an upstream exchange.
type ExchangeSource interface {
	// FetchSymbols returns raw (un-normalized) stock codes for the given
	// trading date.
	FetchSymbols(ctx context.Context, date time.Time) ([]string, error)
	Name() string
}

// InstrumentStore persists instrument lists in the qlib directory layout.
type InstrumentStore interface {
	Write(ctx context.Context, index models.Index, instruments []models.Instrument) error
	Read(ctx context.Context, index models.Index) ([]models.Instrument, error)
	// Exists reports whether an instruments file is present for the index.
	Exists(index models.Index) bool
}

// HistoryStore appends collection snapshots and changes for later analysis.
type HistoryStore interface {
	Init(ctx context.Context) error
	StoreSnapshot(ctx context.Context, index models.Index, instruments []models.Instrument, collectedAt time.Time) error
	StoreChanges(ctx context.Context, index models.Index, changes []models.Change) error
	QueryChanges(ctx context.Context, index models.Index, limit int) ([]models.Change, error)
	Health(ctx context.Context) error
	Close() error
}

// Publisher emits constituent change events.
type Publisher interface {
	PublishChange(ctx context.Context, index models.Index, c models.Change) error
	PublishChanges(ctx context.Context, index models.Index, changes []models.Change) error
	Close() error
}

// Metrics records collector telemetry.
type Metrics interface {
	RecordCollected(index string, count int)
	RecordError(kind string)
	RecordLastRun(index string, ts time.Time)
	RecordLatency(op string, seconds float64)
}
