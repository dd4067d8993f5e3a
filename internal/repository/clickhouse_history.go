package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"TWPull/internal/domain/models"
	drepo "TWPull/internal/domain/repository"
)

// ClickHouseHistory implements HistoryStore on ClickHouse. Every collection
// run appends snapshot rows so historical index membership stays queryable.
type ClickHouseHistory struct {
	db            *sql.DB
	snapshotTable string
	changesTable  string
}

// NewClickHouseHistory creates ClickHouse-backed history storage.
func NewClickHouseHistory(db *sql.DB, snapshotTable, changesTable string) drepo.HistoryStore {
	return &ClickHouseHistory{db: db, snapshotTable: snapshotTable, changesTable: changesTable}
}

func (s *ClickHouseHistory) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseHistory) StoreSnapshot(ctx context.Context, index models.Index, instruments []models.Instrument, collectedAt time.Time) error {
	if len(instruments) == 0 {
		return nil
	}
	// Multi-row VALUES insert to reduce round-trips; the roster tops out
	// around a thousand symbols so a single statement is fine.
	values := make([]string, 0, len(instruments))
	args := make([]interface{}, 0, len(instruments)*5)
	for _, inst := range instruments {
		values = append(values, "(?, ?, ?, ?, ?)")
		args = append(args, string(index), inst.Symbol, inst.StartDate, inst.EndDate, collectedAt)
	}
	q := fmt.Sprintf("INSERT INTO %s (index_name, symbol, start_date, end_date, collected_at) VALUES %s",
		s.snapshotTable, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

func (s *ClickHouseHistory) StoreChanges(ctx context.Context, index models.Index, changes []models.Change) error {
	if len(changes) == 0 {
		return nil
	}
	values := make([]string, 0, len(changes))
	args := make([]interface{}, 0, len(changes)*4)
	for _, c := range changes {
		values = append(values, "(?, ?, ?, ?)")
		args = append(args, string(index), c.Symbol, c.Date, string(c.Type))
	}
	q := fmt.Sprintf("INSERT INTO %s (index_name, symbol, change_date, change_type) VALUES %s",
		s.changesTable, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert changes: %w", err)
	}
	return nil
}

func (s *ClickHouseHistory) QueryChanges(ctx context.Context, index models.Index, limit int) ([]models.Change, error) {
	q := fmt.Sprintf("SELECT symbol, change_date, change_type FROM %s WHERE index_name = ? ORDER BY change_date DESC LIMIT ?", s.changesTable)
	rows, err := s.db.QueryContext(ctx, q, string(index), limit)
	if err != nil {
		return nil, fmt.Errorf("query changes: %w", err)
	}
	defer rows.Close()

	var changes []models.Change
	for rows.Next() {
		var c models.Change
		var typ string
		if err := rows.Scan(&c.Symbol, &c.Date, &typ); err != nil {
			return nil, err
		}
		c.Type = models.ChangeType(typ)
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

func (s *ClickHouseHistory) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseHistory) Close() error {
	return nil // Managed by pkg
}
