package inventory

import (
	"context"
	"fmt"
	"time"

	"dsrsales/internal/core/id"
)

// Recorder appends history rows. Every transition calls it explicitly, inside
// the transaction that performs the change.
type Recorder struct {
	repo HistoryRepository
	now  func() time.Time
}

// NewRecorder creates a history recorder.
func NewRecorder(repo HistoryRepository) *Recorder {
	return &Recorder{repo: repo, now: time.Now}
}

// Record appends one row. ID and timestamp are assigned here.
func (r *Recorder) Record(ctx context.Context, e HistoryEntry) error {
	r.stamp(&e)
	if err := r.repo.Append(ctx, &e); err != nil {
		return fmt.Errorf("record %s history: %w", e.Action, err)
	}
	return nil
}

// RecordMany appends rows in one batch.
func (r *Recorder) RecordMany(ctx context.Context, entries []HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]*HistoryEntry, len(entries))
	for i := range entries {
		r.stamp(&entries[i])
		rows[i] = &entries[i]
	}
	if err := r.repo.AppendMany(ctx, rows); err != nil {
		return fmt.Errorf("record history batch: %w", err)
	}
	return nil
}

// History lists rows for a unit, newest first.
func (r *Recorder) History(ctx context.Context, stockID id.ID) ([]*HistoryEntry, error) {
	return r.repo.ListByStock(ctx, stockID)
}

func (r *Recorder) stamp(e *HistoryEntry) {
	if id.IsNil(e.ID) {
		e.ID = id.New()
	}
	e.PerformedOn = r.now().UTC()
}
