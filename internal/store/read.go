package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/condwatch/internal/condition"
)

// ErrNotFound is returned by Get for a name without a persisted record.
var ErrNotFound = errors.New("record not found")

// Load reads every condition record and the last journal seq.
// Returns an empty (non-nil) map when the store is empty.
func (s *Store) Load(ctx context.Context) (Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, activations, limit_count, limit_set, baseline, updated_at
		FROM conditions
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("query conditions: %w", err)
	}
	defer rows.Close()

	records := make(map[string]condition.Record)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return Snapshot{}, err
		}
		records[rec.Name] = rec
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("iterate conditions: %w", err)
	}

	var lastSeq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM journal`).Scan(&lastSeq); err != nil {
		return Snapshot{}, fmt.Errorf("query last seq: %w", err)
	}

	return Snapshot{Records: records, LastSeq: lastSeq.Int64}, nil
}

// Get reads the record for one condition.
// Returns ErrNotFound if the name has never been persisted.
func (s *Store) Get(ctx context.Context, name string) (condition.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT name, activations, limit_count, limit_set, baseline, updated_at
		FROM conditions
		WHERE name = ?
	`, name)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return condition.Record{}, fmt.Errorf("get %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return condition.Record{}, fmt.Errorf("get %q: %w", name, err)
	}
	return rec, nil
}

// Journal returns the history of one condition ordered by seq.
// Returns an empty slice (not nil) if nothing was journaled.
func (s *Store) Journal(ctx context.Context, name string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, name, action, activations, session, at
		FROM journal
		WHERE name = ?
		ORDER BY seq ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e      Entry
			action string
			at     string
		)
		if err := rows.Scan(&e.ID, &e.Seq, &e.Name, &action, &e.Activations, &e.Session, &at); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.Action = Action(action)
		if e.At, err = unmarshalTime(at); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (condition.Record, error) {
	var (
		rec       condition.Record
		limit     sql.NullInt64
		limitSet  int
		baseline  sql.NullString
		updatedAt string
	)
	if err := row.Scan(&rec.Name, &rec.Activations, &limit, &limitSet, &baseline, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return condition.Record{}, err
		}
		return condition.Record{}, fmt.Errorf("scan condition: %w", err)
	}

	rec.Limit = intPtr(limit)
	rec.LimitSet = limitSet != 0
	rec.Baseline = stringPtr(baseline)

	t, err := unmarshalTime(updatedAt)
	if err != nil {
		return condition.Record{}, err
	}
	rec.UpdatedAt = t
	return rec, nil
}
