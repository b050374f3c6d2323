package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/condwatch/internal/condition"
)

// Save upserts the record for one condition and, when entry is non-nil,
// appends it to the journal. Both writes share one transaction.
func (s *Store) Save(ctx context.Context, rec condition.Record, entry *Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save %q: begin tx: %w", rec.Name, err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO conditions
		(name, activations, limit_count, limit_set, baseline, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			activations = excluded.activations,
			limit_count = excluded.limit_count,
			limit_set   = excluded.limit_set,
			baseline    = excluded.baseline,
			updated_at  = excluded.updated_at
	`,
		rec.Name,
		rec.Activations,
		nullInt(rec.Limit),
		boolInt(rec.LimitSet),
		nullString(rec.Baseline),
		marshalTime(rec.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save %q: upsert: %w", rec.Name, err)
	}

	if entry != nil {
		if err := insertEntry(ctx, tx, *entry); err != nil {
			return fmt.Errorf("save %q: %w", rec.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save %q: commit: %w", rec.Name, err)
	}
	return nil
}

// Delete removes the record for one condition and, when entry is non-nil,
// journals the removal. Deleting an unknown name is not an error.
func (s *Store) Delete(ctx context.Context, name string, entry *Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete %q: begin tx: %w", name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM conditions WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}

	if entry != nil {
		if err := insertEntry(ctx, tx, *entry); err != nil {
			return fmt.Errorf("delete %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete %q: commit: %w", name, err)
	}
	return nil
}

func insertEntry(ctx context.Context, tx *sql.Tx, e Entry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO journal
		(id, seq, name, action, activations, session, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID,
		e.Seq,
		e.Name,
		string(e.Action),
		e.Activations,
		e.Session,
		marshalTime(e.At),
	)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}
