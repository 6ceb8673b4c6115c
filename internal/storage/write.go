package storage

import (
	"approachlog/internal/models"
	"approachlog/internal/providers"
	"context"
	"database/sql"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

const upsertSQL = `
	INSERT INTO approaches (id, date, body) VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET date = excluded.date, body = excluded.body
`

func upsert(ctx context.Context, tx *sql.Tx, record *models.ApproachRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidRecord)
	}
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRecord, err)
	}
	_, err = tx.ExecContext(ctx, upsertSQL, record.ID, record.Date, string(body))
	return err
}

// Put inserts the record or fully replaces the one stored under its id.
func (s *RecordStore) Put(ctx context.Context, record *models.ApproachRecord) error {
	defer s.observe("put", time.Now())

	err := s.withTx(ctx, "put", func(tx *sql.Tx) error {
		return upsert(ctx, tx, record)
	})
	if err != nil {
		s.logger.Errorf(providers.TypeStore, "Put failed: %s", err)
		return err
	}

	s.invalidate(record.ID)
	s.logger.Debugf(providers.TypeStore, "Stored approach %s", record.ID)
	s.afterWrite(ctx, "put")
	return nil
}

// Delete removes the record; a missing id is not an error.
func (s *RecordStore) Delete(ctx context.Context, id string) error {
	defer s.observe("delete", time.Now())

	var affected int64
	err := s.withTx(ctx, "delete", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM approaches WHERE id = ?`, id)
		if err != nil {
			return err
		}
		affected, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		s.logger.Errorf(providers.TypeStore, "Delete failed: %s", err)
		return err
	}

	s.invalidate(id)
	if affected > 0 {
		s.logger.Debugf(providers.TypeStore, "Deleted approach %s", id)
		s.afterWrite(ctx, "delete")
	}
	return nil
}

// ReplaceAll swaps the entire store contents for records in one transaction.
// Used by restore; duplicate ids keep the last occurrence.
func (s *RecordStore) ReplaceAll(ctx context.Context, records []models.ApproachRecord) error {
	defer s.observe("replace_all", time.Now())

	err := s.withTx(ctx, "replace_all", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM approaches`); err != nil {
			return err
		}
		for i := range records {
			if err := upsert(ctx, tx, &records[i]); err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Errorf(providers.TypeStore, "Replace failed: %s", err)
		return err
	}

	s.invalidateAll()
	s.logger.Infof(providers.TypeStore, "Replaced store contents with %d approaches", len(records))
	s.afterWrite(ctx, "replace_all")
	return nil
}
