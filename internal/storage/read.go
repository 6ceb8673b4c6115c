package storage

import (
	"approachlog/internal/models"
	"context"
	"database/sql"
	"errors"
	"time"

	json "github.com/goccy/go-json"
)

// GetAll returns every stored record in storage order.
func (s *RecordStore) GetAll(ctx context.Context) ([]models.ApproachRecord, error) {
	defer s.observe("get_all", time.Now())

	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT body FROM approaches ORDER BY rowid`)
	if err != nil {
		return nil, fault("get_all", err)
	}
	defer rows.Close()

	records := make([]models.ApproachRecord, 0)
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fault("get_all", err)
		}
		var record models.ApproachRecord
		if err := json.Unmarshal([]byte(body), &record); err != nil {
			return nil, fault("get_all", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fault("get_all", err)
	}
	return records, nil
}

// GetByID returns the record, or nil without error when the id is unknown.
func (s *RecordStore) GetByID(ctx context.Context, id string) (*models.ApproachRecord, error) {
	defer s.observe("get_by_id", time.Now())

	body, ok := s.cache.Get(id)
	if !ok {
		gen := s.gen.Load()
		db, err := s.conn(ctx)
		if err != nil {
			return nil, err
		}

		var raw string
		err = db.QueryRowContext(ctx, `SELECT body FROM approaches WHERE id = ?`, id).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fault("get_by_id", err)
		}
		body = []byte(raw)
		s.cache.Set(id, body)
		// a write committed while this row was read; its invalidation may
		// have run before the Set above
		if s.gen.Load() != gen {
			s.cache.Del(id)
		}
	}

	var record models.ApproachRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fault("get_by_id", err)
	}
	return &record, nil
}

// Count returns the number of stored records.
func (s *RecordStore) Count(ctx context.Context) (int, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM approaches`).Scan(&n); err != nil {
		return 0, fault("count", err)
	}
	return n, nil
}
