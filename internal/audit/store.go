// Package audit keeps a durable log of served predictions in SQLite.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/gyaneshwarpardhi/bankpredict/internal/explain"
)

const (
	DefaultLimit = 20
	MaxLimit     = 500
)

// Record is one served prediction.
type Record struct {
	ID              string             `json:"id"`
	Model           string             `json:"model"`
	Label           string             `json:"label"`
	Positive        bool               `json:"positive"`
	Probability     float64            `json:"probability"`
	Features        map[string]float64 `json:"features"`
	TopFactors      []explain.Factor   `json:"top_factors"`
	ArtifactVersion string             `json:"artifact_version"`
	CreatedAt       time.Time          `json:"created_at"`
}

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("audit migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS predictions (
  id TEXT PRIMARY KEY,
  model TEXT NOT NULL,
  label TEXT NOT NULL,
  positive INTEGER NOT NULL DEFAULT 0,
  probability REAL NOT NULL,
  features TEXT NOT NULL DEFAULT '{}',
  top_factors TEXT NOT NULL DEFAULT '[]',
  artifact_version TEXT NOT NULL DEFAULT '',
  created_at_ms INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS predictions_model_created ON predictions(model, created_at_ms);
`)
	return err
}

// Record stores r, assigning an ID and timestamp when they are unset.
func (s *Store) Record(ctx context.Context, r Record) (Record, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	features, err := json.Marshal(r.Features)
	if err != nil {
		return Record{}, fmt.Errorf("audit encode features: %w", err)
	}
	factors, err := json.Marshal(r.TopFactors)
	if err != nil {
		return Record{}, fmt.Errorf("audit encode factors: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO predictions(id, model, label, positive, probability, features, top_factors, artifact_version, created_at_ms)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?);
`, r.ID, r.Model, r.Label, r.Positive, r.Probability, string(features), string(factors), r.ArtifactVersion, r.CreatedAt.UnixMilli())
	if err != nil {
		return Record{}, fmt.Errorf("audit insert: %w", err)
	}
	return r, nil
}

// Recent returns up to limit records, newest first. An empty model matches every model.
func (s *Store) Recent(ctx context.Context, model string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, model, label, positive, probability, features, top_factors, artifact_version, created_at_ms
FROM predictions
WHERE ? = '' OR model = ?
ORDER BY created_at_ms DESC, rowid DESC
LIMIT ?;
`, model, model, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var (
			r                 Record
			features, factors string
			createdMs         int64
		)
		if err := rows.Scan(&r.ID, &r.Model, &r.Label, &r.Positive, &r.Probability, &features, &factors, &r.ArtifactVersion, &createdMs); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(features), &r.Features); err != nil {
			return nil, fmt.Errorf("audit decode features of %s: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(factors), &r.TopFactors); err != nil {
			return nil, fmt.Errorf("audit decode factors of %s: %w", r.ID, err)
		}
		r.CreatedAt = time.UnixMilli(createdMs)
		out = append(out, r)
	}
	return out, rows.Err()
}
