package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-summary/models"
)

const defaultRecentLimit = 20

// Store archives produced summaries in SQLite. Nothing in the request path
// reads it back.
type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	logrus.WithField("path", dbPath).Info("Initializing database")

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "error creating directory for database")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "error opening database")
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS summaries (
                    id TEXT PRIMARY KEY,
                    video_id TEXT NOT NULL,
                    video_url TEXT NOT NULL DEFAULT '',
                    transcript TEXT NOT NULL,
                    summary TEXT NOT NULL,
                    checkpoint TEXT NOT NULL DEFAULT '',
                    provider TEXT NOT NULL DEFAULT '',
                    created_at TIMESTAMP NOT NULL
)`)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "error creating table")
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_summaries_created_at ON summaries (created_at)`)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "error creating index")
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Save(ctx context.Context, r *models.SummaryRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "error beginning transaction")
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO summaries
        (id, video_id, video_url, transcript, summary, checkpoint, provider, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "error preparing statement")
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, r.ID, r.VideoID, r.VideoURL, r.Transcript, r.Summary, r.Checkpoint, r.Provider, r.CreatedAt)
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "error executing statement")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "error committing transaction")
	}

	return nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*models.SummaryRecord, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, video_id, video_url, transcript, summary, checkpoint, provider, created_at
        FROM summaries ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "error querying database")
	}
	defer rows.Close()

	var records []*models.SummaryRecord
	for rows.Next() {
		var r models.SummaryRecord
		if err := rows.Scan(&r.ID, &r.VideoID, &r.VideoURL, &r.Transcript, &r.Summary, &r.Checkpoint, &r.Provider, &r.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return records, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM summaries").Scan(&count); err != nil {
		return 0, errors.Wrap(err, "error querying database")
	}
	return count, nil
}
