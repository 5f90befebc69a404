// Package store persists job and profile records in SQLite. The engine
// reads them and marks jobs applied after a verified submission.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/khansari2403/Auto-Application-sub000/internal/domain"
)

var (
	ErrJobNotFound     = errors.New("store: job not found")
	ErrProfileNotFound = errors.New("store: profile not found")
)

// Store wraps the shared SQLite handle.
type Store struct {
	DB *sql.DB
}

// Open opens (or creates) the SQLite database and bootstraps the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &Store{DB: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.DB.Exec(`
		CREATE TABLE IF NOT EXISTS jobs (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			title      TEXT NOT NULL DEFAULT '',
			company    TEXT NOT NULL DEFAULT '',
			apply_url  TEXT NOT NULL DEFAULT '',
			status     TEXT NOT NULL DEFAULT 'new',
			applied_at INTEGER,
			created_at INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS profiles (
			user_id    TEXT PRIMARY KEY,
			full_name  TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			last_name  TEXT NOT NULL DEFAULT '',
			email      TEXT NOT NULL DEFAULT '',
			phone      TEXT NOT NULL DEFAULT '',
			city       TEXT NOT NULL DEFAULT '',
			country    TEXT NOT NULL DEFAULT '',
			address    TEXT NOT NULL DEFAULT '',
			title      TEXT NOT NULL DEFAULT '',
			link_url   TEXT NOT NULL DEFAULT '',
			summary    TEXT NOT NULL DEFAULT ''
		);
	`)
	return err
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.DB.Close()
}

// SaveJob inserts or replaces a job record.
func (s *Store) SaveJob(ctx context.Context, job *domain.Job) error {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	var appliedAt sql.NullInt64
	if job.AppliedAt != nil {
		appliedAt = sql.NullInt64{Int64: job.AppliedAt.Unix(), Valid: true}
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO jobs (id, user_id, title, company, apply_url, status, applied_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			title = excluded.title,
			company = excluded.company,
			apply_url = excluded.apply_url,
			status = excluded.status,
			applied_at = excluded.applied_at`,
		job.ID, job.UserID, job.Title, job.Company, job.ApplyURL, job.Status,
		appliedAt, job.CreatedAt.Unix(),
	)
	return err
}

// GetJob fetches a job by id.
func (s *Store) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, user_id, title, company, apply_url, status, applied_at, created_at
		FROM jobs WHERE id = ?`, id)

	var job domain.Job
	var appliedAt sql.NullInt64
	var createdAt int64
	err := row.Scan(&job.ID, &job.UserID, &job.Title, &job.Company,
		&job.ApplyURL, &job.Status, &appliedAt, &createdAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrJobNotFound
	case err != nil:
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	job.CreatedAt = time.Unix(createdAt, 0)
	if appliedAt.Valid {
		t := time.Unix(appliedAt.Int64, 0)
		job.AppliedAt = &t
	}
	return &job, nil
}

// MarkApplied flips a job to applied with the given timestamp.
func (s *Store) MarkApplied(ctx context.Context, id string, at time.Time) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE jobs SET status = 'applied', applied_at = ? WHERE id = ?`,
		at.Unix(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrJobNotFound
	}
	return nil
}

// SaveProfile inserts or replaces a profile record.
func (s *Store) SaveProfile(ctx context.Context, p *domain.Profile) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO profiles (user_id, full_name, first_name, last_name, email,
			phone, city, country, address, title, link_url, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			full_name = excluded.full_name,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			email = excluded.email,
			phone = excluded.phone,
			city = excluded.city,
			country = excluded.country,
			address = excluded.address,
			title = excluded.title,
			link_url = excluded.link_url,
			summary = excluded.summary`,
		p.UserID, p.FullName, p.FirstName, p.LastName, p.Email,
		p.Phone, p.City, p.Country, p.Address, p.Title, p.LinkURL, p.Summary,
	)
	return err
}

// GetProfile fetches a profile by user id.
func (s *Store) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT user_id, full_name, first_name, last_name, email, phone,
			city, country, address, title, link_url, summary
		FROM profiles WHERE user_id = ?`, userID)

	var p domain.Profile
	err := row.Scan(&p.UserID, &p.FullName, &p.FirstName, &p.LastName, &p.Email,
		&p.Phone, &p.City, &p.Country, &p.Address, &p.Title, &p.LinkURL, &p.Summary)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrProfileNotFound
	case err != nil:
		return nil, fmt.Errorf("get profile %s: %w", userID, err)
	}
	return &p, nil
}
