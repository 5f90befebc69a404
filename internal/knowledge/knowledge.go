// Package knowledge is the persisted question/answer store reused across
// job applications.
package knowledge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/khansari2403/Auto-Application-sub000/internal/domain"
)

// ErrNotFound is returned when no stored question matches.
var ErrNotFound = errors.New("knowledge: no matching entry")

// Entry is one stored question/answer pair. The question text is unique
// case-insensitively; re-inserting it overwrites the answer.
type Entry struct {
	ID        int64
	JobID     string // originating job, informational only
	Question  string
	Answer    string
	Category  domain.Category
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store provides Find/Upsert/Delete over the shared SQLite database.
// Upserts are serialized through a store-level mutex, strengthening the
// bare last-write-wins of concurrent writers.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New bootstraps the knowledge table on an already opened database.
func New(db *sql.DB) (*Store, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS knowledge_entries (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			job_id     TEXT NOT NULL DEFAULT '',
			question   TEXT NOT NULL,
			answer     TEXT NOT NULL,
			category   TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_knowledge_question
			ON knowledge_entries (lower(question));
	`)
	if err != nil {
		return nil, fmt.Errorf("init knowledge schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Upsert stores an answer for a question. A case-insensitive exact match
// on the question text updates the existing entry in place; otherwise a
// new entry is inserted.
func (s *Store) Upsert(ctx context.Context, question, answer string, category domain.Category, jobID string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM knowledge_entries WHERE lower(question) = lower(?)`,
		question)

	var id, createdAt int64
	err := row.Scan(&id, &createdAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO knowledge_entries (job_id, question, answer, category, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			jobID, question, answer, string(category), now.Unix(), now.Unix())
		if err != nil {
			return nil, fmt.Errorf("insert knowledge entry: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return nil, err
		}
		return &Entry{ID: id, JobID: jobID, Question: question, Answer: answer,
			Category: category, CreatedAt: now, UpdatedAt: now}, nil

	case err != nil:
		return nil, fmt.Errorf("lookup knowledge entry: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE knowledge_entries
		SET answer = ?, category = ?, job_id = ?, updated_at = ?
		WHERE id = ?`,
		answer, string(category), jobID, now.Unix(), id)
	if err != nil {
		return nil, fmt.Errorf("update knowledge entry: %w", err)
	}
	return &Entry{ID: id, JobID: jobID, Question: question, Answer: answer,
		Category: category, CreatedAt: time.Unix(createdAt, 0), UpdatedAt: now}, nil
}

// Find looks for a stored answer to a new question. Candidates are
// restricted to the same category; a candidate matches when at least half
// of the query's significant words appear in its stored question text.
// The first match in ascending id order wins, with no ranking.
func (s *Store) Find(ctx context.Context, question string, category domain.Category) (*Entry, error) {
	keywords := SignificantWords(question)
	if len(keywords) == 0 {
		return nil, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_id, question, answer, category, created_at, updated_at
		FROM knowledge_entries WHERE category = ? ORDER BY id`,
		string(category))
	if err != nil {
		return nil, fmt.Errorf("query knowledge entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		if overlapRatio(keywords, e.Question) >= 0.5 {
			return e, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return nil, ErrNotFound
}

// List returns every entry in ascending id order.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_id, question, answer, category, created_at, updated_at
		FROM knowledge_entries ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Delete removes an entry by id. There is no implicit deletion anywhere
// else in the store.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM knowledge_entries WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanEntry(rows *sql.Rows) (*Entry, error) {
	var e Entry
	var category string
	var createdAt, updatedAt int64
	if err := rows.Scan(&e.ID, &e.JobID, &e.Question, &e.Answer, &category,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}
	e.Category = domain.Category(category)
	e.CreatedAt = time.Unix(createdAt, 0)
	e.UpdatedAt = time.Unix(updatedAt, 0)
	return &e, nil
}

// SignificantWords extracts the lowercased words longer than 3 characters
// used for fuzzy question matching.
func SignificantWords(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127)
	})
	var out []string
	for _, w := range fields {
		if len([]rune(w)) > 3 {
			out = append(out, w)
		}
	}
	return out
}

// overlapRatio returns the share of keywords present in the stored
// question text.
func overlapRatio(keywords []string, stored string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	haystack := strings.ToLower(stored)
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			hits++
		}
	}
	return float64(hits) / float64(len(keywords))
}
