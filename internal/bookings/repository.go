// Package bookings archives committed bookings in Postgres for operator
// reporting. The dialogue engine works without it; the archive is an
// optional write-behind.
package bookings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Record is one committed booking.
type Record struct {
	ID             uuid.UUID
	ConversationID string
	Channel        string
	PatientName    string
	PatientPhone   string
	PatientEmail   string
	Service        string
	Reason         string
	EventID        string
	ScheduledFor   time.Time
	CreatedAt      time.Time
}

// DB is the subset of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository provides persistence helpers for the booking archive.
type Repository struct {
	db DB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting mocks for tests.
func NewRepositoryWithDB(db DB) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the archive table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS bookings (
			id UUID PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			channel TEXT NOT NULL,
			patient_name TEXT NOT NULL DEFAULT '',
			patient_phone TEXT NOT NULL DEFAULT '',
			patient_email TEXT NOT NULL DEFAULT '',
			service TEXT NOT NULL DEFAULT '',
			reason TEXT NOT NULL DEFAULT '',
			event_id TEXT NOT NULL DEFAULT '',
			scheduled_for TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("bookings: ensure schema: %w", err)
	}
	return nil
}

// Insert archives a committed booking.
func (r *Repository) Insert(ctx context.Context, rec Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO bookings (
			id, conversation_id, channel, patient_name, patient_phone,
			patient_email, service, reason, event_id, scheduled_for, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.ID, rec.ConversationID, rec.Channel, rec.PatientName, rec.PatientPhone,
		rec.PatientEmail, rec.Service, rec.Reason, rec.EventID, rec.ScheduledFor, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("bookings: insert: %w", err)
	}
	return nil
}

// ListRecent returns the latest archived bookings, newest first.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, conversation_id, channel, patient_name, patient_phone,
		       patient_email, service, reason, event_id, scheduled_for, created_at
		FROM bookings
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("bookings: list recent: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.ConversationID, &rec.Channel, &rec.PatientName, &rec.PatientPhone,
			&rec.PatientEmail, &rec.Service, &rec.Reason, &rec.EventID, &rec.ScheduledFor, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("bookings: scan row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: iterate rows: %w", err)
	}
	return out, nil
}
