package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"reservas/internal/db"
	apperr "reservas/internal/errors"
)

const createReservationsTable = `
	CREATE TABLE IF NOT EXISTS reservations (
		seq        BIGSERIAL PRIMARY KEY,
		id         TEXT NOT NULL UNIQUE,
		code       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		name       TEXT NOT NULL,
		phone      TEXT NOT NULL,
		email      TEXT NOT NULL DEFAULT '',
		people     INTEGER NOT NULL,
		datetime   TIMESTAMPTZ NOT NULL,
		notes      TEXT NOT NULL DEFAULT '',
		status     TEXT NOT NULL
	)`

// PostgresReservationRepository stores reservations in a table, keeping insertion order in seq.
type PostgresReservationRepository struct {
	DB *sqlx.DB
	mu sync.Mutex
}

// NewPostgresReservationRepository opens the database and makes sure the table exists.
func NewPostgresReservationRepository(ctx context.Context, dsn string) (*PostgresReservationRepository, error) {
	conn, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, apperr.NewStorageError("connect", err)
	}
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if _, err := conn.ExecContext(ctx, createReservationsTable); err != nil {
		conn.Close()
		return nil, apperr.NewStorageError("migrate", err)
	}
	return &PostgresReservationRepository{DB: conn}, nil
}

func (r *PostgresReservationRepository) Append(ctx context.Context, res db.Reservation) error {
	query := `
		INSERT INTO reservations
		(id, code, created_at, name, phone, email, people, datetime, notes, status)
		VALUES (:id, :code, :created_at, :name, :phone, :email, :people, :datetime, :notes, :status)`

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.DB.NamedExecContext(ctx, query, res)
	if err != nil {
		return apperr.NewStorageError("append", fmt.Errorf("error inserting reservation %s: %w", res.Code, err))
	}
	return nil
}

func (r *PostgresReservationRepository) ListAll(ctx context.Context) ([]db.Reservation, error) {
	query := `
		SELECT id, code, created_at, name, phone, email, people, datetime, notes, status
		FROM reservations
		ORDER BY seq`

	reservations := []db.Reservation{}
	if err := r.DB.SelectContext(ctx, &reservations, query); err != nil {
		return nil, apperr.NewStorageError("list", fmt.Errorf("error querying reservations: %w", err))
	}
	return reservations, nil
}

func (r *PostgresReservationRepository) Close() error {
	return r.DB.Close()
}
