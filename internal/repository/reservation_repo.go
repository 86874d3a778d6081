package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"reservas/internal/db"
	apperr "reservas/internal/errors"
)

// ReservationStore is an append-only list of reservations.
type ReservationStore interface {
	Append(ctx context.Context, res db.Reservation) error
	ListAll(ctx context.Context) ([]db.Reservation, error)
}

// FileReservationRepository keeps every reservation in one JSON array file.
// Appends are serialized by mu and each write replaces the file with a rename,
// so a reader sees either the old or the new array.
type FileReservationRepository struct {
	path string
	mu   sync.RWMutex
}

func NewFileReservationRepository(path string) (*FileReservationRepository, error) {
	r := &FileReservationRepository{path: path}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, apperr.NewStorageError("init", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := r.write([]db.Reservation{}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, apperr.NewStorageError("init", err)
	}
	return r, nil
}

func (r *FileReservationRepository) Path() string {
	return r.path
}

func (r *FileReservationRepository) Append(ctx context.Context, res db.Reservation) error {
	if err := ctx.Err(); err != nil {
		return apperr.NewStorageError("append", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.read()
	if err != nil {
		return err
	}
	list = append(list, res)
	return r.write(list)
}

func (r *FileReservationRepository) ListAll(ctx context.Context) ([]db.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.NewStorageError("list", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.read()
}

func (r *FileReservationRepository) read() ([]db.Reservation, error) {
	raw, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []db.Reservation{}, nil
	}
	if err != nil {
		return nil, apperr.NewStorageError("read", err)
	}

	var list []db.Reservation
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, apperr.NewStorageError("read", fmt.Errorf("corrupt reservations file %s: %w", r.path, err))
	}
	// only a JSON array counts as a collection; null would be overwritten on the next append
	if list == nil {
		return nil, apperr.NewStorageError("read", fmt.Errorf("corrupt reservations file %s: not a JSON array", r.path))
	}
	return list, nil
}

func (r *FileReservationRepository) write(list []db.Reservation) error {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return apperr.NewStorageError("write", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".reservations-*.tmp")
	if err != nil {
		return apperr.NewStorageError("write", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperr.NewStorageError("write", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return apperr.NewStorageError("write", err)
	}
	if err := tmp.Close(); err != nil {
		return apperr.NewStorageError("write", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return apperr.NewStorageError("write", err)
	}
	return nil
}
