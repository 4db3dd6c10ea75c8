package repository

import (
	"context"
	"errors"

	"board-watcher/internal/domain/entity"
)

// ErrStateNotFound is returned by EntryStore.Load when no state exists yet.
// Callers treat it the same as an empty state.
var ErrStateNotFound = errors.New("entry state not found")

// EntryStore persists the merged entry list of one source as a whole.
// Each path holds exactly one source's state and has a single writer per cycle.
type EntryStore interface {
	Load(ctx context.Context, path string) ([]entity.Entry, error)
	Save(ctx context.Context, path string, entries []entity.Entry) error
}
