// Package jsonfile stores entry state as whole-file UTF-8 JSON arrays.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"board-watcher/internal/domain/entity"
	"board-watcher/internal/repository"
)

// EntryRepo implements repository.EntryStore on the local filesystem.
type EntryRepo struct {
	// Indent controls pretty-printing of written files. Empty writes compact JSON.
	Indent string
}

// NewEntryRepo returns an EntryRepo writing compact JSON.
func NewEntryRepo() *EntryRepo {
	return &EntryRepo{}
}

// Load reads the entry list stored at path.
// A missing file yields repository.ErrStateNotFound; a file containing only
// whitespace or JSON null yields an empty list.
func (r *EntryRepo) Load(ctx context.Context, path string) ([]entity.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// #nosec G304 -- path comes from the operator's watch list
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, repository.ErrStateNotFound
		}
		return nil, fmt.Errorf("read state %s: %w", path, err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []entity.Entry{}, nil
	}

	var entries []entity.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode state %s: %w", path, err)
	}
	if entries == nil {
		entries = []entity.Entry{}
	}
	return entries, nil
}

// Save replaces the state at path with entries.
// The data is written to a temporary file in the same directory and renamed
// over the target so readers never observe a half-written file.
func (r *EntryRepo) Save(ctx context.Context, path string, entries []entity.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entries == nil {
		entries = []entity.Entry{}
	}

	var (
		data []byte
		err  error
	)
	if r.Indent != "" {
		data, err = json.MarshalIndent(entries, "", r.Indent)
	} else {
		data, err = json.Marshal(entries)
	}
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace state %s: %w", path, err)
	}
	return nil
}

var _ repository.EntryStore = (*EntryRepo)(nil)
