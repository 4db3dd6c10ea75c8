// Package config loads the operator-edited watch list.
//
// The watch list is read at the start of every cycle, so edits take effect on
// the next tick without a restart.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"board-watcher/internal/domain/entity"

	"gopkg.in/yaml.v3"
)

// Legacy file names used when the watch-list path is a directory.
const (
	legacySourcesFile = "site.json"
	legacyTargetsFile = "save.json"
	legacyRulesFile   = "down.json"
	legacyNicksFile   = "nick.json"
)

// ErrWatchListNotFound is returned when the watch-list path does not exist.
var ErrWatchListNotFound = errors.New("watch list not found")

// WatchListLoader reads the watch list from Path.
//
// Path may be a single YAML or JSON document with the keys sources, targets,
// download_rules and excluded_nicknames, or a directory holding the legacy
// site.json / save.json / down.json / nick.json files.
type WatchListLoader struct {
	Path   string
	Logger *slog.Logger
}

// NewWatchListLoader creates a loader for path.
func NewWatchListLoader(path string, logger *slog.Logger) *WatchListLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &WatchListLoader{Path: path, Logger: logger}
}

// Load reads and validates the watch list. Invalid items are dropped with a
// warning; a missing path or an undecodable document is an error.
func (l *WatchListLoader) Load() (*entity.WatchList, error) {
	info, err := os.Stat(l.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrWatchListNotFound, l.Path)
		}
		return nil, fmt.Errorf("stat watch list: %w", err)
	}

	var wl entity.WatchList
	if info.IsDir() {
		if err := l.loadLegacyDir(&wl); err != nil {
			return nil, err
		}
	} else {
		if err := decodeFile(l.Path, &wl); err != nil {
			return nil, err
		}
	}

	return l.sanitize(wl), nil
}

// loadLegacyDir fills wl from the four legacy files. Each file is optional.
func (l *WatchListLoader) loadLegacyDir(wl *entity.WatchList) error {
	var nicks []struct {
		Nick string `yaml:"nick"`
	}

	files := []struct {
		name string
		dst  interface{}
	}{
		{legacySourcesFile, &wl.Sources},
		{legacyTargetsFile, &wl.Targets},
		{legacyRulesFile, &wl.DownloadRules},
		{legacyNicksFile, &nicks},
	}
	for _, f := range files {
		err := decodeFile(filepath.Join(l.Path, f.name), f.dst)
		if errors.Is(err, fs.ErrNotExist) {
			l.Logger.Debug("legacy watch-list file missing", slog.String("file", f.name))
			continue
		}
		if err != nil {
			return err
		}
	}

	for _, n := range nicks {
		wl.ExcludedNicknames = append(wl.ExcludedNicknames, n.Nick)
	}
	return nil
}

func decodeFile(path string, dst interface{}) error {
	// #nosec G304 -- path is operator configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// sanitize normalizes kinds, drops items that can never work and logs why.
func (l *WatchListLoader) sanitize(in entity.WatchList) *entity.WatchList {
	out := entity.WatchList{}

	for _, s := range in.Sources {
		s.Kind = normalizeKind(s.Kind)
		if err := s.Validate(); err != nil {
			l.Logger.Warn("ignoring source", slog.String("kind", string(s.Kind)), slog.String("url", s.URL), slog.Any("error", err))
			continue
		}
		out.Sources = append(out.Sources, s)
	}

	for _, t := range in.Targets {
		t.Kind = normalizeKind(t.Kind)
		if !t.Kind.Valid() || t.Path == "" {
			l.Logger.Warn("ignoring persistence target", slog.String("kind", string(t.Kind)), slog.String("path", t.Path))
			continue
		}
		out.Targets = append(out.Targets, t)
	}

	for _, r := range in.DownloadRules {
		if r.Kind != "" {
			r.Kind = normalizeKind(r.Kind)
		}
		if r.TitleMatch == "" || r.DestinationRoot == "" || (r.Kind != "" && !r.Kind.Valid()) {
			l.Logger.Warn("ignoring download rule", slog.String("kind", string(r.Kind)), slog.String("title", r.TitleMatch), slog.String("path", r.DestinationRoot))
			continue
		}
		out.DownloadRules = append(out.DownloadRules, r)
	}

	for _, n := range in.ExcludedNicknames {
		if n != "" {
			out.ExcludedNicknames = append(out.ExcludedNicknames, n)
		}
	}

	return &out
}

// normalizeKind accepts kinds in any case and with surrounding spaces, as the
// legacy files were hand edited. Unknown kinds are returned unchanged.
func normalizeKind(k entity.SourceKind) entity.SourceKind {
	if parsed, err := entity.ParseSourceKind(string(k)); err == nil {
		return parsed
	}
	return k
}
