package entity

import (
	"fmt"
	"strings"
)

// SourceKind is the closed set of listing page layouts the watcher can parse.
// Adding a board means adding a constant here and a parser in the scraper package.
type SourceKind string

const (
	KindDC    SourceKind = "dc"
	KindFM    SourceKind = "fm"
	KindMP    SourceKind = "mp"
	KindMPLow SourceKind = "mp_low"
)

// Tag returns the bucket entries of this kind are stored under.
// Unknown kinds map to an empty tag.
func (k SourceKind) Tag() SourceTag {
	switch k {
	case KindDC:
		return TagDC
	case KindFM:
		return TagFM
	case KindMP, KindMPLow:
		return TagMP
	default:
		return ""
	}
}

// Valid reports whether k is one of the supported kinds.
func (k SourceKind) Valid() bool {
	return k.Tag() != ""
}

// UsesBotFetch reports whether listing pages of this kind must be requested
// with the bot User-Agent and Authorization headers.
func (k SourceKind) UsesBotFetch() bool {
	return k == KindMP || k == KindMPLow
}

// ParseSourceKind normalizes s and returns the matching kind.
func ParseSourceKind(s string) (SourceKind, error) {
	k := SourceKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSourceKind, s)
	}
	return k, nil
}

// SourceConfig is one listing page to poll. Read fresh every cycle.
type SourceConfig struct {
	Kind SourceKind `json:"host" yaml:"host"`
	URL  string     `json:"url" yaml:"url"`
}

// Validate checks that the kind is known and the URL is usable.
func (s SourceConfig) Validate() error {
	if !s.Kind.Valid() {
		return &ValidationError{Field: "host", Message: fmt.Sprintf("unknown source kind %q", s.Kind)}
	}
	return ValidateURL(s.URL)
}

// PersistenceTarget maps a source kind to its state file on disk.
type PersistenceTarget struct {
	Kind SourceKind `json:"host" yaml:"host"`
	Path string     `json:"json_path" yaml:"json_path"`
}

// DownloadRule selects entries for the download cascade.
// TitleMatch is a plain substring match; rule order matters (first match wins).
type DownloadRule struct {
	Kind            SourceKind `json:"host" yaml:"host"`
	TitleMatch      string     `json:"title" yaml:"title"`
	DestinationRoot string     `json:"path" yaml:"path"`
}

// Matches reports whether the rule applies to the given entry.
// A rule without a kind applies to every source.
func (r DownloadRule) Matches(e Entry) bool {
	if r.TitleMatch == "" {
		return false
	}
	if r.Kind != "" && r.Kind.Tag() != e.SourceTag {
		return false
	}
	return strings.Contains(e.Title, r.TitleMatch)
}

// ImageReference is one image to download. It lives for a single cascade pass
// and is never persisted.
type ImageReference struct {
	SourceLink         string
	Referrer           string
	FileName           string
	DestinationRoot    string
	DestinationSubpath string
}
