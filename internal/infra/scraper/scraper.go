// Package scraper provides goquery parsers for the supported board listing
// layouts and the gallery image extractor used by the download cascade.
package scraper

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"board-watcher/internal/domain/entity"
	"board-watcher/internal/usecase/crawl"
	"board-watcher/internal/usecase/download"

	"github.com/PuerkitoBio/goquery"
)

// Registry maps source kinds to their parsers. The set of kinds is closed, so
// dispatch is a switch rather than a lookup table.
type Registry struct {
	dc    DCParser
	fm    FMParser
	mp    MPParser
	mpLow MPLowParser
}

// NewRegistry returns a Registry with every supported parser.
func NewRegistry() *Registry {
	return &Registry{}
}

// ParserFor returns the parser for kind.
func (r *Registry) ParserFor(kind entity.SourceKind) (crawl.Parser, bool) {
	switch kind {
	case entity.KindDC:
		return r.dc, true
	case entity.KindFM:
		return r.fm, true
	case entity.KindMP:
		return r.mp, true
	case entity.KindMPLow:
		return r.mpLow, true
	default:
		return nil, false
	}
}

// ImageExtractorFor returns the gallery image extractor for tag. Only dc
// detail pages have a known image layout.
func (r *Registry) ImageExtractorFor(tag entity.SourceTag) (download.ImageExtractor, bool) {
	if tag == entity.TagDC {
		return DCImageExtractor{}, true
	}
	return nil, false
}

func newDocument(page string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	return doc, nil
}

// resolveLink turns href into an absolute URL against base. Hrefs that cannot
// be parsed are returned unchanged.
func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// cleanText unescapes entities and drops newlines and tabs from a title.
func cleanText(s string) string {
	s = html.UnescapeString(s)
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == '\r' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

func parseBase(pageURL string) *url.URL {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return u
}
