// Package download implements the one-shot download cascade: for each newly
// discovered entry whose title matches a rule, render the detail page, extract
// gallery images and write them under the rule's destination.
package download

import "errors"

var (
	// ErrEmptyBody indicates an image request succeeded with zero bytes.
	ErrEmptyBody = errors.New("empty image body")

	// ErrNoExtractor indicates no image extractor exists for an entry's source.
	ErrNoExtractor = errors.New("no image extractor for source")
)
