// Package crawl implements the polling cycle: concurrent fetching of listing
// pages, staleness classification, merge/dedup against stored state, and the
// hand-off of newly discovered entries to the download cascade.
package crawl

import "errors"

var (
	// ErrNilSnapshot indicates RunCycle was called without a watch list.
	ErrNilSnapshot = errors.New("nil watch list snapshot")

	// ErrNoParser indicates no parser is registered for a source kind.
	ErrNoParser = errors.New("no parser for source kind")
)
