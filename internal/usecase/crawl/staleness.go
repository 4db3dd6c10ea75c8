package crawl

import (
	"time"

	"board-watcher/internal/domain/entity"
)

const (
	// StaleAfter is how long an entry stays "new" after it was last observed.
	StaleAfter = 8 * time.Hour

	// ExpireAfter is how long an entry is tracked after it was last observed.
	ExpireAfter = 48 * time.Hour
)

// Classify recomputes the freshness of a loaded state against now.
//
// Entries last observed ExpireAfter or longer ago are dropped. The remaining
// entries get IsNew = age < StaleAfter. The input slice is not modified.
//
//	New --(>=8h unseen)--> Stale --(>=48h unseen)--> removed
//
// Re-observation resets an entry to New through Merge, not here.
func Classify(entries []entity.Entry, now time.Time) []entity.Entry {
	out := make([]entity.Entry, 0, len(entries))
	for _, e := range entries {
		age := e.Age(now)
		if age >= ExpireAfter {
			continue
		}
		e.IsNew = age < StaleAfter
		out = append(out, e)
	}
	return out
}
