package crawl

import (
	"sort"

	"board-watcher/internal/domain/entity"
)

// Merge combines freshly scraped entries with the stored state of one source.
//
// Fresh entries take priority: when a link is present in both slices the fresh
// copy (and its ObservedAt) wins, which keeps an entry's "last seen" clock alive
// while it stays on the listing page. Duplicates inside fresh collapse to their
// first occurrence. The merged state is stable-sorted by ObservedAt, newest first.
//
// newlyDiscovered holds the fresh entries whose link is absent from stored,
// computed against stored before merging. Only these drive the download cascade.
func Merge(fresh, stored []entity.Entry) (merged, newlyDiscovered []entity.Entry) {
	known := make(map[string]struct{}, len(stored))
	for _, e := range stored {
		known[e.Link] = struct{}{}
	}

	seen := make(map[string]struct{}, len(fresh)+len(stored))
	merged = make([]entity.Entry, 0, len(fresh)+len(stored))

	for _, e := range fresh {
		if _, dup := seen[e.Link]; dup {
			continue
		}
		seen[e.Link] = struct{}{}
		merged = append(merged, e)

		if _, ok := known[e.Link]; !ok {
			newlyDiscovered = append(newlyDiscovered, e)
		}
	}

	for _, e := range stored {
		if _, dup := seen[e.Link]; dup {
			continue
		}
		seen[e.Link] = struct{}{}
		merged = append(merged, e)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].ObservedAt > merged[j].ObservedAt
	})

	return merged, newlyDiscovered
}
