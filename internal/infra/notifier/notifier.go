// Package notifier announces newly discovered entries to chat channels.
// Delivery is best effort: failures are logged and counted, never retried and
// never returned to the polling cycle.
package notifier

import (
	"context"

	"board-watcher/internal/domain/entity"
)

// Notifier is told about the entries a cycle discovered for one tag.
type Notifier interface {
	NotifyNewEntries(ctx context.Context, tag entity.SourceTag, entries []entity.Entry)
}
