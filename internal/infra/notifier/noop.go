package notifier

import (
	"context"

	"board-watcher/internal/domain/entity"
)

// NoOpNotifier drops every notification. It is used when no channel is enabled.
type NoOpNotifier struct{}

func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

func (n *NoOpNotifier) NotifyNewEntries(context.Context, entity.SourceTag, []entity.Entry) {}
