// Package notifier posts new-entry notifications to chat webhooks.
// Slack and Discord are supported; each notifier paces itself to the
// webhook's published rate limit and retries transient failures.
package notifier

import (
	"context"
	"fmt"
	"strings"

	"contest-api/internal/domain/entity"
)

// Notifier sends a notification about one persisted entry.
type Notifier interface {
	Name() string
	NotifyEntry(ctx context.Context, e *entity.Entry) error
}

// summary is the channel-independent text of a notification.
type summary struct {
	Title   string
	Details string
	Footer  string
}

// summarize renders the parts of an entry organizers see. The owner id and
// file bytes are left out.
func summarize(e *entity.Entry) summary {
	details := fmt.Sprintf("%s · %s · $%d", e.Category, entryTypeLabel(e.Type()), e.TotalAmount)
	if e.Description != "" {
		details += "\n\n" + e.Description
	}
	return summary{
		Title:   e.Title,
		Details: details,
		Footer:  e.ID,
	}
}

func entryTypeLabel(t entity.EntryType) string {
	return strings.ReplaceAll(string(t), "-", " ")
}
