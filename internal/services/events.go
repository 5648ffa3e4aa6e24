package services

import (
	"context"
	"log/slog"
)

// publishEvent pushes a ledger event when a publisher is wired. The
// export pipeline is bookkeeping, so a failed publish is logged and
// the ledger operation itself still succeeds.
func publishEvent(ctx context.Context, events EventPublisher, kind, recordID, ownerID string) {
	if events == nil {
		return
	}
	if err := events.PublishLedgerEvent(ctx, kind, recordID, ownerID); err != nil {
		slog.WarnContext(ctx, "Failed to publish ledger event",
			"kind", kind, "record_id", recordID, "error", err)
	}
}
