// Package worker exports ledger records referenced by AMQP events to
// the family's history spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"jellybank/internal/amqp"
	"jellybank/internal/core"
	"jellybank/internal/services"
	"jellybank/internal/sheets"
	"jellybank/internal/storage"
)

// ExportStore is the read access the worker needs to turn an event
// back into a full record.
type ExportStore interface {
	GetGrant(ctx context.Context, id string) (core.Grant, error)
	GetClaimByID(ctx context.Context, id string) (core.Claim, error)
	GetExchange(ctx context.Context, id string) (core.Exchange, error)
	GetAllowanceRequest(ctx context.Context, id string) (core.AllowanceRequest, error)
}

type ExportWorker struct {
	store  ExportStore
	writer sheets.LedgerWriter
}

func NewExportWorker(store ExportStore, writer sheets.LedgerWriter) *ExportWorker {
	return &ExportWorker{store: store, writer: writer}
}

// HandleLedgerEvent refetches the record an event points at and appends
// it to the export target. A record deleted since publication is logged
// and dropped rather than retried forever.
func (w *ExportWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	entry, err := w.buildEntry(ctx, msg)
	if err != nil {
		// Requeueing cannot fix a missing record or an unknown kind.
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, errUnknownKind) {
			slog.WarnContext(ctx, "Dropping unexportable ledger event",
				"kind", msg.Kind,
				"record_id", msg.RecordID,
				"error", err)
			return nil
		}
		return fmt.Errorf("load record for export: %w", err)
	}

	ref, err := w.writer.Append(ctx, entry)
	if err != nil {
		return fmt.Errorf("append export row: %w", err)
	}

	slog.InfoContext(ctx, "Exported ledger record",
		"kind", msg.Kind,
		"record_id", msg.RecordID,
		"row_ref", ref)
	return nil
}

func (w *ExportWorker) buildEntry(ctx context.Context, msg *amqp.LedgerEventMessage) (sheets.ExportEntry, error) {
	switch msg.Kind {
	case services.EventGrant:
		g, err := w.store.GetGrant(ctx, msg.RecordID)
		if err != nil {
			return sheets.ExportEntry{}, err
		}
		return sheets.ExportEntry{
			Kind:       msg.Kind,
			RecordID:   g.ID,
			OwnerID:    g.ChildID,
			Detail:     fmt.Sprintf("%s %s on %s", g.Jelly, g.Challenge, g.TargetDate),
			Amount:     g.Amount,
			OccurredAt: g.CreatedAt,
		}, nil

	case services.EventClaim:
		c, err := w.store.GetClaimByID(ctx, msg.RecordID)
		if err != nil {
			return sheets.ExportEntry{}, err
		}
		return sheets.ExportEntry{
			Kind:       msg.Kind,
			RecordID:   c.ID,
			OwnerID:    c.ChildID,
			Detail:     fmt.Sprintf("%s reward for %s", c.RewardKind, c.PeriodKey),
			Amount:     1,
			OccurredAt: c.CreatedAt,
		}, nil

	case services.EventExchange:
		e, err := w.store.GetExchange(ctx, msg.RecordID)
		if err != nil {
			return sheets.ExportEntry{}, err
		}
		return sheets.ExportEntry{
			Kind:       msg.Kind,
			RecordID:   e.ID,
			OwnerID:    e.UserID,
			Detail:     fmt.Sprintf("%d %s at rate %d", e.Amount, e.Jelly, e.Rate),
			Amount:     e.ExchangedCash,
			OccurredAt: e.CreatedAt,
		}, nil

	case services.EventSettlement:
		req, err := w.store.GetAllowanceRequest(ctx, msg.RecordID)
		if err != nil {
			return sheets.ExportEntry{}, err
		}
		occurred := req.CreatedAt
		if req.SettledAt != nil {
			occurred = *req.SettledAt
		}
		return sheets.ExportEntry{
			Kind:       msg.Kind,
			RecordID:   req.ID,
			OwnerID:    req.ChildID,
			Detail:     fmt.Sprintf("allowance paid out (%s)", req.Status),
			Amount:     req.RequestedCash,
			OccurredAt: occurred,
		}, nil

	default:
		return sheets.ExportEntry{}, fmt.Errorf("%w: %q", errUnknownKind, msg.Kind)
	}
}

var errUnknownKind = errors.New("unknown event kind")
