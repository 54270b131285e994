package worker

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/mirror"
	"fintrack/internal/storage"
)

// MirrorWorker consumes the events queue: it replicates transactions to the
// spreadsheet mirror and records budget and reminder notifications.
type MirrorWorker struct {
	storage   *storage.Repository
	writer    mirror.RowWriter
	batchSize int
}

// NewMirrorWorker builds a worker. A nil writer disables the spreadsheet
// mirror; notification events are still handled.
func NewMirrorWorker(storage *storage.Repository, writer mirror.RowWriter, batchSize int) *MirrorWorker {
	return &MirrorWorker{storage: storage, writer: writer, batchSize: batchSize}
}

// HandleEvent dispatches one queue delivery. Returning an error requeues it.
func (w *MirrorWorker) HandleEvent(ctx context.Context, event *amqp.Event) error {
	switch event.Kind {
	case amqp.KindTransactionCreated:
		var payload amqp.TransactionCreated
		if err := event.Decode(amqp.KindTransactionCreated, &payload); err != nil {
			return err
		}
		return w.mirrorTransaction(ctx, payload.UserID, payload.TransactionID)

	case amqp.KindBudgetAlert:
		var payload amqp.BudgetAlert
		if err := event.Decode(amqp.KindBudgetAlert, &payload); err != nil {
			return err
		}
		// Notification channels beyond the log are out of scope; the log
		// line is the delivery.
		slog.WarnContext(ctx, "Budget threshold crossed",
			"user_id", payload.UserID,
			"budget_id", payload.BudgetID,
			"category_id", payload.CategoryID,
			"spent_cents", payload.SpentCents,
			"limit_cents", payload.LimitCents,
			"percent_used", payload.PercentUsed,
			"status", payload.Status)
		return nil

	case amqp.KindReminderDue:
		var payload amqp.ReminderDue
		if err := event.Decode(amqp.KindReminderDue, &payload); err != nil {
			return err
		}
		slog.InfoContext(ctx, "Reminder due",
			"user_id", payload.UserID,
			"reminder_id", payload.ReminderID,
			"title", payload.Title,
			"due_date", payload.DueDate)
		return nil

	default:
		// Unknown kinds are dropped, not requeued; a newer producer may be
		// emitting events this worker does not know yet.
		slog.WarnContext(ctx, "Dropping event of unknown kind", "kind", event.Kind)
		return nil
	}
}

func (w *MirrorWorker) mirrorTransaction(ctx context.Context, userID, id int64) error {
	if w.writer == nil {
		slog.DebugContext(ctx, "Mirror disabled, skipping transaction", "transaction_id", id)
		return nil
	}

	t, err := w.storage.GetTransaction(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("load transaction %d: %w", id, err)
	}
	return w.appendRow(ctx, t)
}

func (w *MirrorWorker) appendRow(ctx context.Context, t *core.Transaction) error {
	accountName := ""
	if account, err := w.storage.GetAccount(ctx, t.UserID, t.AccountID); err == nil {
		accountName = account.Name
	}
	categoryName := ""
	if t.CategoryID != nil {
		if category, err := w.storage.GetCategory(ctx, t.UserID, *t.CategoryID); err == nil {
			categoryName = category.Name
		}
	}

	if err := w.writer.AppendRow(ctx, mirror.Row(*t, accountName, categoryName)); err != nil {
		if markErr := w.storage.SetMirrorState(ctx, t.ID, storage.MirrorError); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark mirror error",
				"transaction_id", t.ID, "error", markErr)
		}
		return fmt.Errorf("append transaction %d: %w", t.ID, err)
	}

	if err := w.storage.SetMirrorState(ctx, t.ID, storage.MirrorDone); err != nil {
		// The row is already in the sheet; do not requeue and append twice.
		slog.ErrorContext(ctx, "Failed to mark transaction mirrored",
			"transaction_id", t.ID, "error", err)
	}

	slog.InfoContext(ctx, "Mirrored transaction",
		"transaction_id", t.ID,
		"amount_cents", t.Amount.Cents)
	return nil
}

// SweepPending mirrors transactions whose events were lost, in batches.
// Called once at startup and then on an interval.
func (w *MirrorWorker) SweepPending(ctx context.Context) error {
	if w.writer == nil {
		return nil
	}

	pending, err := w.storage.PendingMirror(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Sweeping pending mirror transactions", "count", len(pending))

	mirrored := 0
	for i := range pending {
		if err := w.appendRow(ctx, &pending[i]); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror pending transaction",
				"transaction_id", pending[i].ID, "error", err)
			continue
		}
		mirrored++
	}

	slog.InfoContext(ctx, "Pending mirror sweep complete",
		"mirrored", mirrored,
		"total", len(pending))
	return nil
}
