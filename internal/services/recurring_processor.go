package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// RecurringProcessor materializes due recurring-transaction templates into
// real transactions. The sweep worker calls it on an interval.
type RecurringProcessor struct {
	storage      *storage.Repository
	transactions *TransactionService
}

func NewRecurringProcessor(storage *storage.Repository, transactions *TransactionService) *RecurringProcessor {
	return &RecurringProcessor{storage: storage, transactions: transactions}
}

// ProcessDue materializes every active template due on or before now and
// advances its next due date. Templates keep firing one period at a time
// until they catch up, so a worker outage creates the missed occurrences on
// the next sweep. One bad template does not stop the rest.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.storage == nil || p.transactions == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	today := core.DateOf(now)
	due, err := p.storage.ListDueRecurring(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("list due recurring transactions: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring transactions",
		"due", len(due),
		"as_of", today.Format("2006-01-02"))

	processed := 0
	for i := range due {
		rt := &due[i]
		t := &core.Transaction{
			UserID:      rt.UserID,
			AccountID:   rt.AccountID,
			CategoryID:  rt.CategoryID,
			Type:        rt.Type,
			Amount:      rt.Amount,
			Description: rt.Description,
			Date:        rt.NextDue,
		}

		next := NextOccurrence(rt.NextDue, rt.Frequency)
		if err := p.storage.MaterializeRecurring(ctx, rt, t, next); err != nil {
			slog.ErrorContext(ctx, "Failed to materialize recurring transaction",
				"recurring_id", rt.ID,
				"description", rt.Description,
				"error", err)
			continue
		}

		processed++
		slog.InfoContext(ctx, "Created transaction from recurring template",
			"recurring_id", rt.ID,
			"transaction_id", t.ID,
			"amount_cents", t.Amount.Cents,
			"frequency", rt.Frequency,
			"next_due", next.Format("2006-01-02"))
	}

	slog.InfoContext(ctx, "Recurring transaction processing complete",
		"processed", processed,
		"due", len(due))

	return processed, nil
}

// NextOccurrence advances a due date by one frequency step. Month-based
// steps clamp to the last day of the target month, so a template anchored
// on the 31st fires on Feb 29 rather than spilling into March.
func NextOccurrence(d core.Date, freq core.Frequency) core.Date {
	switch freq {
	case core.FrequencyDaily:
		return core.DateOf(d.AddDate(0, 0, 1))
	case core.FrequencyWeekly:
		return core.DateOf(d.AddDate(0, 0, 7))
	case core.FrequencyBiweekly:
		return core.DateOf(d.AddDate(0, 0, 14))
	case core.FrequencyQuarterly:
		return d.AddMonths(3)
	case core.FrequencyYearly:
		return d.AddMonths(12)
	default:
		return d.AddMonths(1)
	}
}
