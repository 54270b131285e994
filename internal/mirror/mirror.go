// Package mirror replicates transactions to an external spreadsheet for
// users who keep their finances in Google Sheets alongside the app.
package mirror

import (
	"context"

	"fintrack/internal/core"
)

// RowWriter is the outbound port: one appended row per transaction.
type RowWriter interface {
	AppendRow(ctx context.Context, row []any) error
}

// Row renders a transaction as a spreadsheet row: date, type, amount in
// major units, description, category and account names, notes.
func Row(t core.Transaction, accountName, categoryName string) []any {
	return []any{
		t.Date.Format("2006-01-02"),
		string(t.Type),
		core.FormatCents(t.Amount.Cents),
		t.Description,
		categoryName,
		accountName,
		t.Notes,
	}
}
