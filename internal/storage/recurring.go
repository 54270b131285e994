package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

func (r *Repository) CreateRecurring(ctx context.Context, rt *core.RecurringTransaction) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_transactions
		 (user_id, account_id, category_id, type, amount_cents, description, frequency, next_due_date, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		rt.UserID, rt.AccountID, rt.CategoryID, rt.Type, rt.Amount.Cents,
		rt.Description, rt.Frequency, dateString(rt.NextDue))
	if err != nil {
		return fmt.Errorf("insert recurring transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("recurring transaction id: %w", err)
	}
	rt.ID = id
	rt.Active = true
	return nil
}

func (r *Repository) GetRecurring(ctx context.Context, userID, id int64) (*core.RecurringTransaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, account_id, category_id, type, amount_cents, description, frequency, next_due_date, active
		 FROM recurring_transactions WHERE id = ? AND user_id = ?`, id, userID)
	return scanRecurring(row)
}

func (r *Repository) ListRecurring(ctx context.Context, userID int64) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, account_id, category_id, type, amount_cents, description, frequency, next_due_date, active
		 FROM recurring_transactions WHERE user_id = ? AND active = 1 ORDER BY next_due_date`, userID)
	if err != nil {
		return nil, fmt.Errorf("list recurring transactions: %w", err)
	}
	defer rows.Close()
	return collectRecurring(rows)
}

// ListDueRecurring returns every active template across all users whose next
// due date is on or before asOf. The sweep worker drives this.
func (r *Repository) ListDueRecurring(ctx context.Context, asOf core.Date) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, account_id, category_id, type, amount_cents, description, frequency, next_due_date, active
		 FROM recurring_transactions WHERE active = 1 AND next_due_date <= ? ORDER BY next_due_date`,
		dateString(asOf))
	if err != nil {
		return nil, fmt.Errorf("list due recurring transactions: %w", err)
	}
	defer rows.Close()
	return collectRecurring(rows)
}

func (r *Repository) UpdateRecurring(ctx context.Context, rt *core.RecurringTransaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_transactions
		 SET account_id = ?, category_id = ?, type = ?, amount_cents = ?, description = ?,
		     frequency = ?, next_due_date = ?, active = ?
		 WHERE id = ? AND user_id = ?`,
		rt.AccountID, rt.CategoryID, rt.Type, rt.Amount.Cents, rt.Description,
		rt.Frequency, dateString(rt.NextDue), rt.Active, rt.ID, rt.UserID)
	if err != nil {
		return fmt.Errorf("update recurring transaction: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteRecurring(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM recurring_transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete recurring transaction: %w", err)
	}
	return requireRow(res)
}

// MaterializeRecurring inserts the real transaction for a due template and
// advances the template's due date, atomically. A template that fails
// midway leaves no partial state behind.
func (r *Repository) MaterializeRecurring(ctx context.Context, rt *core.RecurringTransaction, t *core.Transaction, nextDue core.Date) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertTransaction(ctx, tx, t); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE recurring_transactions SET next_due_date = ? WHERE id = ? AND user_id = ?`,
			dateString(nextDue), rt.ID, rt.UserID)
		if err != nil {
			return fmt.Errorf("advance recurring transaction: %w", err)
		}
		return requireRow(res)
	})
}

func collectRecurring(rows *sql.Rows) ([]core.RecurringTransaction, error) {
	var list []core.RecurringTransaction
	for rows.Next() {
		rt, err := scanRecurring(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *rt)
	}
	return list, rows.Err()
}

func scanRecurring(row rowScanner) (*core.RecurringTransaction, error) {
	var (
		rt      core.RecurringTransaction
		catID   sql.NullInt64
		rawDate string
	)
	err := row.Scan(&rt.ID, &rt.UserID, &rt.AccountID, &catID, &rt.Type, &rt.Amount.Cents,
		&rt.Description, &rt.Frequency, &rawDate, &rt.Active)
	if err != nil {
		return nil, notFound(err)
	}
	if catID.Valid {
		rt.CategoryID = &catID.Int64
	}
	if rt.NextDue, err = parseDate(rawDate); err != nil {
		return nil, err
	}
	return &rt, nil
}
