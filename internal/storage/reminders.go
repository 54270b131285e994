package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fintrack/internal/core"
)

func (r *Repository) CreateReminder(ctx context.Context, rem *core.Reminder) error {
	var amount *int64
	if rem.Amount != nil {
		amount = &rem.Amount.Cents
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO reminders
		 (user_id, category_id, title, description, amount_cents, due_date, recurring, frequency, completed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		rem.UserID, rem.CategoryID, rem.Title, rem.Description, amount,
		dateString(rem.DueDate), rem.Recurring, rem.Frequency)
	if err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reminder id: %w", err)
	}
	rem.ID = id
	return nil
}

func (r *Repository) GetReminder(ctx context.Context, userID, id int64) (*core.Reminder, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, category_id, title, description, amount_cents, due_date, recurring, frequency, completed, completed_at
		 FROM reminders WHERE id = ? AND user_id = ?`, id, userID)
	return scanReminder(row)
}

// ListReminders returns the user's reminders, open ones first, soonest due
// first. Completed reminders are kept for history.
func (r *Repository) ListReminders(ctx context.Context, userID int64, includeCompleted bool) ([]core.Reminder, error) {
	query := `SELECT id, user_id, category_id, title, description, amount_cents, due_date, recurring, frequency, completed, completed_at
	          FROM reminders WHERE user_id = ?`
	if !includeCompleted {
		query += ` AND completed = 0`
	}
	query += ` ORDER BY completed, due_date`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()
	return collectReminders(rows)
}

// ListDueReminders returns open reminders across all users due on or before
// asOf, for the notification sweep.
func (r *Repository) ListDueReminders(ctx context.Context, asOf core.Date) ([]core.Reminder, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, category_id, title, description, amount_cents, due_date, recurring, frequency, completed, completed_at
		 FROM reminders WHERE completed = 0 AND due_date <= ? ORDER BY due_date`,
		dateString(asOf))
	if err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}
	defer rows.Close()
	return collectReminders(rows)
}

func (r *Repository) UpdateReminder(ctx context.Context, rem *core.Reminder) error {
	var amount *int64
	if rem.Amount != nil {
		amount = &rem.Amount.Cents
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE reminders
		 SET category_id = ?, title = ?, description = ?, amount_cents = ?, due_date = ?, recurring = ?, frequency = ?
		 WHERE id = ? AND user_id = ? AND completed = 0`,
		rem.CategoryID, rem.Title, rem.Description, amount, dateString(rem.DueDate),
		rem.Recurring, rem.Frequency, rem.ID, rem.UserID)
	if err != nil {
		return fmt.Errorf("update reminder: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteReminder(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return requireRow(res)
}

// CompleteReminder marks a reminder done and, for recurring ones, inserts
// the next occurrence in the same transaction. The completed row stays.
// Completing twice is idempotent; only the first call spawns a successor.
func (r *Repository) CompleteReminder(ctx context.Context, userID, id int64, now time.Time) (*core.Reminder, error) {
	var next *core.Reminder
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT id, user_id, category_id, title, description, amount_cents, due_date, recurring, frequency, completed, completed_at
			 FROM reminders WHERE id = ? AND user_id = ?`, id, userID)
		rem, err := scanReminder(row)
		if err != nil {
			return err
		}
		if rem.Completed {
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE reminders SET completed = 1, completed_at = ? WHERE id = ?`,
			now.UTC(), id); err != nil {
			return fmt.Errorf("complete reminder: %w", err)
		}

		if !rem.Recurring {
			return nil
		}

		due := rem.DueDate
		switch rem.Frequency {
		case core.FrequencyYearly:
			due = due.AddMonths(12)
		default:
			due = due.AddMonths(1)
		}

		var amount *int64
		if rem.Amount != nil {
			amount = &rem.Amount.Cents
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO reminders
			 (user_id, category_id, title, description, amount_cents, due_date, recurring, frequency, completed)
			 VALUES (?, ?, ?, ?, ?, ?, 1, ?, 0)`,
			rem.UserID, rem.CategoryID, rem.Title, rem.Description, amount,
			dateString(due), rem.Frequency)
		if err != nil {
			return fmt.Errorf("insert next reminder: %w", err)
		}
		nextID, _ := res.LastInsertId()
		clone := *rem
		clone.ID = nextID
		clone.DueDate = due
		clone.Completed = false
		clone.CompletedAt = nil
		next = &clone
		return nil
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

func collectReminders(rows *sql.Rows) ([]core.Reminder, error) {
	var list []core.Reminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *rem)
	}
	return list, rows.Err()
}

func scanReminder(row rowScanner) (*core.Reminder, error) {
	var (
		rem         core.Reminder
		catID       sql.NullInt64
		amount      sql.NullInt64
		rawDue      string
		completedAt sql.NullTime
	)
	err := row.Scan(&rem.ID, &rem.UserID, &catID, &rem.Title, &rem.Description,
		&amount, &rawDue, &rem.Recurring, &rem.Frequency, &rem.Completed, &completedAt)
	if err != nil {
		return nil, notFound(err)
	}
	if catID.Valid {
		rem.CategoryID = &catID.Int64
	}
	if amount.Valid {
		rem.Amount = &core.Money{Cents: amount.Int64}
	}
	if completedAt.Valid {
		t := completedAt.Time
		rem.CompletedAt = &t
	}
	if rem.DueDate, err = parseDate(rawDue); err != nil {
		return nil, err
	}
	return &rem, nil
}
