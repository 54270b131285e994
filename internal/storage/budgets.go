package storage

import (
	"context"
	"fmt"

	"fintrack/internal/core"
)

func (r *Repository) CreateBudget(ctx context.Context, b *core.Budget) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (user_id, category_id, amount_cents, period_type, period_year, period_month, active)
		 VALUES (?, ?, ?, ?, ?, ?, 1)`,
		b.UserID, b.CategoryID, b.Amount.Cents, b.Period.Type, b.Period.Year, b.Period.Month)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrDuplicateBudget
		}
		return fmt.Errorf("insert budget: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("budget id: %w", err)
	}
	b.ID = id
	b.Active = true
	return nil
}

func (r *Repository) GetBudget(ctx context.Context, userID, id int64) (*core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, category_id, amount_cents, period_type, period_year, period_month, active
		 FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	return scanBudget(row)
}

// ListBudgets returns the user's active budgets, optionally narrowed to one
// period when period is non-nil.
func (r *Repository) ListBudgets(ctx context.Context, userID int64, period *core.Period) ([]core.Budget, error) {
	query := `SELECT id, user_id, category_id, amount_cents, period_type, period_year, period_month, active
	          FROM budgets WHERE user_id = ? AND active = 1`
	args := []any{userID}
	if period != nil {
		query += ` AND period_type = ? AND period_year = ? AND period_month = ?`
		args = append(args, period.Type, period.Year, period.Month)
	}
	query += ` ORDER BY period_year DESC, period_month DESC, category_id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, *b)
	}
	return budgets, rows.Err()
}

// UpdateBudget changes the target amount. Category and period are immutable;
// delete and recreate to move a budget.
func (r *Repository) UpdateBudget(ctx context.Context, userID, id int64, amount core.Money) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET amount_cents = ? WHERE id = ? AND user_id = ?`,
		amount.Cents, id, userID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteBudget(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireRow(res)
}

func scanBudget(row rowScanner) (*core.Budget, error) {
	var b core.Budget
	err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Amount.Cents,
		&b.Period.Type, &b.Period.Year, &b.Period.Month, &b.Active)
	if err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}
