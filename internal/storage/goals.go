package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

func (r *Repository) CreateGoal(ctx context.Context, g *core.Goal) error {
	var targetDate *string
	if g.TargetDate != nil {
		s := dateString(*g.TargetDate)
		targetDate = &s
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (user_id, name, target_cents, current_cents, target_date, category_label, completed)
		 VALUES (?, ?, ?, ?, ?, ?, 0)`,
		g.UserID, g.Name, g.Target.Cents, g.Current.Cents, targetDate, g.CategoryLabel)
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("goal id: %w", err)
	}
	g.ID = id
	return nil
}

func (r *Repository) GetGoal(ctx context.Context, userID, id int64) (*core.Goal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, target_cents, current_cents, target_date, category_label, completed
		 FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	return scanGoal(row)
}

func (r *Repository) ListGoals(ctx context.Context, userID int64) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, target_cents, current_cents, target_date, category_label, completed
		 FROM goals WHERE user_id = ? ORDER BY completed, target_date IS NULL, target_date, name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

// UpdateGoal edits name, target, target date and label. The running total
// only moves through contributions.
func (r *Repository) UpdateGoal(ctx context.Context, g *core.Goal) error {
	var targetDate *string
	if g.TargetDate != nil {
		s := dateString(*g.TargetDate)
		targetDate = &s
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE goals
		 SET name = ?, target_cents = ?, target_date = ?, category_label = ?,
		     completed = (CASE WHEN current_cents >= ? THEN 1 ELSE completed END)
		 WHERE id = ? AND user_id = ?`,
		g.Name, g.Target.Cents, targetDate, g.CategoryLabel, g.Target.Cents, g.ID, g.UserID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteGoal(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return requireRow(res)
}

// Contribute appends a contribution and bumps the goal's running total in
// one transaction. A goal that reaches its target latches completed; it
// never un-completes, even if the target is later raised.
func (r *Repository) Contribute(ctx context.Context, c *core.GoalContribution) (*core.Goal, error) {
	var updated *core.Goal
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT id, user_id, name, target_cents, current_cents, target_date, category_label, completed
			 FROM goals WHERE id = ? AND user_id = ?`, c.GoalID, c.UserID)
		g, err := scanGoal(row)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO goal_contributions (goal_id, user_id, amount_cents, note, contribution_date)
			 VALUES (?, ?, ?, ?, ?)`,
			c.GoalID, c.UserID, c.Amount.Cents, c.Note, dateString(c.Date))
		if err != nil {
			return fmt.Errorf("insert contribution: %w", err)
		}
		c.ID, _ = res.LastInsertId()

		g.Current.Cents += c.Amount.Cents
		if g.Current.Cents >= g.Target.Cents {
			g.Completed = true
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE goals SET current_cents = ?, completed = ? WHERE id = ?`,
			g.Current.Cents, g.Completed, g.ID); err != nil {
			return fmt.Errorf("update goal total: %w", err)
		}
		updated = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListContributions returns a goal's ledger, newest first.
func (r *Repository) ListContributions(ctx context.Context, userID, goalID int64) ([]core.GoalContribution, error) {
	if _, err := r.GetGoal(ctx, userID, goalID); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, goal_id, user_id, amount_cents, note, contribution_date
		 FROM goal_contributions WHERE goal_id = ? ORDER BY contribution_date DESC, id DESC`, goalID)
	if err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	defer rows.Close()

	var contributions []core.GoalContribution
	for rows.Next() {
		var (
			c       core.GoalContribution
			rawDate string
		)
		if err := rows.Scan(&c.ID, &c.GoalID, &c.UserID, &c.Amount.Cents, &c.Note, &rawDate); err != nil {
			return nil, err
		}
		if c.Date, err = parseDate(rawDate); err != nil {
			return nil, err
		}
		contributions = append(contributions, c)
	}
	return contributions, rows.Err()
}

func scanGoal(row rowScanner) (*core.Goal, error) {
	var (
		g       core.Goal
		rawDate sql.NullString
	)
	err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.Target.Cents, &g.Current.Cents,
		&rawDate, &g.CategoryLabel, &g.Completed)
	if err != nil {
		return nil, notFound(err)
	}
	if rawDate.Valid {
		d, err := parseDate(rawDate.String)
		if err != nil {
			return nil, err
		}
		g.TargetDate = &d
	}
	return &g, nil
}
