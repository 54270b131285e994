package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

func (r *Repository) CreateCategory(ctx context.Context, c *core.Category) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (user_id, name, type, color, active) VALUES (?, ?, ?, ?, 1)`,
		c.UserID, c.Name, c.Type, c.Color)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("category id: %w", err)
	}
	c.ID = id
	c.Active = true
	return nil
}

// GetCategory returns a category visible to the user: their own or a global one.
func (r *Repository) GetCategory(ctx context.Context, userID, id int64) (*core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, type, color, active
		 FROM categories WHERE id = ? AND (user_id = ? OR user_id IS NULL)`, id, userID)
	return scanCategory(row)
}

// ListCategories returns the user's categories plus the global set,
// globals first.
func (r *Repository) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, type, color, active
		 FROM categories
		 WHERE (user_id = ? OR user_id IS NULL) AND active = 1
		 ORDER BY user_id IS NOT NULL, type, name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		cats = append(cats, *c)
	}
	return cats, rows.Err()
}

// UpdateCategory edits a user-owned category. Globals are read-only.
func (r *Repository) UpdateCategory(ctx context.Context, c *core.Category) error {
	if c.UserID == nil {
		return core.ErrForbidden
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, color = ? WHERE id = ? AND user_id = ?`,
		c.Name, c.Color, c.ID, *c.UserID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireRow(res)
}

// DeactivateCategory soft-deletes a user-owned category so existing
// transactions keep their reference.
func (r *Repository) DeactivateCategory(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET active = 0 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("deactivate category: %w", err)
	}
	return requireRow(res)
}

// FindOrCreateCategory resolves a category by name for the CSV importer,
// matching the user's own and global categories case-insensitively and
// creating a user-owned one when nothing matches.
func (r *Repository) FindOrCreateCategory(ctx context.Context, userID int64, name string, kind core.CategoryType) (*core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, type, color, active
		 FROM categories
		 WHERE name = ? COLLATE NOCASE AND type = ? AND (user_id = ? OR user_id IS NULL) AND active = 1
		 ORDER BY user_id IS NULL
		 LIMIT 1`, name, kind, userID)
	c, err := scanCategory(row)
	if err == nil {
		return c, nil
	}
	if err != core.ErrNotFound {
		return nil, err
	}

	created := &core.Category{UserID: &userID, Name: name, Type: kind, Color: "#6b7280"}
	if err := r.CreateCategory(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

func scanCategory(row rowScanner) (*core.Category, error) {
	var (
		c      core.Category
		userID sql.NullInt64
	)
	if err := row.Scan(&c.ID, &userID, &c.Name, &c.Type, &c.Color, &c.Active); err != nil {
		return nil, notFound(err)
	}
	if userID.Valid {
		c.UserID = &userID.Int64
	}
	return &c, nil
}

// categoryVisible checks that a category exists and is usable by the user,
// inside a transaction.
func categoryVisible(ctx context.Context, tx *sql.Tx, userID, id int64) error {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM categories
		 WHERE id = ? AND (user_id = ? OR user_id IS NULL) AND active = 1`, id, userID).Scan(&one)
	return notFound(err)
}
