package storage

import (
	"context"
	"fmt"

	"fintrack/internal/core"
)

func (r *Repository) CreateTag(ctx context.Context, t *core.Tag) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tags (user_id, name, color) VALUES (?, ?, ?)`,
		t.UserID, t.Name, t.Color)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("tag %q already exists: %w", t.Name, err)
		}
		return fmt.Errorf("insert tag: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("tag id: %w", err)
	}
	t.ID = id
	return nil
}

func (r *Repository) ListTags(ctx context.Context, userID int64) ([]core.Tag, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, color FROM tags WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []core.Tag
	for rows.Next() {
		var t core.Tag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Color); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (r *Repository) UpdateTag(ctx context.Context, t *core.Tag) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tags SET name = ?, color = ? WHERE id = ? AND user_id = ?`,
		t.Name, t.Color, t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("update tag: %w", err)
	}
	return requireRow(res)
}

// DeleteTag removes the tag; the link table cascades.
func (r *Repository) DeleteTag(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM tags WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return requireRow(res)
}
