package storage

import (
	"context"
	"fmt"

	"fintrack/internal/core"
)

// Saved filters are opaque to the server: the client stores a JSON blob and
// gets it back verbatim.

func (r *Repository) CreateSavedFilter(ctx context.Context, f *core.SavedFilter) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO saved_filters (user_id, name, type, filters) VALUES (?, ?, ?, ?)`,
		f.UserID, f.Name, f.Type, f.Filters)
	if err != nil {
		return fmt.Errorf("insert saved filter: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("saved filter id: %w", err)
	}
	f.ID = id
	return nil
}

func (r *Repository) ListSavedFilters(ctx context.Context, userID int64) ([]core.SavedFilter, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, type, filters FROM saved_filters WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list saved filters: %w", err)
	}
	defer rows.Close()

	var filters []core.SavedFilter
	for rows.Next() {
		var f core.SavedFilter
		if err := rows.Scan(&f.ID, &f.UserID, &f.Name, &f.Type, &f.Filters); err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, rows.Err()
}

func (r *Repository) DeleteSavedFilter(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM saved_filters WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete saved filter: %w", err)
	}
	return requireRow(res)
}
