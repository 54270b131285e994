package storage

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/core"
)

func (r *Repository) CreateAccount(ctx context.Context, a *core.Account) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (user_id, name, type, balance_cents, currency, active)
		 VALUES (?, ?, ?, ?, ?, 1)`,
		a.UserID, a.Name, a.Type, a.Balance.Cents, a.Currency)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("account id: %w", err)
	}
	a.ID = id
	a.Active = true
	return nil
}

func (r *Repository) GetAccount(ctx context.Context, userID, id int64) (*core.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, type, balance_cents, currency, active
		 FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
	return scanAccount(row)
}

func (r *Repository) ListAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, type, balance_cents, currency, active
		 FROM accounts WHERE user_id = ? AND active = 1 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func (r *Repository) UpdateAccount(ctx context.Context, a *core.Account) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET name = ?, type = ?, currency = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ?`,
		a.Name, a.Type, a.Currency, a.ID, a.UserID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return requireRow(res)
}

// DeactivateAccount soft-deletes an account. Its transactions remain.
func (r *Repository) DeactivateAccount(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET active = 0, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("deactivate account: %w", err)
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*core.Account, error) {
	var a core.Account
	if err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Balance.Cents, &a.Currency, &a.Active); err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// lockAccount fetches an account row inside a transaction, verifying
// ownership. SQLite serializes writers so no explicit row lock is needed.
func lockAccount(ctx context.Context, tx *sql.Tx, userID, id int64) (*core.Account, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT id, user_id, name, type, balance_cents, currency, active
		 FROM accounts WHERE id = ? AND user_id = ? AND active = 1`, id, userID)
	return scanAccount(row)
}

// adjustBalance applies a signed cents delta to an account inside tx.
func adjustBalance(ctx context.Context, tx *sql.Tx, userID, accountID, deltaCents int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = balance_cents + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ?`,
		deltaCents, accountID, userID)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	return requireRow(res)
}
