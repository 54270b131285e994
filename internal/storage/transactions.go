package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// Mirror states track replication of a transaction to the spreadsheet mirror.
const (
	MirrorPending = "pending"
	MirrorDone    = "mirrored"
	MirrorError   = "error"
)

// TransactionFilter narrows ListTransactions. Nil or zero fields are ignored.
type TransactionFilter struct {
	AccountID  *int64
	CategoryID *int64
	Type       core.TransactionType
	From       *core.Date
	To         *core.Date
	Limit      int
	Offset     int
}

func (r *Repository) CreateTransaction(ctx context.Context, t *core.Transaction) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		return insertTransaction(ctx, tx, t)
	})
}

// insertTransaction writes a transaction plus splits and tags and applies the
// balance delta, all inside the caller's database transaction.
func insertTransaction(ctx context.Context, tx *sql.Tx, t *core.Transaction) error {
	if _, err := lockAccount(ctx, tx, t.UserID, t.AccountID); err != nil {
		return fmt.Errorf("account %d: %w", t.AccountID, err)
	}
	if t.CategoryID != nil {
		if err := categoryVisible(ctx, tx, t.UserID, *t.CategoryID); err != nil {
			return fmt.Errorf("category %d: %w", *t.CategoryID, err)
		}
	}

	t.IsSplit = len(t.Splits) > 0

	res, err := tx.ExecContext(ctx,
		`INSERT INTO transactions
		 (user_id, account_id, category_id, type, amount_cents, description, tx_date, notes, is_split, transfer_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.AccountID, t.CategoryID, t.Type, t.Amount.Cents,
		t.Description, dateString(t.Date), t.Notes, t.IsSplit, t.TransferID)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("transaction id: %w", err)
	}
	t.ID = id

	for i := range t.Splits {
		s := &t.Splits[i]
		if err := categoryVisible(ctx, tx, t.UserID, s.CategoryID); err != nil {
			return fmt.Errorf("split category %d: %w", s.CategoryID, err)
		}
		sres, err := tx.ExecContext(ctx,
			`INSERT INTO transaction_splits (transaction_id, category_id, amount_cents, description)
			 VALUES (?, ?, ?, ?)`,
			id, s.CategoryID, s.Amount.Cents, s.Description)
		if err != nil {
			return fmt.Errorf("insert split: %w", err)
		}
		s.ID, _ = sres.LastInsertId()
		s.TransactionID = id
	}

	if err := linkTags(ctx, tx, t); err != nil {
		return err
	}

	return adjustBalance(ctx, tx, t.UserID, t.AccountID, balanceDelta(t.Type, t.Amount.Cents))
}

// balanceDelta maps a transaction row to its signed effect on the account.
// Transfer legs are stored as income or expense rows, so transfers need no
// case of their own.
func balanceDelta(kind core.TransactionType, cents int64) int64 {
	if kind == core.TransactionExpense {
		return -cents
	}
	return cents
}

func linkTags(ctx context.Context, tx *sql.Tx, t *core.Transaction) error {
	for _, tag := range t.Tags {
		var one int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM tags WHERE id = ? AND user_id = ?`, tag.ID, t.UserID).Scan(&one)
		if err != nil {
			return fmt.Errorf("tag %d: %w", tag.ID, notFound(err))
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO transaction_tags (transaction_id, tag_id) VALUES (?, ?)`,
			t.ID, tag.ID); err != nil {
			return fmt.Errorf("link tag: %w", err)
		}
	}
	return nil
}

func (r *Repository) GetTransaction(ctx context.Context, userID, id int64) (*core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, account_id, category_id, type, amount_cents, description, tx_date, notes, is_split, transfer_id
		 FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTransaction(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadSplitsAndTags(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *Repository) ListTransactions(ctx context.Context, userID int64, f TransactionFilter) ([]core.Transaction, error) {
	var (
		where = []string{"user_id = ?"}
		args  = []any{userID}
	)
	if f.AccountID != nil {
		where = append(where, "account_id = ?")
		args = append(args, *f.AccountID)
	}
	if f.CategoryID != nil {
		where = append(where, "category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, f.Type)
	}
	if f.From != nil {
		where = append(where, "tx_date >= ?")
		args = append(args, dateString(*f.From))
	}
	if f.To != nil {
		where = append(where, "tx_date <= ?")
		args = append(args, dateString(*f.To))
	}

	// Limit 0 gets the default page; negative means unbounded (backup export).
	limit := f.Limit
	switch {
	case limit == 0, limit > 500:
		limit = 100
	case limit < 0:
		limit = -1
	}
	args = append(args, limit, f.Offset)

	query := fmt.Sprintf(
		`SELECT id, user_id, account_id, category_id, type, amount_cents, description, tx_date, notes, is_split, transfer_id
		 FROM transactions WHERE %s
		 ORDER BY tx_date DESC, id DESC
		 LIMIT ? OFFSET ?`, strings.Join(where, " AND "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range txs {
		if err := r.loadSplitsAndTags(ctx, &txs[i]); err != nil {
			return nil, err
		}
	}
	return txs, nil
}

// UpdateTransaction replaces a transaction's mutable fields, splits and tags,
// reconciling account balances when the amount, type or account changed.
// Transfer legs cannot be edited; delete the transfer instead.
func (r *Repository) UpdateTransaction(ctx context.Context, t *core.Transaction) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		old, err := getTransactionTx(ctx, tx, t.UserID, t.ID)
		if err != nil {
			return err
		}
		if old.TransferID != "" {
			return core.ErrForbidden
		}

		if _, err := lockAccount(ctx, tx, t.UserID, t.AccountID); err != nil {
			return fmt.Errorf("account %d: %w", t.AccountID, err)
		}
		if t.CategoryID != nil {
			if err := categoryVisible(ctx, tx, t.UserID, *t.CategoryID); err != nil {
				return fmt.Errorf("category %d: %w", *t.CategoryID, err)
			}
		}

		t.IsSplit = len(t.Splits) > 0

		if _, err := tx.ExecContext(ctx,
			`UPDATE transactions
			 SET account_id = ?, category_id = ?, type = ?, amount_cents = ?, description = ?,
			     tx_date = ?, notes = ?, is_split = ?, mirror_state = ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ? AND user_id = ?`,
			t.AccountID, t.CategoryID, t.Type, t.Amount.Cents, t.Description,
			dateString(t.Date), t.Notes, t.IsSplit, MirrorPending, t.ID, t.UserID); err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM transaction_splits WHERE transaction_id = ?`, t.ID); err != nil {
			return fmt.Errorf("clear splits: %w", err)
		}
		for i := range t.Splits {
			s := &t.Splits[i]
			if err := categoryVisible(ctx, tx, t.UserID, s.CategoryID); err != nil {
				return fmt.Errorf("split category %d: %w", s.CategoryID, err)
			}
			sres, err := tx.ExecContext(ctx,
				`INSERT INTO transaction_splits (transaction_id, category_id, amount_cents, description)
				 VALUES (?, ?, ?, ?)`,
				t.ID, s.CategoryID, s.Amount.Cents, s.Description)
			if err != nil {
				return fmt.Errorf("insert split: %w", err)
			}
			s.ID, _ = sres.LastInsertId()
			s.TransactionID = t.ID
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM transaction_tags WHERE transaction_id = ?`, t.ID); err != nil {
			return fmt.Errorf("clear tags: %w", err)
		}
		if err := linkTags(ctx, tx, t); err != nil {
			return err
		}

		// Revert the old effect, then apply the new one.
		if err := adjustBalance(ctx, tx, t.UserID, old.AccountID, -balanceDelta(old.Type, old.Amount.Cents)); err != nil {
			return err
		}
		return adjustBalance(ctx, tx, t.UserID, t.AccountID, balanceDelta(t.Type, t.Amount.Cents))
	})
}

// DeleteTransaction removes a transaction and reverts its balance effect.
// Deleting one leg of a transfer deletes both legs.
func (r *Repository) DeleteTransaction(ctx context.Context, userID, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		t, err := getTransactionTx(ctx, tx, userID, id)
		if err != nil {
			return err
		}

		legs := []*core.Transaction{t}
		if t.TransferID != "" {
			rows, err := tx.QueryContext(ctx,
				`SELECT id, user_id, account_id, category_id, type, amount_cents, description, tx_date, notes, is_split, transfer_id
				 FROM transactions WHERE transfer_id = ? AND user_id = ? AND id != ?`,
				t.TransferID, userID, t.ID)
			if err != nil {
				return fmt.Errorf("load transfer legs: %w", err)
			}
			defer rows.Close()
			for rows.Next() {
				leg, err := scanTransaction(rows)
				if err != nil {
					return err
				}
				legs = append(legs, leg)
			}
			if err := rows.Err(); err != nil {
				return err
			}
		}

		for _, leg := range legs {
			if err := adjustBalance(ctx, tx, userID, leg.AccountID, -balanceDelta(leg.Type, leg.Amount.Cents)); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM transactions WHERE id = ? AND user_id = ?`, leg.ID, userID); err != nil {
				return fmt.Errorf("delete transaction: %w", err)
			}
		}
		return nil
	})
}

// Transfer moves money between two accounts of the same user atomically:
// an expense row on the source, an income row on the destination, both
// sharing a generated transfer id.
func (r *Repository) Transfer(ctx context.Context, userID, fromID, toID int64, amount core.Money, date core.Date, description string) (string, error) {
	if fromID == toID {
		return "", core.ErrSameAccount
	}
	if err := amount.Validate(); err != nil {
		return "", err
	}

	transferID := uuid.NewString()
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		out := &core.Transaction{
			UserID:      userID,
			AccountID:   fromID,
			Type:        core.TransactionExpense,
			Amount:      amount,
			Description: description,
			Date:        date,
			TransferID:  transferID,
		}
		if err := insertTransaction(ctx, tx, out); err != nil {
			return err
		}
		in := &core.Transaction{
			UserID:      userID,
			AccountID:   toID,
			Type:        core.TransactionIncome,
			Amount:      amount,
			Description: description,
			Date:        date,
			TransferID:  transferID,
		}
		return insertTransaction(ctx, tx, in)
	})
	if err != nil {
		return "", err
	}
	return transferID, nil
}

// SpendCents sums expense spend for one category inside a period. Split
// transactions contribute through their splits only; the parent row of a
// split transaction never counts, so no amount is attributed twice.
// Transfer legs carry no category and are naturally excluded.
func (r *Repository) SpendCents(ctx context.Context, userID, categoryID int64, period core.Period) (int64, error) {
	start, end := period.Range()
	from, to := dateString(start), dateString(end)

	var direct int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
		 WHERE user_id = ? AND category_id = ? AND type = 'expense' AND is_split = 0
		   AND tx_date >= ? AND tx_date <= ?`,
		userID, categoryID, from, to).Scan(&direct)
	if err != nil {
		return 0, fmt.Errorf("sum direct spend: %w", err)
	}

	var split int64
	err = r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(s.amount_cents), 0)
		 FROM transaction_splits s
		 JOIN transactions t ON t.id = s.transaction_id
		 WHERE t.user_id = ? AND s.category_id = ? AND t.type = 'expense'
		   AND t.tx_date >= ? AND t.tx_date <= ?`,
		userID, categoryID, from, to).Scan(&split)
	if err != nil {
		return 0, fmt.Errorf("sum split spend: %w", err)
	}

	return direct + split, nil
}

// SpendByCategory returns per-category expense totals for a period, with the
// same split attribution rules as SpendCents.
func (r *Repository) SpendByCategory(ctx context.Context, userID int64, period core.Period) (map[int64]int64, error) {
	start, end := period.Range()
	from, to := dateString(start), dateString(end)
	totals := make(map[int64]int64)

	rows, err := r.db.QueryContext(ctx,
		`SELECT category_id, SUM(amount_cents) FROM transactions
		 WHERE user_id = ? AND type = 'expense' AND is_split = 0 AND category_id IS NOT NULL
		   AND tx_date >= ? AND tx_date <= ?
		 GROUP BY category_id`,
		userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("group direct spend: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var catID, cents int64
		if err := rows.Scan(&catID, &cents); err != nil {
			return nil, err
		}
		totals[catID] += cents
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	srows, err := r.db.QueryContext(ctx,
		`SELECT s.category_id, SUM(s.amount_cents)
		 FROM transaction_splits s
		 JOIN transactions t ON t.id = s.transaction_id
		 WHERE t.user_id = ? AND t.type = 'expense' AND t.tx_date >= ? AND t.tx_date <= ?
		 GROUP BY s.category_id`,
		userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("group split spend: %w", err)
	}
	defer srows.Close()
	for srows.Next() {
		var catID, cents int64
		if err := srows.Scan(&catID, &cents); err != nil {
			return nil, err
		}
		totals[catID] += cents
	}
	return totals, srows.Err()
}

// PeriodTotals returns total income and expense cents for a period,
// excluding transfer legs so internal moves do not inflate either side.
func (r *Repository) PeriodTotals(ctx context.Context, userID int64, period core.Period) (income, expense int64, err error) {
	start, end := period.Range()
	rows, qerr := r.db.QueryContext(ctx,
		`SELECT type, COALESCE(SUM(amount_cents), 0) FROM transactions
		 WHERE user_id = ? AND transfer_id = '' AND tx_date >= ? AND tx_date <= ?
		 GROUP BY type`,
		userID, dateString(start), dateString(end))
	if qerr != nil {
		return 0, 0, fmt.Errorf("period totals: %w", qerr)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			kind  string
			cents int64
		)
		if err := rows.Scan(&kind, &cents); err != nil {
			return 0, 0, err
		}
		switch core.TransactionType(kind) {
		case core.TransactionIncome:
			income = cents
		case core.TransactionExpense:
			expense = cents
		}
	}
	return income, expense, rows.Err()
}

// PendingMirror returns the oldest transactions not yet replicated to the
// spreadsheet mirror.
func (r *Repository) PendingMirror(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, account_id, category_id, type, amount_cents, description, tx_date, notes, is_split, transfer_id
		 FROM transactions WHERE mirror_state = ? ORDER BY id LIMIT ?`,
		MirrorPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending mirror: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

func (r *Repository) SetMirrorState(ctx context.Context, id int64, state string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET mirror_state = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		state, id)
	if err != nil {
		return fmt.Errorf("set mirror state: %w", err)
	}
	return requireRow(res)
}

func getTransactionTx(ctx context.Context, tx *sql.Tx, userID, id int64) (*core.Transaction, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT id, user_id, account_id, category_id, type, amount_cents, description, tx_date, notes, is_split, transfer_id
		 FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	return scanTransaction(row)
}

func scanTransaction(row rowScanner) (*core.Transaction, error) {
	var (
		t       core.Transaction
		catID   sql.NullInt64
		rawDate string
	)
	err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &catID, &t.Type, &t.Amount.Cents,
		&t.Description, &rawDate, &t.Notes, &t.IsSplit, &t.TransferID)
	if err != nil {
		return nil, notFound(err)
	}
	if catID.Valid {
		t.CategoryID = &catID.Int64
	}
	t.Date, err = parseDate(rawDate)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repository) loadSplitsAndTags(ctx context.Context, t *core.Transaction) error {
	if t.IsSplit {
		rows, err := r.db.QueryContext(ctx,
			`SELECT id, transaction_id, category_id, amount_cents, description
			 FROM transaction_splits WHERE transaction_id = ? ORDER BY id`, t.ID)
		if err != nil {
			return fmt.Errorf("load splits: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var s core.TransactionSplit
			if err := rows.Scan(&s.ID, &s.TransactionID, &s.CategoryID, &s.Amount.Cents, &s.Description); err != nil {
				return err
			}
			t.Splits = append(t.Splits, s)
		}
		if err := rows.Err(); err != nil {
			return err
		}
	}

	trows, err := r.db.QueryContext(ctx,
		`SELECT g.id, g.user_id, g.name, g.color
		 FROM tags g
		 JOIN transaction_tags tt ON tt.tag_id = g.id
		 WHERE tt.transaction_id = ? ORDER BY g.name`, t.ID)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	defer trows.Close()
	for trows.Next() {
		var tag core.Tag
		if err := trows.Scan(&tag.ID, &tag.UserID, &tag.Name, &tag.Color); err != nil {
			return err
		}
		t.Tags = append(t.Tags, tag)
	}
	return trows.Err()
}
