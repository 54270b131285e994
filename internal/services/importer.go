package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Importer loads transactions from CSV files exported by banks or other
// trackers.
type Importer struct {
	storage      *storage.Repository
	transactions *TransactionService
}

func NewImporter(storage *storage.Repository, transactions *TransactionService) *Importer {
	return &Importer{storage: storage, transactions: transactions}
}

// RowError reports one rejected CSV row. Row numbers are 1-based and count
// the header.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult summarizes one import run. BatchID tags the run; it is
// returned to the caller for reference but not persisted per row.
type ImportResult struct {
	BatchID  string     `json:"batch_id"`
	Imported int        `json:"imported"`
	Skipped  int        `json:"skipped"`
	Errors   []RowError `json:"errors,omitempty"`
}

var csvDateLayouts = []string{"2006-01-02", "02/01/2006", "2006/01/02"}

// ImportCSV reads rows of date, description, amount, type and optional
// category into transactions on the given account. The header row names the
// columns in any order. The type column decides direction; any sign on the
// amount is discarded. Bad rows are skipped and reported; good rows still
// import.
func (im *Importer) ImportCSV(ctx context.Context, userID, accountID int64, r io.Reader) (*ImportResult, error) {
	if _, err := im.storage.GetAccount(ctx, userID, accountID); err != nil {
		return nil, fmt.Errorf("account %d: %w", accountID, err)
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{BatchID: uuid.NewString()}
	row := 1
	for {
		row++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, RowError{Row: row, Message: err.Error()})
			continue
		}

		t, err := im.rowToTransaction(ctx, userID, accountID, cols, record)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, RowError{Row: row, Message: err.Error()})
			continue
		}

		if err := im.transactions.Create(ctx, t); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, RowError{Row: row, Message: err.Error()})
			continue
		}
		result.Imported++
	}

	return result, nil
}

type columnMap struct {
	date, description, amount, kind, category int
}

func mapColumns(header []string) (*columnMap, error) {
	cols := &columnMap{date: -1, description: -1, amount: -1, kind: -1, category: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date":
			cols.date = i
		case "description", "memo", "payee":
			cols.description = i
		case "amount":
			cols.amount = i
		case "type":
			cols.kind = i
		case "category":
			cols.category = i
		}
	}
	if cols.date < 0 || cols.description < 0 || cols.amount < 0 || cols.kind < 0 {
		return nil, fmt.Errorf("CSV header must name date, description, amount and type columns")
	}
	return cols, nil
}

func (im *Importer) rowToTransaction(ctx context.Context, userID, accountID int64, cols *columnMap, record []string) (*core.Transaction, error) {
	field := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	date, err := parseCSVDate(field(cols.date))
	if err != nil {
		return nil, err
	}

	kind := core.TransactionType(strings.ToLower(field(cols.kind)))
	if kind != core.TransactionIncome && kind != core.TransactionExpense {
		return nil, fmt.Errorf("type %q: %w", field(cols.kind), core.ErrInvalidType)
	}

	// The sign carries no meaning; banks export expenses both ways.
	raw := strings.TrimPrefix(field(cols.amount), "-")
	cents, err := core.ParseDecimalToCents(raw)
	if err != nil {
		return nil, fmt.Errorf("amount %q: %w", field(cols.amount), err)
	}

	t := &core.Transaction{
		UserID:      userID,
		AccountID:   accountID,
		Type:        kind,
		Amount:      core.Money{Cents: cents},
		Description: field(cols.description),
		Date:        date,
	}

	if name := field(cols.category); name != "" {
		catKind := core.CategoryExpense
		if kind == core.TransactionIncome {
			catKind = core.CategoryIncome
		}
		cat, err := im.storage.FindOrCreateCategory(ctx, userID, name, catKind)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", name, err)
		}
		t.CategoryID = &cat.ID
	}

	return t, nil
}

func parseCSVDate(s string) (core.Date, error) {
	for _, layout := range csvDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t), nil
		}
	}
	return core.Date{}, fmt.Errorf("unrecognized date %q", s)
}
