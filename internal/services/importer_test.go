package services

import (
	"context"
	"strings"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func TestImportCSV(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	acc := fx.account(t, 1, "Main")
	im := NewImporter(fx.repo, fx.transactions)

	csvData := strings.Join([]string{
		"date,description,amount,type,category",
		"2024-06-01,Salary June,2500.00,income,Salary",
		"2024-06-03,Supermarket,-84.20,expense,Groceries",
		"03/06/2024,Bus ticket,-2.50,expense,Transport",
		"2024-06-05,Broken row,not-a-number,expense,Groceries",
		"2024-06-06,No category,10.00,expense,",
		"2024-06-07,Bad type,5.00,refund,",
	}, "\n")

	result, err := im.ImportCSV(ctx, 1, acc.ID, strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if result.BatchID == "" {
		t.Error("expected a batch id")
	}
	if result.Imported != 4 {
		t.Errorf("imported = %d, want 4", result.Imported)
	}
	if result.Skipped != 2 {
		t.Errorf("skipped = %d, want 2", result.Skipped)
	}
	if len(result.Errors) != 2 || result.Errors[0].Row != 5 || result.Errors[1].Row != 7 {
		t.Errorf("errors = %+v", result.Errors)
	}

	txs, err := fx.repo.ListTransactions(ctx, 1, storage.TransactionFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 4 {
		t.Fatalf("stored transactions = %d, want 4", len(txs))
	}

	var income, expense int
	for _, tx := range txs {
		switch tx.Type {
		case core.TransactionIncome:
			income++
			if tx.Amount.Cents != 250_000 {
				t.Errorf("income cents = %d", tx.Amount.Cents)
			}
		case core.TransactionExpense:
			expense++
		}
	}
	if income != 1 || expense != 3 {
		t.Errorf("income=%d expense=%d", income, expense)
	}

	// Salary matched the seeded global income category.
	cats, _ := fx.repo.ListCategories(ctx, 1)
	for _, c := range cats {
		if c.Name == "Salary" && c.UserID != nil {
			t.Error("importer should reuse the global Salary category")
		}
	}
}

// The type column alone decides direction; a positive amount with type
// expense must not import as income.
func TestImportCSVTypeColumnBeatsSign(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	acc := fx.account(t, 1, "Main")
	im := NewImporter(fx.repo, fx.transactions)

	csvData := "date,description,amount,type\n2024-06-01,Groceries,50.00,expense\n"
	result, err := im.ImportCSV(ctx, 1, acc.ID, strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Imported != 1 {
		t.Fatalf("imported = %d, want 1", result.Imported)
	}

	txs, err := fx.repo.ListTransactions(ctx, 1, storage.TransactionFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 1 || txs[0].Type != core.TransactionExpense {
		t.Errorf("stored = %+v, want one expense", txs)
	}
	if txs[0].Amount.Cents != 5_000 {
		t.Errorf("cents = %d, want 5000", txs[0].Amount.Cents)
	}
}

func TestImportCSVColumnOrderIndependent(t *testing.T) {
	fx := newFixture(t)
	acc := fx.account(t, 1, "Main")
	im := NewImporter(fx.repo, fx.transactions)

	csvData := "amount,type,date,description\n-12.00,expense,2024-06-01,Coffee\n"
	result, err := im.ImportCSV(context.Background(), 1, acc.ID, strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Imported != 1 {
		t.Errorf("imported = %d, want 1", result.Imported)
	}
}

func TestImportCSVRejectsMissingColumns(t *testing.T) {
	fx := newFixture(t)
	acc := fx.account(t, 1, "Main")
	im := NewImporter(fx.repo, fx.transactions)

	headers := []string{
		"date,description",
		"date,description,amount",
	}
	for _, header := range headers {
		_, err := im.ImportCSV(context.Background(), 1, acc.ID,
			strings.NewReader(header+"\n2024-06-01,Coffee\n"))
		if err == nil {
			t.Errorf("header %q should be rejected", header)
		}
	}
}

func TestImportCSVRejectsForeignAccount(t *testing.T) {
	fx := newFixture(t)
	acc := fx.account(t, 2, "Someone else's")
	im := NewImporter(fx.repo, fx.transactions)

	_, err := im.ImportCSV(context.Background(), 1, acc.ID,
		strings.NewReader("date,description,amount,type\n2024-06-01,Coffee,1.00,expense\n"))
	if err == nil {
		t.Error("importing into another user's account should fail")
	}
}
