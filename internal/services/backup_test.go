package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func TestBackupExportImport(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	acc := fx.account(t, 1, "Main")
	cat := fx.category(t, 1, "Climbing")
	fx.expense(t, 1, acc.ID, &cat.ID, 5_000, core.NewDate(2024, 6, 1))

	svc := NewBackupService(fx.repo)
	backup, err := svc.Export(ctx, 1)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if backup.Version != backupVersion {
		t.Errorf("version = %d", backup.Version)
	}
	if len(backup.Accounts) != 1 || len(backup.Txns) != 1 {
		t.Errorf("export contents: %d accounts, %d transactions", len(backup.Accounts), len(backup.Txns))
	}

	// The archive must survive a JSON round trip.
	raw, err := json.Marshal(backup)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var restored Backup
	if err := json.Unmarshal(raw, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	// Restore into a different user: accounts and user categories come
	// over, transactions deliberately do not.
	counts, err := svc.Import(ctx, 2, &restored)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if counts.Accounts != 1 || counts.Categories != 1 {
		t.Errorf("counts = %+v", counts)
	}

	accounts, _ := fx.repo.ListAccounts(ctx, 2)
	if len(accounts) != 1 || accounts[0].Name != "Main" {
		t.Errorf("restored accounts = %+v", accounts)
	}
	txs, _ := fx.repo.ListTransactions(ctx, 2, storage.TransactionFilter{Limit: -1})
	if len(txs) != 0 {
		t.Errorf("transactions must not be restored, got %d", len(txs))
	}
}

// The restore has no merge key: importing the same archive twice creates
// every record twice.
func TestBackupImportIsBlindlyAdditive(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	existing := fx.account(t, 1, "Main")
	existing.Balance = core.Money{}

	svc := NewBackupService(fx.repo)
	owner := int64(99)
	backup := &Backup{
		Version:    backupVersion,
		ExportedAt: time.Now(),
		Accounts: []core.Account{
			{Name: "Main", Type: core.AccountChecking, Currency: "EUR", Balance: core.Money{Cents: 999}},
		},
		Categories: []core.Category{
			{UserID: &owner, Name: "Climbing", Type: core.CategoryExpense, Color: "#fff"},
		},
	}

	for i := 0; i < 2; i++ {
		counts, err := svc.Import(ctx, 1, backup)
		if err != nil {
			t.Fatalf("import %d: %v", i+1, err)
		}
		if counts.Accounts != 1 || counts.Categories != 1 {
			t.Errorf("import %d counts = %+v", i+1, counts)
		}
	}

	accounts, err := fx.repo.ListAccounts(ctx, 1)
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(accounts) != 3 {
		t.Errorf("accounts after double import = %d, want 3 (1 existing + 2 restored)", len(accounts))
	}

	cats, err := fx.repo.ListCategories(ctx, 1)
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	climbing := 0
	for _, c := range cats {
		if c.Name == "Climbing" {
			climbing++
			if c.UserID == nil || *c.UserID != 1 {
				t.Errorf("restored category ownership = %v, want user 1", c.UserID)
			}
		}
	}
	if climbing != 2 {
		t.Errorf("Climbing categories after double import = %d, want 2", climbing)
	}

	got, _ := fx.repo.GetAccount(ctx, 1, existing.ID)
	if got.Balance.Cents != 0 {
		t.Error("existing account must not be touched")
	}
}

func TestBackupImportRejectsNewerVersion(t *testing.T) {
	fx := newFixture(t)
	svc := NewBackupService(fx.repo)

	_, err := svc.Import(context.Background(), 1, &Backup{Version: backupVersion + 1, ExportedAt: time.Now()})
	if err == nil {
		t.Error("future archive versions should be rejected")
	}
}

func TestBackupImportRejectsNonArchive(t *testing.T) {
	fx := newFixture(t)
	svc := NewBackupService(fx.repo)

	// Arbitrary JSON decodes into a zero Backup; the missing exported_at
	// marks it as not an archive.
	_, err := svc.Import(context.Background(), 1, &Backup{Version: backupVersion})
	if err == nil {
		t.Error("documents without exported_at should be rejected")
	}
}
