package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// fakePublisher records published events in order.
type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	kind    string
	payload any
}

func (f *fakePublisher) Publish(_ context.Context, kind string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{kind: kind, payload: payload})
	return nil
}

func (f *fakePublisher) byKind(kind string) []publishedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []publishedEvent
	for _, e := range f.events {
		if e.kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	repo         *storage.Repository
	publisher    *fakePublisher
	budgets      *BudgetService
	transactions *TransactionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	pub := &fakePublisher{}
	budgets := NewBudgetService(repo, pub, core.DefaultMinYear)
	return &fixture{
		repo:         repo,
		publisher:    pub,
		budgets:      budgets,
		transactions: NewTransactionService(repo, pub, budgets),
	}
}

func (fx *fixture) account(t *testing.T, userID int64, name string) *core.Account {
	t.Helper()
	a := &core.Account{UserID: userID, Name: name, Type: core.AccountChecking, Currency: "EUR"}
	if err := fx.repo.CreateAccount(context.Background(), a); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return a
}

func (fx *fixture) category(t *testing.T, userID int64, name string) *core.Category {
	t.Helper()
	c := &core.Category{UserID: &userID, Name: name, Type: core.CategoryExpense, Color: "#000000"}
	if err := fx.repo.CreateCategory(context.Background(), c); err != nil {
		t.Fatalf("create category: %v", err)
	}
	return c
}

func (fx *fixture) expense(t *testing.T, userID, accountID int64, categoryID *int64, cents int64, date core.Date) *core.Transaction {
	t.Helper()
	tx := &core.Transaction{
		UserID:      userID,
		AccountID:   accountID,
		CategoryID:  categoryID,
		Type:        core.TransactionExpense,
		Amount:      core.Money{Cents: cents},
		Description: "test expense",
		Date:        date,
	}
	if err := fx.transactions.Create(context.Background(), tx); err != nil {
		t.Fatalf("create expense: %v", err)
	}
	return tx
}
