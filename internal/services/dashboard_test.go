package services

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestDashboardSummary(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	acc := fx.account(t, 1, "Main")
	cat := fx.category(t, 1, "Food")

	income := &core.Transaction{
		UserID: 1, AccountID: acc.ID, Type: core.TransactionIncome,
		Amount: core.Money{Cents: 300_000}, Description: "salary",
		Date: core.NewDate(2024, 6, 1),
	}
	if err := fx.transactions.Create(ctx, income); err != nil {
		t.Fatalf("create income: %v", err)
	}
	fx.expense(t, 1, acc.ID, &cat.ID, 50_000, core.NewDate(2024, 6, 10))

	goal := &core.Goal{UserID: 1, Name: "Holiday", Target: core.Money{Cents: 100_000}}
	if err := fx.repo.CreateGoal(ctx, goal); err != nil {
		t.Fatalf("create goal: %v", err)
	}
	if _, err := fx.repo.Contribute(ctx, &core.GoalContribution{
		GoalID: goal.ID, UserID: 1, Amount: core.Money{Cents: 25_000}, Date: core.NewDate(2024, 6, 5),
	}); err != nil {
		t.Fatalf("contribute: %v", err)
	}

	soon := &core.Reminder{UserID: 1, Title: "pay rent", DueDate: core.NewDate(2024, 6, 18)}
	distant := &core.Reminder{UserID: 1, Title: "car service", DueDate: core.NewDate(2024, 9, 1)}
	for _, rem := range []*core.Reminder{soon, distant} {
		if err := fx.repo.CreateReminder(ctx, rem); err != nil {
			t.Fatalf("create reminder: %v", err)
		}
	}

	svc := NewDashboardService(fx.repo, fx.budgets)
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	d, err := svc.Summary(ctx, 1, now)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	if d.IncomeCents != 300_000 || d.ExpenseCents != 50_000 || d.NetCents != 250_000 {
		t.Errorf("totals = %+v", d)
	}
	if len(d.ByCategory) != 1 || d.ByCategory[0].Name != "Food" || d.ByCategory[0].Cents != 50_000 {
		t.Errorf("by category = %+v", d.ByCategory)
	}
	if len(d.Goals) != 1 || d.Goals[0].ProgressPercent != 25 {
		t.Errorf("goals = %+v", d.Goals)
	}
	if len(d.Upcoming) != 1 || d.Upcoming[0].Title != "pay rent" {
		t.Errorf("upcoming = %+v", d.Upcoming)
	}
}

func TestDashboardCacheInvalidation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	acc := fx.account(t, 1, "Main")
	cat := fx.category(t, 1, "Food")
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	svc := NewDashboardService(fx.repo, fx.budgets)
	first, err := svc.Summary(ctx, 1, now)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if first.ExpenseCents != 0 {
		t.Fatalf("fresh user expense = %d", first.ExpenseCents)
	}

	fx.expense(t, 1, acc.ID, &cat.ID, 1_000, core.NewDate(2024, 6, 16))

	// Cached view until invalidated.
	cached, _ := svc.Summary(ctx, 1, now)
	if cached.ExpenseCents != 0 {
		t.Error("expected the cached dashboard before invalidation")
	}

	svc.Invalidate(1, now)
	fresh, _ := svc.Summary(ctx, 1, now)
	if fresh.ExpenseCents != 1_000 {
		t.Errorf("post-invalidation expense = %d, want 1000", fresh.ExpenseCents)
	}
}
