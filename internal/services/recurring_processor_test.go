package services

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestNextOccurrence(t *testing.T) {
	tests := []struct {
		name string
		from core.Date
		freq core.Frequency
		want core.Date
	}{
		{name: "daily", from: core.NewDate(2024, 6, 30), freq: core.FrequencyDaily, want: core.NewDate(2024, 7, 1)},
		{name: "weekly", from: core.NewDate(2024, 12, 30), freq: core.FrequencyWeekly, want: core.NewDate(2025, 1, 6)},
		{name: "biweekly", from: core.NewDate(2024, 6, 1), freq: core.FrequencyBiweekly, want: core.NewDate(2024, 6, 15)},
		{name: "monthly", from: core.NewDate(2024, 6, 15), freq: core.FrequencyMonthly, want: core.NewDate(2024, 7, 15)},
		{name: "monthly clamps to feb", from: core.NewDate(2024, 1, 31), freq: core.FrequencyMonthly, want: core.NewDate(2024, 2, 29)},
		{name: "monthly clamps to short month", from: core.NewDate(2024, 5, 31), freq: core.FrequencyMonthly, want: core.NewDate(2024, 6, 30)},
		{name: "monthly year wrap", from: core.NewDate(2024, 12, 10), freq: core.FrequencyMonthly, want: core.NewDate(2025, 1, 10)},
		{name: "quarterly", from: core.NewDate(2024, 11, 30), freq: core.FrequencyQuarterly, want: core.NewDate(2025, 2, 28)},
		{name: "yearly", from: core.NewDate(2024, 2, 29), freq: core.FrequencyYearly, want: core.NewDate(2025, 2, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextOccurrence(tt.from, tt.freq)
			if !got.Equal(tt.want.Time) {
				t.Errorf("NextOccurrence(%s, %s) = %s, want %s",
					tt.from.Format("2006-01-02"), tt.freq,
					got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}

func TestProcessDueMaterializesAndAdvances(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	acc := fx.account(t, 1, "Main")
	cat := fx.category(t, 1, "Subscriptions")

	rt := &core.RecurringTransaction{
		UserID: 1, AccountID: acc.ID, CategoryID: &cat.ID,
		Type: core.TransactionExpense, Amount: core.Money{Cents: 1_299},
		Description: "streaming", Frequency: core.FrequencyMonthly,
		NextDue: core.NewDate(2024, 6, 1),
	}
	if err := fx.repo.CreateRecurring(ctx, rt); err != nil {
		t.Fatalf("create recurring: %v", err)
	}

	// Not yet due.
	p := NewRecurringProcessor(fx.repo, fx.transactions)
	n, err := p.ProcessDue(ctx, time.Date(2024, 5, 31, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if n != 0 {
		t.Errorf("processed = %d before due date", n)
	}

	n, err = p.ProcessDue(ctx, time.Date(2024, 6, 2, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if n != 1 {
		t.Fatalf("processed = %d, want 1", n)
	}

	got, _ := fx.repo.GetRecurring(ctx, 1, rt.ID)
	if got.NextDue.Month() != 7 || got.NextDue.Day() != 1 {
		t.Errorf("next due = %v, want 2024-07-01", got.NextDue)
	}

	acc2, _ := fx.repo.GetAccount(ctx, 1, acc.ID)
	if acc2.Balance.Cents != -1_299 {
		t.Errorf("balance = %d, want -1299", acc2.Balance.Cents)
	}

	// Same sweep again: nothing due until July.
	n, _ = p.ProcessDue(ctx, time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC))
	if n != 0 {
		t.Errorf("re-sweep processed = %d, want 0", n)
	}
}

func TestProcessDueCatchesUpOnePeriodPerSweep(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	acc := fx.account(t, 1, "Main")

	rt := &core.RecurringTransaction{
		UserID: 1, AccountID: acc.ID, Type: core.TransactionExpense,
		Amount: core.Money{Cents: 500}, Description: "gym",
		Frequency: core.FrequencyMonthly, NextDue: core.NewDate(2024, 4, 1),
	}
	if err := fx.repo.CreateRecurring(ctx, rt); err != nil {
		t.Fatalf("create recurring: %v", err)
	}

	// Worker was down for two months. Each sweep advances one period, so
	// three sweeps catch up April, May and June.
	p := NewRecurringProcessor(fx.repo, fx.transactions)
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	total := 0
	for i := 0; i < 3; i++ {
		n, err := p.ProcessDue(ctx, now)
		if err != nil {
			t.Fatalf("sweep %d: %v", i, err)
		}
		total += n
	}
	if total != 3 {
		t.Errorf("materialized = %d, want 3 missed occurrences", total)
	}

	got, _ := fx.repo.GetRecurring(ctx, 1, rt.ID)
	if got.NextDue.Month() != 7 {
		t.Errorf("next due = %v, want July", got.NextDue)
	}
}
