package services

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestSuggestCents(t *testing.T) {
	tests := []struct {
		name       string
		totalCents int64
		want       int64
	}{
		// (100+150+200)/3 * 1.10 = 165.00
		{name: "three month average with headroom", totalCents: 45_000, want: 16_500},
		{name: "rounds half up", totalCents: 100, want: 37}, // 36.66.. -> 37
		{name: "single cent rounds away", totalCents: 1, want: 0},
		{name: "three cents", totalCents: 3, want: 1}, // 1.1 -> 1
		{name: "large total", totalCents: 1_000_000, want: 366_667},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := suggestCents(tt.totalCents); got != tt.want {
				t.Errorf("suggestCents(%d) = %d, want %d", tt.totalCents, got, tt.want)
			}
		})
	}
}

func TestRecommendAveragesTrailingMonths(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	acc := fx.account(t, 1, "Main")
	food := fx.category(t, 1, "Food")
	travel := fx.category(t, 1, "Travel")

	// Reference date inside June 2024: the window is March, April, May.
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	fx.expense(t, 1, acc.ID, &food.ID, 10_000, core.NewDate(2024, 3, 10))
	fx.expense(t, 1, acc.ID, &food.ID, 15_000, core.NewDate(2024, 4, 10))
	fx.expense(t, 1, acc.ID, &food.ID, 20_000, core.NewDate(2024, 5, 10))
	// Current-month spend must not count.
	fx.expense(t, 1, acc.ID, &food.ID, 99_999, core.NewDate(2024, 6, 1))
	// Outside the window entirely.
	fx.expense(t, 1, acc.ID, &travel.ID, 50_000, core.NewDate(2024, 1, 15))

	rec := NewRecommender(fx.repo, core.DefaultMinYear)
	recs, err := rec.Recommend(ctx, 1, now)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d: %+v", len(recs), recs)
	}
	got := recs[0]
	if got.CategoryID != food.ID {
		t.Errorf("category = %d, want %d", got.CategoryID, food.ID)
	}
	if got.SuggestedCents != 16_500 {
		t.Errorf("suggested = %d, want 16500", got.SuggestedCents)
	}
	if got.MonthsWithData != 3 {
		t.Errorf("months with data = %d, want 3", got.MonthsWithData)
	}
}

func TestRecommendSkipsBudgetedCategories(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	acc := fx.account(t, 1, "Main")
	food := fx.category(t, 1, "Food")
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	fx.expense(t, 1, acc.ID, &food.ID, 30_000, core.NewDate(2024, 5, 10))

	budget := &core.Budget{
		UserID: 1, CategoryID: food.ID, Amount: core.Money{Cents: 40_000},
		Period: core.Period{Type: core.PeriodMonthly, Year: 2024, Month: 6},
	}
	if err := fx.repo.CreateBudget(ctx, budget); err != nil {
		t.Fatalf("create budget: %v", err)
	}

	rec := NewRecommender(fx.repo, core.DefaultMinYear)
	recs, err := rec.Recommend(ctx, 1, now)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("budgeted category still recommended: %+v", recs)
	}
}

func TestApplySkipsExistingBudgets(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	acc := fx.account(t, 1, "Main")
	food := fx.category(t, 1, "Food")
	fun := fx.category(t, 1, "Fun")
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	fx.expense(t, 1, acc.ID, &food.ID, 30_000, core.NewDate(2024, 5, 10))
	fx.expense(t, 1, acc.ID, &fun.ID, 9_000, core.NewDate(2024, 5, 12))

	period := core.Period{Type: core.PeriodMonthly, Year: 2024, Month: 7}
	existing := &core.Budget{UserID: 1, CategoryID: food.ID, Amount: core.Money{Cents: 40_000}, Period: period}
	if err := fx.repo.CreateBudget(ctx, existing); err != nil {
		t.Fatalf("create existing budget: %v", err)
	}

	rec := NewRecommender(fx.repo, core.DefaultMinYear)
	created, err := rec.Apply(ctx, 1, period, now)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if created != 1 {
		t.Errorf("created = %d, want 1 (food already budgeted)", created)
	}

	// Existing budget amount untouched.
	got, _ := fx.repo.GetBudget(ctx, 1, existing.ID)
	if got.Amount.Cents != 40_000 {
		t.Errorf("existing budget was overwritten: %d", got.Amount.Cents)
	}
}
