package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// upcomingWindow is how far ahead the dashboard looks for reminders.
const upcomingWindow = 7 * 24 * time.Hour

// CategorySpend is one slice of the month's spending breakdown.
type CategorySpend struct {
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
	Cents      int64  `json:"cents"`
}

// GoalSummary is a goal with its whole-percent progress.
type GoalSummary struct {
	Goal            core.Goal `json:"goal"`
	ProgressPercent int       `json:"progress_percent"`
}

// Dashboard is the month-at-a-glance view.
type Dashboard struct {
	Year         int             `json:"year"`
	Month        int             `json:"month"`
	IncomeCents  int64           `json:"income_cents"`
	ExpenseCents int64           `json:"expense_cents"`
	NetCents     int64           `json:"net_cents"`
	ByCategory   []CategorySpend `json:"by_category"`
	Budgets      []BudgetStatus  `json:"budgets"`
	Goals        []GoalSummary   `json:"goals"`
	Upcoming     []core.Reminder `json:"upcoming_reminders"`
}

// DashboardService assembles the dashboard, caching per user and month.
type DashboardService struct {
	storage *storage.Repository
	budgets *BudgetService
	cache   *cache.LRU[*Dashboard]
}

func NewDashboardService(storage *storage.Repository, budgets *BudgetService) *DashboardService {
	return &DashboardService{
		storage: storage,
		budgets: budgets,
		cache:   cache.NewLRU[*Dashboard](256, 30*time.Second),
	}
}

func dashboardKey(userID int64, p core.Period) string {
	return fmt.Sprintf("u%d:%04d-%02d", userID, p.Year, p.Month)
}

// Summary builds the dashboard for the month containing now.
func (s *DashboardService) Summary(ctx context.Context, userID int64, now time.Time) (*Dashboard, error) {
	period := core.PeriodForDate(now, core.PeriodMonthly)
	key := dashboardKey(userID, period)
	if d, ok := s.cache.Get(key); ok {
		return d, nil
	}

	d := &Dashboard{Year: period.Year, Month: period.Month}

	income, expense, err := s.storage.PeriodTotals(ctx, userID, period)
	if err != nil {
		return nil, err
	}
	d.IncomeCents, d.ExpenseCents, d.NetCents = income, expense, income-expense

	byCat, err := s.storage.SpendByCategory(ctx, userID, period)
	if err != nil {
		return nil, err
	}
	categories, err := s.storage.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	for catID, cents := range byCat {
		d.ByCategory = append(d.ByCategory, CategorySpend{
			CategoryID: catID,
			Name:       names[catID],
			Cents:      cents,
		})
	}
	sort.Slice(d.ByCategory, func(i, j int) bool {
		return d.ByCategory[i].Cents > d.ByCategory[j].Cents
	})

	if d.Budgets, err = s.budgets.ListStatuses(ctx, userID, &period); err != nil {
		return nil, err
	}

	goals, err := s.storage.ListGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range goals {
		d.Goals = append(d.Goals, GoalSummary{
			Goal:            goals[i],
			ProgressPercent: GoalProgress(&goals[i]),
		})
	}

	reminders, err := s.storage.ListReminders(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	horizon := now.Add(upcomingWindow)
	for _, rem := range reminders {
		if rem.DueDate.After(horizon) {
			continue
		}
		d.Upcoming = append(d.Upcoming, rem)
	}

	s.cache.Set(key, d)
	return d, nil
}

// Invalidate drops the cached dashboard for the month containing now. Write
// paths call it so the next read rebuilds.
func (s *DashboardService) Invalidate(userID int64, now time.Time) {
	s.cache.Delete(dashboardKey(userID, core.PeriodForDate(now, core.PeriodMonthly)))
}
