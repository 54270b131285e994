package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// recommendationLookback is how many trailing full months feed the average.
const recommendationLookback = 3

// Recommendation suggests a budget target for a category based on its
// recent spend.
type Recommendation struct {
	CategoryID     int64
	SuggestedCents int64
	AverageCents   int64
	MonthsWithData int
}

// Recommender proposes monthly budget targets: the trailing three-month
// average spend per category with ten percent headroom.
type Recommender struct {
	storage *storage.Repository
	minYear int
}

func NewRecommender(storage *storage.Repository, minYear int) *Recommender {
	if minYear == 0 {
		minYear = core.DefaultMinYear
	}
	return &Recommender{storage: storage, minYear: minYear}
}

// Recommend computes suggestions from the three full months before now.
// Categories with no spend in the window, or that already have a budget for
// the current month, produce no suggestion.
func (r *Recommender) Recommend(ctx context.Context, userID int64, now time.Time) ([]Recommendation, error) {
	current := core.PeriodForDate(now, core.PeriodMonthly)
	budgeted, err := r.storage.ListBudgets(ctx, userID, &current)
	if err != nil {
		return nil, err
	}
	hasBudget := make(map[int64]bool, len(budgeted))
	for _, b := range budgeted {
		hasBudget[b.CategoryID] = true
	}

	totals := make(map[int64]int64)
	months := make(map[int64]int)

	for _, period := range core.PreviousMonths(now, recommendationLookback) {
		byCat, err := r.storage.SpendByCategory(ctx, userID, period)
		if err != nil {
			return nil, err
		}
		for catID, cents := range byCat {
			totals[catID] += cents
			months[catID]++
		}
	}

	recs := make([]Recommendation, 0, len(totals))
	for catID, total := range totals {
		if total <= 0 || hasBudget[catID] {
			continue
		}
		recs = append(recs, Recommendation{
			CategoryID:     catID,
			SuggestedCents: suggestCents(total),
			AverageCents:   (total + recommendationLookback/2) / recommendationLookback,
			MonthsWithData: months[catID],
		})
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].SuggestedCents > recs[j].SuggestedCents
	})
	return recs, nil
}

// suggestCents is avg-over-three-months times 1.10, in integer cents with
// half-up rounding: total/3 * 11/10 = total*11/30.
func suggestCents(totalCents int64) int64 {
	return (totalCents*11 + 15) / 30
}

// Apply creates budgets for a period from the current recommendations,
// skipping categories that already have one. It reports how many were
// created.
func (r *Recommender) Apply(ctx context.Context, userID int64, period core.Period, now time.Time) (int, error) {
	if err := period.Validate(r.minYear); err != nil {
		return 0, err
	}

	recs, err := r.Recommend(ctx, userID, now)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, rec := range recs {
		b := &core.Budget{
			UserID:     userID,
			CategoryID: rec.CategoryID,
			Amount:     core.Money{Cents: rec.SuggestedCents},
			Period:     period,
		}
		err := r.storage.CreateBudget(ctx, b)
		if errors.Is(err, core.ErrDuplicateBudget) {
			continue
		}
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
