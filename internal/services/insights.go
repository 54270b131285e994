package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// ErrInsightsDisabled is returned when no AI client is configured.
var ErrInsightsDisabled = errors.New("insights are not configured")

// insightsFallback stands in when the model call fails. The numbers in the
// summary are still returned; only the advice degrades.
const insightsFallback = "Insights are temporarily unavailable. Review the summary above for this month's numbers."

// Completer is the one call the insight generator needs from the AI client.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

const insightsSystemPrompt = `You are a personal finance assistant. You receive
a summary of one user's month: totals, per-category spending and budget
status. Reply with three to five short, concrete observations and
suggestions in plain text. Do not invent numbers that are not in the
summary.`

// Insights is the generated advice plus the numbers it was based on.
type Insights struct {
	GeneratedAt time.Time `json:"generated_at"`
	Period      string    `json:"period"`
	Summary     string    `json:"summary"`
	Advice      string    `json:"insights"`
}

// InsightsService renders a month's numbers into a prompt and asks the
// model for observations.
type InsightsService struct {
	storage   *storage.Repository
	budgets   *BudgetService
	completer Completer
}

func NewInsightsService(storage *storage.Repository, budgets *BudgetService, completer Completer) *InsightsService {
	return &InsightsService{storage: storage, budgets: budgets, completer: completer}
}

// Generate builds the current month's summary and asks the model for advice.
func (s *InsightsService) Generate(ctx context.Context, userID int64, now time.Time) (*Insights, error) {
	if s.completer == nil {
		return nil, ErrInsightsDisabled
	}

	period := core.PeriodForDate(now, core.PeriodMonthly)
	summary, err := s.buildSummary(ctx, userID, period)
	if err != nil {
		return nil, err
	}

	// The model call is best effort: any failure degrades to a static
	// fallback, never to a hard error.
	advice, err := s.completer.Complete(ctx, insightsSystemPrompt, summary)
	if err != nil {
		slog.WarnContext(ctx, "Insight generation failed, using fallback", "error", err)
		advice = insightsFallback
	}

	return &Insights{
		GeneratedAt: now.UTC(),
		Period:      fmt.Sprintf("%04d-%02d", period.Year, period.Month),
		Summary:     summary,
		Advice:      advice,
	}, nil
}

// buildSummary renders the month's aggregates as plain text. Amounts are
// formatted once here; the model never sees raw cents.
func (s *InsightsService) buildSummary(ctx context.Context, userID int64, period core.Period) (string, error) {
	income, expense, err := s.storage.PeriodTotals(ctx, userID, period)
	if err != nil {
		return "", err
	}

	byCat, err := s.storage.SpendByCategory(ctx, userID, period)
	if err != nil {
		return "", err
	}
	categories, err := s.storage.ListCategories(ctx, userID)
	if err != nil {
		return "", err
	}
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Month %04d-%02d\n", period.Year, period.Month)
	fmt.Fprintf(&b, "Income: %s\n", core.FormatCents(income))
	fmt.Fprintf(&b, "Expenses: %s\n", core.FormatCents(expense))
	fmt.Fprintf(&b, "Net: %s\n", core.FormatCents(income-expense))

	if len(byCat) > 0 {
		b.WriteString("Spending by category:\n")
		for catID, cents := range byCat {
			name := names[catID]
			if name == "" {
				name = fmt.Sprintf("category %d", catID)
			}
			fmt.Fprintf(&b, "- %s: %s\n", name, core.FormatCents(cents))
		}
	}

	statuses, err := s.budgets.ListStatuses(ctx, userID, &period)
	if err != nil {
		return "", err
	}
	if len(statuses) > 0 {
		b.WriteString("Budgets:\n")
		for _, st := range statuses {
			name := names[st.Budget.CategoryID]
			if name == "" {
				name = fmt.Sprintf("category %d", st.Budget.CategoryID)
			}
			fmt.Fprintf(&b, "- %s: %s of %s (%d%%, %s)\n",
				name, core.FormatCents(st.SpentCents),
				core.FormatCents(st.Budget.Amount.Cents), st.PercentUsed, st.Status)
		}
	}

	return b.String(), nil
}
