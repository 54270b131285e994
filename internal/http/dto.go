package http

import (
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

// Response shapes. Amounts carry both raw cents for arithmetic and a
// formatted decimal string for display; dates are ISO calendar days.

type accountJSON struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	BalanceCents int64  `json:"balance_cents"`
	Balance      string `json:"balance"`
	Currency     string `json:"currency"`
}

func toAccountJSON(a *core.Account) accountJSON {
	return accountJSON{
		ID:           a.ID,
		Name:         a.Name,
		Type:         string(a.Type),
		BalanceCents: a.Balance.Cents,
		Balance:      core.FormatCents(a.Balance.Cents),
		Currency:     a.Currency,
	}
}

func toAccountsJSON(accounts []core.Account) []accountJSON {
	out := make([]accountJSON, len(accounts))
	for i := range accounts {
		out[i] = toAccountJSON(&accounts[i])
	}
	return out
}

type categoryJSON struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Color  string `json:"color"`
	Global bool   `json:"global"`
}

func toCategoryJSON(c *core.Category) categoryJSON {
	return categoryJSON{
		ID:     c.ID,
		Name:   c.Name,
		Type:   string(c.Type),
		Color:  c.Color,
		Global: c.UserID == nil,
	}
}

func toCategoriesJSON(categories []core.Category) []categoryJSON {
	out := make([]categoryJSON, len(categories))
	for i := range categories {
		out[i] = toCategoryJSON(&categories[i])
	}
	return out
}

type splitJSON struct {
	ID          int64  `json:"id"`
	CategoryID  int64  `json:"category_id"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
}

type tagJSON struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

func toTagJSON(t *core.Tag) tagJSON {
	return tagJSON{ID: t.ID, Name: t.Name, Color: t.Color}
}

type transactionJSON struct {
	ID          int64       `json:"id"`
	AccountID   int64       `json:"account_id"`
	CategoryID  *int64      `json:"category_id"`
	Type        string      `json:"type"`
	AmountCents int64       `json:"amount_cents"`
	Amount      string      `json:"amount"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
	Notes       string      `json:"notes,omitempty"`
	IsSplit     bool        `json:"is_split"`
	TransferID  string      `json:"transfer_id,omitempty"`
	Splits      []splitJSON `json:"splits,omitempty"`
	Tags        []tagJSON   `json:"tags,omitempty"`
}

func toTransactionJSON(t *core.Transaction) transactionJSON {
	out := transactionJSON{
		ID:          t.ID,
		AccountID:   t.AccountID,
		CategoryID:  t.CategoryID,
		Type:        string(t.Type),
		AmountCents: t.Amount.Cents,
		Amount:      core.FormatCents(t.Amount.Cents),
		Description: t.Description,
		Date:        t.Date.Format("2006-01-02"),
		Notes:       t.Notes,
		IsSplit:     t.IsSplit,
		TransferID:  t.TransferID,
	}
	for i := range t.Splits {
		s := &t.Splits[i]
		out.Splits = append(out.Splits, splitJSON{
			ID:          s.ID,
			CategoryID:  s.CategoryID,
			AmountCents: s.Amount.Cents,
			Amount:      core.FormatCents(s.Amount.Cents),
			Description: s.Description,
		})
	}
	for i := range t.Tags {
		out.Tags = append(out.Tags, toTagJSON(&t.Tags[i]))
	}
	return out
}

func toTransactionsJSON(txns []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, len(txns))
	for i := range txns {
		out[i] = toTransactionJSON(&txns[i])
	}
	return out
}

type budgetJSON struct {
	ID             int64  `json:"id"`
	CategoryID     int64  `json:"category_id"`
	AmountCents    int64  `json:"amount_cents"`
	Amount         string `json:"amount"`
	PeriodType     string `json:"period_type"`
	Year           int    `json:"year"`
	Month          int    `json:"month,omitempty"`
	SpentCents     int64  `json:"spent_cents"`
	Spent          string `json:"spent"`
	RemainingCents int64  `json:"remaining_cents"`
	PercentUsed    int    `json:"percent_used"`
	Status         string `json:"status"`
}

func toBudgetJSON(st *services.BudgetStatus) budgetJSON {
	b := st.Budget
	return budgetJSON{
		ID:             b.ID,
		CategoryID:     b.CategoryID,
		AmountCents:    b.Amount.Cents,
		Amount:         core.FormatCents(b.Amount.Cents),
		PeriodType:     string(b.Period.Type),
		Year:           b.Period.Year,
		Month:          b.Period.Month,
		SpentCents:     st.SpentCents,
		Spent:          core.FormatCents(st.SpentCents),
		RemainingCents: st.RemainingCents,
		PercentUsed:    st.PercentUsed,
		Status:         st.Status,
	}
}

func toBudgetsJSON(statuses []services.BudgetStatus) []budgetJSON {
	out := make([]budgetJSON, len(statuses))
	for i := range statuses {
		out[i] = toBudgetJSON(&statuses[i])
	}
	return out
}

type goalJSON struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	TargetCents     int64  `json:"target_cents"`
	Target          string `json:"target"`
	CurrentCents    int64  `json:"current_cents"`
	Current         string `json:"current"`
	TargetDate      string `json:"target_date,omitempty"`
	CategoryLabel   string `json:"category_label,omitempty"`
	Completed       bool   `json:"completed"`
	ProgressPercent int    `json:"progress_percent"`
}

func toGoalJSON(g *core.Goal) goalJSON {
	out := goalJSON{
		ID:              g.ID,
		Name:            g.Name,
		TargetCents:     g.Target.Cents,
		Target:          core.FormatCents(g.Target.Cents),
		CurrentCents:    g.Current.Cents,
		Current:         core.FormatCents(g.Current.Cents),
		CategoryLabel:   g.CategoryLabel,
		Completed:       g.Completed,
		ProgressPercent: services.GoalProgress(g),
	}
	if g.TargetDate != nil {
		out.TargetDate = g.TargetDate.Format("2006-01-02")
	}
	return out
}

type contributionJSON struct {
	ID          int64  `json:"id"`
	GoalID      int64  `json:"goal_id"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Note        string `json:"note,omitempty"`
	Date        string `json:"date"`
}

func toContributionJSON(c *core.GoalContribution) contributionJSON {
	return contributionJSON{
		ID:          c.ID,
		GoalID:      c.GoalID,
		AmountCents: c.Amount.Cents,
		Amount:      core.FormatCents(c.Amount.Cents),
		Note:        c.Note,
		Date:        c.Date.Format("2006-01-02"),
	}
}

type recurringJSON struct {
	ID          int64  `json:"id"`
	AccountID   int64  `json:"account_id"`
	CategoryID  *int64 `json:"category_id"`
	Type        string `json:"type"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Frequency   string `json:"frequency"`
	NextDue     string `json:"next_due"`
}

func toRecurringJSON(rt *core.RecurringTransaction) recurringJSON {
	return recurringJSON{
		ID:          rt.ID,
		AccountID:   rt.AccountID,
		CategoryID:  rt.CategoryID,
		Type:        string(rt.Type),
		AmountCents: rt.Amount.Cents,
		Amount:      core.FormatCents(rt.Amount.Cents),
		Description: rt.Description,
		Frequency:   string(rt.Frequency),
		NextDue:     rt.NextDue.Format("2006-01-02"),
	}
}

type reminderJSON struct {
	ID          int64      `json:"id"`
	CategoryID  *int64     `json:"category_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	AmountCents *int64     `json:"amount_cents,omitempty"`
	Amount      string     `json:"amount,omitempty"`
	DueDate     string     `json:"due_date"`
	Recurring   bool       `json:"recurring"`
	Frequency   string     `json:"frequency,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func toReminderJSON(rem *core.Reminder) reminderJSON {
	out := reminderJSON{
		ID:          rem.ID,
		CategoryID:  rem.CategoryID,
		Title:       rem.Title,
		Description: rem.Description,
		DueDate:     rem.DueDate.Format("2006-01-02"),
		Recurring:   rem.Recurring,
		Completed:   rem.Completed,
		CompletedAt: rem.CompletedAt,
	}
	if rem.Recurring {
		out.Frequency = string(rem.Frequency)
	}
	if rem.Amount != nil {
		cents := rem.Amount.Cents
		out.AmountCents = &cents
		out.Amount = core.FormatCents(cents)
	}
	return out
}

type savedFilterJSON struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Filters string `json:"filters"`
}

type recommendationJSON struct {
	CategoryID     int64  `json:"category_id"`
	SuggestedCents int64  `json:"suggested_cents"`
	Suggested      string `json:"suggested"`
	AverageCents   int64  `json:"average_cents"`
	MonthsWithData int    `json:"months_with_data"`
}

func toRecommendationsJSON(recs []services.Recommendation) []recommendationJSON {
	out := make([]recommendationJSON, len(recs))
	for i, rec := range recs {
		out[i] = recommendationJSON{
			CategoryID:     rec.CategoryID,
			SuggestedCents: rec.SuggestedCents,
			Suggested:      core.FormatCents(rec.SuggestedCents),
			AverageCents:   rec.AverageCents,
			MonthsWithData: rec.MonthsWithData,
		}
	}
	return out
}
