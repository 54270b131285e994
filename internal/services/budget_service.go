package services

import (
	"context"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Budget statuses, computed on read from the live spend aggregate.
const (
	BudgetOK       = "ok"
	BudgetWarning  = "warning"
	BudgetExceeded = "exceeded"
)

const warningThresholdPercent = 80

// BudgetStatus is a budget joined with its current spend.
type BudgetStatus struct {
	Budget         core.Budget
	SpentCents     int64
	RemainingCents int64
	PercentUsed    int
	Status         string
}

// BudgetService owns budget CRUD and the spend-versus-target calculation.
type BudgetService struct {
	storage   *storage.Repository
	publisher EventPublisher
	minYear   int
}

func NewBudgetService(storage *storage.Repository, publisher EventPublisher, minYear int) *BudgetService {
	if minYear == 0 {
		minYear = core.DefaultMinYear
	}
	return &BudgetService{storage: storage, publisher: publisher, minYear: minYear}
}

func (s *BudgetService) Create(ctx context.Context, b *core.Budget) error {
	if err := b.Validate(s.minYear); err != nil {
		return err
	}
	if _, err := s.storage.GetCategory(ctx, b.UserID, b.CategoryID); err != nil {
		return fmt.Errorf("category %d: %w", b.CategoryID, err)
	}
	return s.storage.CreateBudget(ctx, b)
}

func (s *BudgetService) UpdateAmount(ctx context.Context, userID, id int64, amount core.Money) error {
	if amount.Cents < 0 {
		return core.ErrInvalidAmount
	}
	return s.storage.UpdateBudget(ctx, userID, id, amount)
}

func (s *BudgetService) Delete(ctx context.Context, userID, id int64) error {
	return s.storage.DeleteBudget(ctx, userID, id)
}

// Status loads one budget with its live spend.
func (s *BudgetService) Status(ctx context.Context, userID, id int64) (*BudgetStatus, error) {
	b, err := s.storage.GetBudget(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.status(ctx, b)
}

// ListStatuses returns every active budget with live spend, optionally
// narrowed to one period.
func (s *BudgetService) ListStatuses(ctx context.Context, userID int64, period *core.Period) ([]BudgetStatus, error) {
	budgets, err := s.storage.ListBudgets(ctx, userID, period)
	if err != nil {
		return nil, err
	}
	statuses := make([]BudgetStatus, 0, len(budgets))
	for i := range budgets {
		st, err := s.status(ctx, &budgets[i])
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, *st)
	}
	return statuses, nil
}

func (s *BudgetService) status(ctx context.Context, b *core.Budget) (*BudgetStatus, error) {
	spent, err := s.storage.SpendCents(ctx, b.UserID, b.CategoryID, b.Period)
	if err != nil {
		return nil, err
	}
	return buildStatus(*b, spent), nil
}

// buildStatus derives percent and status from raw cents. A zero target
// reads as 0% used regardless of spend; it can never divide.
func buildStatus(b core.Budget, spentCents int64) *BudgetStatus {
	st := &BudgetStatus{
		Budget:         b,
		SpentCents:     spentCents,
		RemainingCents: b.Amount.Cents - spentCents,
		Status:         BudgetOK,
	}
	if b.Amount.Cents > 0 {
		st.PercentUsed = int(spentCents * 100 / b.Amount.Cents)
		switch {
		case st.PercentUsed >= 100:
			st.Status = BudgetExceeded
		case st.PercentUsed >= warningThresholdPercent:
			st.Status = BudgetWarning
		}
	}
	return st
}

// PublishAlerts evaluates the category's budgets covering the given date and
// emits an alert event for each one past a threshold.
func (s *BudgetService) PublishAlerts(ctx context.Context, userID, categoryID int64, date core.Date) error {
	if s.publisher == nil {
		return nil
	}

	budgets, err := s.storage.ListBudgets(ctx, userID, nil)
	if err != nil {
		return err
	}
	for i := range budgets {
		b := &budgets[i]
		if b.CategoryID != categoryID || !b.Period.Contains(date) {
			continue
		}
		st, err := s.status(ctx, b)
		if err != nil {
			return err
		}
		if st.Status == BudgetOK {
			continue
		}
		err = s.publisher.Publish(ctx, amqp.KindBudgetAlert, amqp.BudgetAlert{
			UserID:      userID,
			BudgetID:    b.ID,
			CategoryID:  categoryID,
			SpentCents:  st.SpentCents,
			LimitCents:  b.Amount.Cents,
			PercentUsed: st.PercentUsed,
			Status:      st.Status,
		})
		if err != nil {
			return fmt.Errorf("publish budget alert: %w", err)
		}
	}
	return nil
}
