package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// EventPublisher is the slice of the AMQP client the services need. A nil
// publisher disables events without disabling the write path.
type EventPublisher interface {
	Publish(ctx context.Context, kind string, payload any) error
}

// TransactionService orchestrates transaction writes across SQLite and AMQP.
type TransactionService struct {
	storage   *storage.Repository
	publisher EventPublisher
	budgets   *BudgetService
}

func NewTransactionService(storage *storage.Repository, publisher EventPublisher, budgets *BudgetService) *TransactionService {
	return &TransactionService{
		storage:   storage,
		publisher: publisher,
		budgets:   budgets,
	}
}

// Create validates and saves a transaction, then fans out the created event
// and budget alerts. Event failures never fail the request; the write is
// already durable.
func (s *TransactionService) Create(ctx context.Context, t *core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := validateSplits(t); err != nil {
		return err
	}

	if err := s.storage.CreateTransaction(ctx, t); err != nil {
		return fmt.Errorf("save transaction: %w", err)
	}

	s.publishCreated(ctx, t)
	s.notifyBudgets(ctx, t)
	return nil
}

// Update rewrites a transaction and re-checks budgets for its categories.
func (s *TransactionService) Update(ctx context.Context, t *core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := validateSplits(t); err != nil {
		return err
	}

	if err := s.storage.UpdateTransaction(ctx, t); err != nil {
		return err
	}

	s.notifyBudgets(ctx, t)
	return nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	return s.storage.DeleteTransaction(ctx, userID, id)
}

func (s *TransactionService) Get(ctx context.Context, userID, id int64) (*core.Transaction, error) {
	return s.storage.GetTransaction(ctx, userID, id)
}

func (s *TransactionService) List(ctx context.Context, userID int64, f storage.TransactionFilter) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx, userID, f)
}

// Transfer moves money between two accounts atomically and reports the
// shared transfer id.
func (s *TransactionService) Transfer(ctx context.Context, userID, fromID, toID int64, amount core.Money, date core.Date, description string) (string, error) {
	if err := date.Validate(); err != nil {
		return "", err
	}
	return s.storage.Transfer(ctx, userID, fromID, toID, amount, date, description)
}

// validateSplits checks each split and requires split amounts to sum to the
// parent amount exactly.
func validateSplits(t *core.Transaction) error {
	if len(t.Splits) == 0 {
		return nil
	}
	var sum int64
	for _, s := range t.Splits {
		if err := s.Validate(); err != nil {
			return err
		}
		sum += s.Amount.Cents
	}
	if sum != t.Amount.Cents {
		return fmt.Errorf("split amounts sum to %d cents, transaction is %d: %w",
			sum, t.Amount.Cents, core.ErrInvalidAmount)
	}
	return nil
}

func (s *TransactionService) publishCreated(ctx context.Context, t *core.Transaction) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, amqp.KindTransactionCreated, amqp.TransactionCreated{
		TransactionID: t.ID,
		UserID:        t.UserID,
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"transaction_id", t.ID, "error", err)
	}
}

// notifyBudgets re-evaluates budgets for every category the transaction
// touches and publishes alerts for those past a threshold.
func (s *TransactionService) notifyBudgets(ctx context.Context, t *core.Transaction) {
	if s.budgets == nil || t.Type != core.TransactionExpense {
		return
	}

	seen := make(map[int64]bool)
	var categories []int64
	if t.IsSplit {
		for _, sp := range t.Splits {
			if !seen[sp.CategoryID] {
				seen[sp.CategoryID] = true
				categories = append(categories, sp.CategoryID)
			}
		}
	} else if t.CategoryID != nil {
		categories = append(categories, *t.CategoryID)
	}

	for _, catID := range categories {
		if err := s.budgets.PublishAlerts(ctx, t.UserID, catID, t.Date); err != nil {
			slog.ErrorContext(ctx, "Failed to publish budget alerts",
				"category_id", catID, "error", err)
		}
	}
}
